package memory

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dawnlabs/dawn-core/model"
)

// record is the on-disk JSON Lines v1 shape for a memory chunk (spec §6).
type record struct {
	MemoryID      string                 `json:"memory_id"`
	Timestamp     time.Time              `json:"timestamp"`
	Speaker       string                 `json:"speaker"`
	Content       string                 `json:"content"`
	PulseState    map[string]interface{} `json:"pulse_state"`
	Sigils        []string               `json:"sigils"`
	Topic         string                 `json:"topic,omitempty"`
	Traced        bool                   `json:"traced,omitempty"`
	AnchorLinked  bool                   `json:"anchor_linked,omitempty"`
	ContentLength int                    `json:"content_length,omitempty"`
	WordCount     int                    `json:"word_count,omitempty"`
}

func toRecord(c model.MemoryChunk) record {
	return record{
		MemoryID:  c.ID,
		Timestamp: c.Timestamp,
		Speaker:   c.Speaker.String(),
		Content:   c.Content,
		PulseState: map[string]interface{}{
			"heat":    c.Pulse.Heat,
			"entropy": c.Pulse.Entropy,
			"scup":    c.Pulse.SCUP,
			"mood":    c.Pulse.Mood.String(),
			"zone":    c.Pulse.Zone.String(),
		},
		Sigils:        append([]string(nil), c.Sigils...),
		Topic:         c.Topic,
		Traced:        c.Traced,
		AnchorLinked:  c.AnchorLinked,
		ContentLength: c.Length,
		WordCount:     c.WordCount,
	}
}

func fromRecord(r record) (model.MemoryChunk, error) {
	if r.MemoryID == "" || r.Content == "" {
		return model.MemoryChunk{}, fmt.Errorf("missing required field (memory_id/content)")
	}
	pulse := model.PulseSnapshot{}
	if v, ok := numField(r.PulseState, "heat"); ok {
		pulse.Heat = v
	}
	if v, ok := numField(r.PulseState, "entropy"); ok {
		pulse.Entropy = v
	}
	if v, ok := numField(r.PulseState, "scup"); ok {
		pulse.SCUP = v
	}
	if v, ok := r.PulseState["mood"].(string); ok {
		pulse.Mood = parseMood(v)
	}
	pulse.Zone = model.ClassifyZone(pulse.Heat, pulse.Entropy)

	c := model.MemoryChunk{
		ID:           r.MemoryID,
		Timestamp:    r.Timestamp,
		Speaker:      model.ParseSpeaker(r.Speaker),
		Topic:        r.Topic,
		Content:      r.Content,
		Length:       len(r.Content),
		WordCount:    r.WordCount,
		Pulse:        pulse,
		Sigils:       append([]string(nil), r.Sigils...),
		Traced:       r.Traced,
		AnchorLinked: r.AnchorLinked,
	}
	if c.WordCount == 0 {
		c.WordCount = wordCountFallback(r.Content)
	}
	return c, nil
}

func numField(m map[string]interface{}, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func parseMood(s string) model.Mood {
	switch s {
	case "CONTEMPLATIVE":
		return model.MoodContemplative
	case "ENGAGED":
		return model.MoodEngaged
	case "CRITICAL":
		return model.MoodCritical
	case "CURIOUS":
		return model.MoodCurious
	default:
		return model.MoodNeutral
	}
}

func wordCountFallback(s string) int {
	count := 0
	inWord := false
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}

// Append appends chunks to path as JSON Lines, one record per line. Each
// line goes to the O_APPEND file in its own Write call, so a line is never
// split across writes (line-atomic append).
func Append(path string, chunks []model.MemoryChunk) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open memory log: %w", err)
	}
	defer f.Close()

	for _, c := range chunks {
		data, err := json.Marshal(toRecord(c))
		if err != nil {
			return fmt.Errorf("marshal memory chunk %s: %w", c.ID, err)
		}
		data = append(data, '\n')
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("write memory chunk %s: %w", c.ID, err)
		}
	}
	return nil
}

// Loader is a lazy, finite, non-restartable iterator over a memory log
// file. It tolerates malformed and truncated trailing lines, counting
// skipped lines in Errors().
type Loader struct {
	f       *os.File
	scanner *bufio.Scanner
	errs    int
}

// NewLoader opens path for streaming iteration.
func NewLoader(path string) (*Loader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open memory log: %w", err)
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	return &Loader{f: f, scanner: scanner}, nil
}

// Next returns the next valid chunk, or ok=false once the stream is
// exhausted. Malformed lines are skipped (and counted) transparently.
func (l *Loader) Next() (model.MemoryChunk, bool) {
	for l.scanner.Scan() {
		line := l.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r record
		if err := json.Unmarshal(line, &r); err != nil {
			l.errs++
			continue
		}
		c, err := fromRecord(r)
		if err != nil {
			l.errs++
			continue
		}
		return c, true
	}
	return model.MemoryChunk{}, false
}

// Errors returns the count of skipped malformed/invalid lines seen so far.
func (l *Loader) Errors() int { return l.errs }

// Close releases the underlying file handle.
func (l *Loader) Close() error { return l.f.Close() }

// LoadAll drains a Loader into a slice, returning the parsed chunks and the
// count of parse failures encountered.
func LoadAll(path string) ([]model.MemoryChunk, int, error) {
	l, err := NewLoader(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	defer l.Close()

	var out []model.MemoryChunk
	for {
		c, ok := l.Next()
		if !ok {
			break
		}
		out = append(out, c)
	}
	return out, l.Errors(), nil
}

// RouteAll loads path and re-routes every chunk through router's tier
// rules, per the spec's load(path) contract. Returns the number routed and
// the number of parse failures.
func RouteAll(router *Router, path string) (routed int, parseErrors int, err error) {
	l, err := NewLoader(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, 0, nil
		}
		return 0, 0, err
	}
	defer l.Close()

	for {
		c, ok := l.Next()
		if !ok {
			break
		}
		if _, _, err := router.Route(c); err != nil {
			return routed, l.Errors(), err
		}
		routed++
	}
	return routed, l.Errors(), nil
}
