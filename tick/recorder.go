package tick

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Recorder wraps a Core and writes every TickResult it produces to a JSON
// Lines stream, so a run can be replayed later for debugging. Grounded on
// the teacher's Recorder/Player pair (engine/recorder.go): a thin wrapper
// around the normal Tick call that encodes one line per tick, here keyed by
// TickResult rather than a resource snapshot.
type Recorder struct {
	core *Core

	mu           sync.Mutex
	writer       *json.Encoder
	lastWriteErr error
}

// NewRecorder wraps core, writing each recorded tick to w as it happens.
// The caller still owns core and may call its other methods directly; only
// calls made through the Recorder are captured.
func NewRecorder(core *Core, w io.Writer) *Recorder {
	return &Recorder{core: core, writer: json.NewEncoder(w)}
}

// Tick runs one tick on the wrapped Core and appends the result to the
// record stream before returning it. A write failure is swallowed (recording
// is best-effort diagnostics, never a reason to stall the cognitive loop)
// but surfaced via LastWriteError for callers that care.
func (r *Recorder) Tick(stim Stimulus, now time.Time) TickResult {
	result := r.core.Tick(stim, now)
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.writer.Encode(result); err != nil {
		r.lastWriteErr = fmt.Errorf("record tick %d: %w", result.Tick, err)
	}
	return result
}

// LastWriteError returns the most recent recording failure, if any.
func (r *Recorder) LastWriteError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastWriteErr
}

// Run drives the wrapped Core exactly like Core.Run, except every tick
// passes through r.Tick first so it lands in the record stream.
func (r *Recorder) Run(ctx context.Context, cfg RunConfig) error {
	timer := time.NewTimer(r.core.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			var stim Stimulus
			if cfg.Stimuli != nil {
				select {
				case s, ok := <-cfg.Stimuli:
					if ok {
						stim = s
					}
				default:
				}
			}
			result := r.Tick(stim, time.Now())
			if cfg.OnTick != nil {
				cfg.OnTick(result)
			}
			timer.Reset(r.core.interval)
		}
	}
}

// Player replays a recorded JSON Lines file of TickResults, one at a time,
// without re-running any cognitive component — it is a pure readback for
// `dawn replay-ticks`, distinct from `dawn replay`'s memory-only load.
type Player struct {
	results []TickResult
	idx     int
}

// OpenPlayer loads every recorded TickResult from path, skipping malformed
// lines the way memory/persistence.go's Loader skips malformed memory lines.
func OpenPlayer(path string) (*Player, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open record file: %w", err)
	}
	defer f.Close()

	var results []TickResult
	parseErrors := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var result TickResult
		if err := json.Unmarshal(line, &result); err != nil {
			parseErrors++
			continue
		}
		results = append(results, result)
	}
	if err := scanner.Err(); err != nil {
		return nil, parseErrors, fmt.Errorf("scan record file: %w", err)
	}
	return &Player{results: results}, parseErrors, nil
}

// Next returns the next recorded TickResult in order, or ok=false once the
// recording is exhausted.
func (p *Player) Next() (TickResult, bool) {
	if p.idx >= len(p.results) {
		return TickResult{}, false
	}
	result := p.results[p.idx]
	p.idx++
	return result, true
}

// Len returns the total number of recorded ticks loaded.
func (p *Player) Len() int { return len(p.results) }
