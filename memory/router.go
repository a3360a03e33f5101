// Package memory implements the Memory Chunk data type, the tiered Router,
// and JSON-lines persistence for the Core.
package memory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dawnlabs/dawn-core/model"
)

const (
	workingCapacity = 50
	recentCapacity  = 200
	// defaultImportanceThreshold is the cutoff above which a chunk is
	// promoted into the Significant tier.
	defaultImportanceThreshold = 0.6
)

// significantCapacity returns the Significant tier's capacity for a given
// Recent-tier capacity, per the max/10 rule.
func significantCapacity(maxRecent int) int {
	c := maxRecent / 10
	if c < 1 {
		c = 1
	}
	return c
}

// Mirror is the optional secondary index a Router may write through; see
// package memory/sqlitemirror for the concrete implementation. Mirror
// writes are best-effort and never block tier mutation.
type Mirror interface {
	Upsert(c model.MemoryChunk) error
}

// Router holds the three memory tiers and routes newly constructed chunks
// into them. It is the sole writer of tier state; Stats/RecentChunks/
// UnsavedChunks/Retrieve give callers read access without exposing the
// backing slices.
type Router struct {
	working     []model.MemoryChunk
	recent      []model.MemoryChunk
	significant []model.MemoryChunk

	byID                map[string]model.MemoryChunk
	importanceThreshold float64
	maxRecent           int

	unsaved []model.MemoryChunk
	mirror  Mirror
}

// NewRouter creates an empty router with default tier capacities.
func NewRouter() *Router {
	return &Router{
		byID:                make(map[string]model.MemoryChunk),
		importanceThreshold: defaultImportanceThreshold,
		maxRecent:           recentCapacity,
	}
}

// SetMirror attaches an optional secondary index; nil disables mirroring.
func (r *Router) SetMirror(m Mirror) { r.mirror = m }

// SetImportanceThreshold overrides the Significant-tier promotion cutoff.
func (r *Router) SetImportanceThreshold(t float64) { r.importanceThreshold = t }

// DuplicateContentMismatchError is an invariant violation: the same memory
// id was routed twice with different content. The driver reports it in
// TickResult.RouteError; `dawn run` treats it as fatal: it stops ticking,
// flushes, and exits with the invariant-violation code.
type DuplicateContentMismatchError struct {
	ID string
}

func (e *DuplicateContentMismatchError) Error() string {
	return fmt.Sprintf("memory id %q routed with mismatched content", e.ID)
}

// Route adds a chunk to Recent (always) and Working (always, as the most
// recently-influential memory), promotes it into Significant when its
// importance exceeds the threshold, evicts per capacity rules, and queues
// it for persistence. It returns the chunk's importance score and the
// flags-updated copy actually stored.
func (r *Router) Route(c model.MemoryChunk) (model.MemoryChunk, float64, error) {
	if existing, ok := r.byID[c.ID]; ok && existing.Content != c.Content {
		return model.MemoryChunk{}, 0, &DuplicateContentMismatchError{ID: c.ID}
	}

	importance := Importance(c)
	traced := len(c.Sigils) > 0
	anchorLinked := importance > r.importanceThreshold
	c = c.WithFlags(traced, anchorLinked)

	r.byID[c.ID] = c

	r.working = pushCapped(r.working, c, workingCapacity)
	r.recent = pushCapped(r.recent, c, recentCapacity)

	if anchorLinked {
		r.significant = insertSignificant(r.significant, c, significantCapacity(r.maxRecent))
	}

	r.unsaved = append(r.unsaved, c)
	if r.mirror != nil {
		_ = r.mirror.Upsert(c) // best-effort, per spec's never-block guarantee
	}

	return c, importance, nil
}

// pushCapped appends to a FIFO deque, evicting oldest-first past capacity.
func pushCapped(tier []model.MemoryChunk, c model.MemoryChunk, cap int) []model.MemoryChunk {
	tier = append(tier, c)
	if len(tier) > cap {
		tier = tier[len(tier)-cap:]
	}
	return tier
}

// insertSignificant inserts c, evicting the lowest-importance member if the
// tier is at capacity and c would not itself be the lowest.
func insertSignificant(tier []model.MemoryChunk, c model.MemoryChunk, cap int) []model.MemoryChunk {
	tier = append(tier, c)
	if len(tier) <= cap {
		return tier
	}
	// Evict lowest-importance entry.
	lowestIdx := 0
	lowestScore := Importance(tier[0])
	for i := 1; i < len(tier); i++ {
		s := Importance(tier[i])
		if s < lowestScore {
			lowestScore = s
			lowestIdx = i
		}
	}
	return append(tier[:lowestIdx], tier[lowestIdx+1:]...)
}

// TierStats reports counts and mean importance for each tier, used by the
// reflection generator.
type TierStats struct {
	WorkingCount         int
	RecentCount          int
	SignificantCount     int
	MeanImportance       float64
	SignificantThreshold float64
}

// Stats returns a read-only snapshot of tier sizes and mean importance over
// the Recent tier.
func (r *Router) Stats() TierStats {
	var sum float64
	for _, c := range r.recent {
		sum += Importance(c)
	}
	mean := 0.0
	if len(r.recent) > 0 {
		mean = sum / float64(len(r.recent))
	}
	return TierStats{
		WorkingCount:         len(r.working),
		RecentCount:          len(r.recent),
		SignificantCount:     len(r.significant),
		MeanImportance:       mean,
		SignificantThreshold: r.importanceThreshold,
	}
}

// Caps exposes the three capacities for invariant checking/tests.
func (r *Router) Caps() (working, recent, significant int) {
	return workingCapacity, recentCapacity, significantCapacity(r.maxRecent)
}

// RecentChunks returns a copy of the Recent tier, oldest first.
func (r *Router) RecentChunks() []model.MemoryChunk {
	return append([]model.MemoryChunk(nil), r.recent...)
}

// UnsavedChunks returns chunks routed since the last MarkSaved call.
func (r *Router) UnsavedChunks() []model.MemoryChunk {
	return append([]model.MemoryChunk(nil), r.unsaved...)
}

// MarkSaved clears the unsaved buffer after a successful persistence flush.
func (r *Router) MarkSaved() {
	r.unsaved = r.unsaved[:0]
}

// Context carries optional retrieval bonuses beyond plain text relevance.
type Context struct {
	Tag          string
	Mood         *model.Mood
	EntropyBand  *[2]float64 // [lo, hi] inclusive band for an entropy-match bonus
}

// Retrieve implements the spec's relevance-scored candidate search across
// working ∪ significant ∪ recent (deduplicated). max_results = 0 returns an
// empty, side-effect-free result.
func (r *Router) Retrieve(query string, ctx *Context, maxResults int, now time.Time) []model.MemoryChunk {
	if maxResults <= 0 {
		return nil
	}

	candidates := r.dedupedCandidates()
	queryLower := strings.ToLower(query)
	queryWords := wordSet(queryLower)

	type scored struct {
		chunk model.MemoryChunk
		score float64
	}
	var out []scored

	for _, c := range candidates {
		score := relevance(c, query, queryLower, queryWords, ctx, now)
		if score > 0.1 {
			out = append(out, scored{c, score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		if !out[i].chunk.Timestamp.Equal(out[j].chunk.Timestamp) {
			return out[i].chunk.Timestamp.After(out[j].chunk.Timestamp)
		}
		return out[i].chunk.ID < out[j].chunk.ID
	})

	if len(out) > maxResults {
		out = out[:maxResults]
	}
	result := make([]model.MemoryChunk, len(out))
	for i, s := range out {
		result[i] = s.chunk
	}
	return result
}

func (r *Router) dedupedCandidates() []model.MemoryChunk {
	seen := make(map[string]bool)
	var out []model.MemoryChunk
	add := func(tier []model.MemoryChunk) {
		for _, c := range tier {
			if !seen[c.ID] {
				seen[c.ID] = true
				out = append(out, c)
			}
		}
	}
	add(r.working)
	add(r.significant)
	add(r.recent)
	return out
}

func relevance(c model.MemoryChunk, query, queryLower string, queryWords map[string]bool, ctx *Context, now time.Time) float64 {
	var score float64
	contentLower := strings.ToLower(c.Content)

	if strings.Contains(contentLower, queryLower) {
		score += 0.50
	}

	if len(queryWords) > 0 {
		contentWords := wordSet(contentLower)
		overlap := 0
		for w := range queryWords {
			if contentWords[w] {
				overlap++
			}
		}
		score += 0.30 * (float64(overlap) / float64(len(queryWords)))
	}

	if ctx != nil && ctx.Tag != "" && c.Topic == ctx.Tag {
		score += 0.20
	}

	if strings.Contains(queryLower, strings.ToLower(c.Speaker.String())) {
		score += 0.10
	}

	ageHours := now.Sub(c.Timestamp).Hours()
	recencyBonus := 1 - ageHours/168
	if recencyBonus < 0 {
		recencyBonus = 0
	}
	score += 0.10 * recencyBonus

	score += 0.10 * Importance(c)

	if ctx != nil {
		if ctx.Mood != nil && *ctx.Mood == c.Pulse.Mood {
			score += 0.05
		}
		if ctx.EntropyBand != nil && c.Pulse.Entropy >= ctx.EntropyBand[0] && c.Pulse.Entropy <= ctx.EntropyBand[1] {
			score += 0.05
		}
	}

	return score
}

func wordSet(s string) map[string]bool {
	fields := strings.Fields(s)
	out := make(map[string]bool, len(fields))
	for _, f := range fields {
		out[f] = true
	}
	return out
}
