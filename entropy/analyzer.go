// Package entropy implements the Entropy Analyzer: a rolling-window chaos
// detector over the Core's global entropy scalar.
package entropy

import (
	"sort"

	"github.com/dawnlabs/dawn-core/util"
)

const (
	// windowSize is the rolling sample window, spec size W ~= 256.
	windowSize = 256
	// shortWindow is the short-term mean/volatility window.
	shortWindow = 8
	// midWindow is the mid-term mean comparison window.
	midWindow = 64
	// warningSampleThreshold triggers a warning at or above this value.
	warningSampleThreshold = 0.85
	// warningDeltaThreshold triggers a warning when short-term mean rises
	// by more than this over the mid-term mean.
	warningDeltaThreshold = 0.2
	// hotBloomThreshold is the minimum per-chunk entropy for hot-bloom
	// inclusion.
	hotBloomThreshold = 0.7
)

// Analysis is the result of one Analyze call.
type Analysis struct {
	Delta            float64
	WarningTriggered bool
	Volatility       float64
}

// Analyzer tracks a rolling window of entropy samples and derives warnings,
// volatility, and (via HotBloom) recent high-entropy memory chunk ids.
type Analyzer struct {
	samples []float64 // oldest first, length <= windowSize
}

// New creates an empty analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze records a new sample and returns the derived analysis.
func (a *Analyzer) Analyze(sample float64) Analysis {
	prev := a.last()
	a.push(sample)

	short := a.tail(shortWindow)
	mid := a.tail(midWindow)
	shortMean := util.Mean(short)
	midMean := util.Mean(mid)

	warning := sample >= warningSampleThreshold || (shortMean-midMean) > warningDeltaThreshold

	return Analysis{
		Delta:            sample - prev,
		WarningTriggered: warning,
		Volatility:       util.StdDev(short),
	}
}

// Latest returns the most recent sample, or 0 if none have been recorded.
func (a *Analyzer) Latest() float64 {
	return a.last()
}

func (a *Analyzer) last() float64 {
	if len(a.samples) == 0 {
		return 0
	}
	return a.samples[len(a.samples)-1]
}

func (a *Analyzer) push(sample float64) {
	a.samples = append(a.samples, sample)
	if len(a.samples) > windowSize {
		a.samples = a.samples[len(a.samples)-windowSize:]
	}
}

func (a *Analyzer) tail(n int) []float64 {
	if n > len(a.samples) {
		n = len(a.samples)
	}
	return a.samples[len(a.samples)-n:]
}

// HotChunk is the minimal shape HotBloom needs from a memory chunk: an id
// and the entropy recorded in its pulse snapshot at routing time.
type HotChunk struct {
	ID      string
	Entropy float64
}

// HotBloom returns the top-k recent chunk ids (by entropy, descending) whose
// entropy is at or above hotBloomThreshold. Chunks is expected to be the
// Router's recent-tier view; HotBloom never mutates it.
func HotBloom(chunks []HotChunk, k int) []string {
	candidates := make([]HotChunk, 0, len(chunks))
	for _, c := range chunks {
		if c.Entropy >= hotBloomThreshold {
			candidates = append(candidates, c)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Entropy > candidates[j].Entropy
	})
	if k > len(candidates) {
		k = len(candidates)
	}
	out := make([]string, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, candidates[i].ID)
	}
	return out
}
