// Package pigment implements the optional Belief State / Pigment Reading
// collaborator named in the Core's data model: a sum-normalized RGB-like
// triple with a dominant-ideal tag derived by argmax. It is not part of the
// tick-ordered Core — the pigment/color-vocabulary front-end itself is an
// out-of-scope peripheral — but the pure data type and its conversions are
// in-scope state, exercised here with go-colorful instead of hand-rolled
// color math.
package pigment

import (
	"math"

	"github.com/dawnlabs/dawn-core/model"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// idealNames labels the three normalized channels for the dominant-ideal tag.
var idealNames = [3]string{"red_ideal", "green_ideal", "blue_ideal"}

// New builds a sum-normalized PigmentReading from raw, non-negative RGB-like
// scalars. A zero-sum input normalizes to an even split.
func New(r, g, b float64) model.PigmentReading {
	r, g, b = math.Max(r, 0), math.Max(g, 0), math.Max(b, 0)
	sum := r + g + b
	if sum == 0 {
		r, g, b, sum = 1, 1, 1, 3
	}
	r, g, b = r/sum, g/sum, b/sum

	return model.PigmentReading{
		R:             r,
		G:             g,
		B:             b,
		DominantIdeal: dominantIdeal(r, g, b),
	}
}

// FromHeatEntropySCUP derives a pigment reading from a pulse triple: heat
// biases red, entropy biases green, coherence (SCUP) biases blue. This is a
// pure function with no dependence on prior readings.
func FromHeatEntropySCUP(heat, entropy, scup float64) model.PigmentReading {
	return New(heat/100, entropy, scup)
}

func dominantIdeal(r, g, b float64) string {
	vals := [3]float64{r, g, b}
	best := 0
	for i := 1; i < 3; i++ {
		if vals[i] > vals[best] {
			best = i
		}
	}
	return idealNames[best]
}

// Blend mixes two pigment readings in Lab space using go-colorful, weighted
// by t in [0,1] (0 returns a, 1 returns b), then re-normalizes the result.
func Blend(a, b model.PigmentReading, t float64) model.PigmentReading {
	ca := colorful.Color{R: a.R, G: a.G, B: a.B}
	cb := colorful.Color{R: b.R, G: b.G, B: b.B}
	mixed := ca.BlendLab(cb, t)
	return New(mixed.R, mixed.G, mixed.B)
}

// Distance returns the perceptual (Lab) distance between two readings,
// usable for "mood match" style context bonuses in memory retrieval.
func Distance(a, b model.PigmentReading) float64 {
	ca := colorful.Color{R: a.R, G: a.G, B: a.B}
	cb := colorful.Color{R: b.R, G: b.G, B: b.B}
	return ca.DistanceLab(cb)
}
