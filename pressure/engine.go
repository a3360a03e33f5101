// Package pressure implements the Cognitive Pressure Engine: a single
// weighted scalar summarizing how hard the Core is currently working,
// derived from bloom mass, sigil velocity, excess heat, and entropy.
package pressure

import (
	"math"

	"github.com/dawnlabs/dawn-core/model"
	"github.com/dawnlabs/dawn-core/util"
)

// Weight coefficients for the four pressure contributions, matching the
// documented defaults exactly (w_b, w_s, w_h, w_e, target_heat).
const (
	weightBloomMass     = 1.0
	weightSigilVelocity = 0.5
	weightHeatExcess    = 1.0
	weightEntropy       = 0.5

	// targetHeat is the heat level above which excess heat contributes to
	// pressure.
	targetHeat = 33.0

	// bloomMassHalfLife is how long bloom mass takes to decay by half when
	// no new blooms are recorded.
	bloomMassHalfLife = 20.0 // seconds
)

// Engine tracks bloom mass across ticks (with half-life decay) so Score can
// be a pure function of its other inputs plus this one piece of state.
type Engine struct {
	bloomMass float64
}

// New creates a pressure engine with zero accumulated bloom mass.
func New() *Engine {
	return &Engine{}
}

// RecordBloom adds mass to the running bloom-mass accumulator (called by the
// Rebloom evaluator whenever a rebloom fires).
func (e *Engine) RecordBloom(mass float64) {
	e.bloomMass += mass
}

// Decay applies half-life decay to bloom mass for an elapsed duration in
// seconds since the last tick.
func (e *Engine) Decay(elapsedSeconds float64) {
	e.bloomMass *= util.HalfLifeDecay(elapsedSeconds, bloomMassHalfLife)
}

// Score is the weighted pressure scalar and its classification.
type Score struct {
	Value           float64
	Level           model.PressureLevel
	BloomMass       float64
	SigilVelocity   int
	HeatExcess      float64
	EntropyTerm     float64
}

// Compute derives the current pressure score from bloom mass (already
// tracked internally), sigil velocity (count of recently-activated
// sigils), heat, and entropy.
func (e *Engine) Compute(sigilVelocity int, heat, entropy float64) Score {
	heatExcess := math.Max(0, heat-targetHeat)
	entropyTerm := entropy * 100

	value := weightBloomMass*e.bloomMass +
		weightSigilVelocity*float64(sigilVelocity) +
		weightHeatExcess*heatExcess +
		weightEntropy*entropyTerm

	return Score{
		Value:         value,
		Level:         model.ClassifyPressure(value),
		BloomMass:     e.bloomMass,
		SigilVelocity: sigilVelocity,
		HeatExcess:    heatExcess,
		EntropyTerm:   entropyTerm,
	}
}

// Commands derives which Reflex commands a given pressure level warrants.
// Elevated introduces rebloom suppression; High adds a slowed tick; Critical
// adds a full sigil-ring prune on top of both.
func Commands(level model.PressureLevel) []string {
	switch level {
	case model.PressureElevated:
		return []string{"suppress_rebloom"}
	case model.PressureHigh:
		return []string{"suppress_rebloom", "slow_tick"}
	case model.PressureCritical:
		return []string{"suppress_rebloom", "slow_tick", "prune_sigils"}
	default:
		return nil
	}
}
