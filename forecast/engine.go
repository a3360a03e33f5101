// Package forecast implements the Forecasting Engine: deterministic
// behavioral-probability mathematics over a Passion/Acquaintance pair.
package forecast

import (
	"math"

	"github.com/dawnlabs/dawn-core/model"
)

// epsilon guards every division in ComputeForecast against a zero
// denominator without special-casing each formula step.
const epsilon = 1e-6

// Engine computes forecasts. It holds no mutable state of its own; every
// method is a pure function of its arguments.
type Engine struct{}

// New creates a forecasting engine.
func New() *Engine { return &Engine{} }

// Centrality derives the passion's centrality coefficient. Centrality is
// taken directly when the caller has set it (non-zero); otherwise it is
// derived from intensity and fluidity, matching the source model's
// fallback of higher-intensity/lower-fluidity implying higher centrality.
func Centrality(p model.Passion) float64 {
	if p.Centrality != 0 {
		return p.Centrality
	}
	return p.Intensity * (1 - p.Fluidity*0.5)
}

// guard replaces a zero value with epsilon so a formula step never divides
// by zero.
func guard(v float64) float64 {
	if v == 0 {
		return epsilon
	}
	return v
}

// ComputeForecast runs the five-step forecast: probability estimate,
// reliability, opportunity-adjusted passion, the forecast scalar F, and
// limit horizon. opportunity is expected in [0,1]; deltaTime is expected
// positive. A zero deltaTime is replaced by epsilon like any other zero
// denominator; a negative one gives the same RL as its magnitude, since RL
// takes the absolute value.
func (e *Engine) ComputeForecast(p model.Passion, a model.Acquaintance, opportunity, deltaTime float64) model.ForecastResult {
	c := Centrality(p)
	deltaA := guard(a.Delta)
	total := guard(a.Total)
	deltaT := guard(deltaTime)

	smallP := (c * opportunity) / deltaA
	rl := math.Abs(-1.0 / deltaT)
	rl = guard(rl)
	bigP := (opportunity * smallP) / rl
	f := bigP / total
	lh := c * opportunity

	band := model.ConfidenceBand(f)
	return model.ForecastResult{
		F:                 f,
		P:                 bigP,
		SmallP:            smallP,
		RL:                rl,
		LH:                lh,
		ConfidenceBand:    band,
		PredictedBehavior: model.PredictedBehavior(p.Direction, band, smallP, rl),
	}
}

// opportunityValues and timeValues are the fixed sweep points used by
// SensitivityAnalysis, matching the source engine's five-point scan over
// opportunity and time delta.
var opportunityValues = []float64{0.1, 0.3, 0.5, 0.7, 0.9}
var timeValues = []float64{0.1, 0.5, 1.0, 2.0, 5.0}

// SensitivityAnalysis sweeps opportunity and deltaTime independently around
// a base case, holding the other input fixed, and reports the forecast
// scalar and percent change from the base result at each sweep point.
type SensitivityAnalysis struct {
	Base        model.ForecastResult
	Opportunity []model.SensitivityPoint
	Time        []model.SensitivityPoint
}

// AnalyzeSensitivity computes the base forecast plus both sweeps.
func (e *Engine) AnalyzeSensitivity(p model.Passion, a model.Acquaintance, baseOpportunity, baseDeltaTime float64) SensitivityAnalysis {
	base := e.ComputeForecast(p, a, baseOpportunity, baseDeltaTime)

	opSweep := make([]model.SensitivityPoint, 0, len(opportunityValues))
	for _, op := range opportunityValues {
		r := e.ComputeForecast(p, a, op, baseDeltaTime)
		opSweep = append(opSweep, model.SensitivityPoint{
			Input:        op,
			F:            r.F,
			PercentDelta: percentDelta(base.F, r.F),
		})
	}

	tSweep := make([]model.SensitivityPoint, 0, len(timeValues))
	for _, dt := range timeValues {
		r := e.ComputeForecast(p, a, baseOpportunity, dt)
		tSweep = append(tSweep, model.SensitivityPoint{
			Input:        dt,
			F:            r.F,
			PercentDelta: percentDelta(base.F, r.F),
		})
	}

	return SensitivityAnalysis{Base: base, Opportunity: opSweep, Time: tSweep}
}

func percentDelta(base, v float64) float64 {
	if base == 0 {
		return 0
	}
	return ((v - base) / base) * 100
}

// SymbolicBodyUpdate mirrors the source engine's LH/p-derived drift values,
// consumed by the Sigil Network as a secondary regulatory input.
type SymbolicBodyUpdate struct {
	SymbolicDrift    float64
	TemporalScaling  float64
	ProbabilityField float64
	CoherenceFactor  float64
}

// SymbolicBodyUpdateFrom derives drift/coherence values from a forecast
// result's limit horizon and probability estimate.
func SymbolicBodyUpdateFrom(r model.ForecastResult) SymbolicBodyUpdate {
	return SymbolicBodyUpdate{
		SymbolicDrift:    r.LH * r.SmallP,
		TemporalScaling:  r.LH,
		ProbabilityField: r.SmallP,
		CoherenceFactor:  1.0 / (1.0 + math.Abs(r.LH-r.SmallP)),
	}
}

// OpportunityFromPulse derives an opportunity scalar from heat/entropy per
// the source engine's pulse-loop integration: higher heat and lower entropy
// imply more opportunity. heat is expected in [0,100], entropy in [0,1].
func OpportunityFromPulse(heat, entropy float64) float64 {
	heatNorm := heat / 100.0
	return (heatNorm + (1 - entropy)) / 2
}
