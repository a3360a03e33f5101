package posttick

import (
	"github.com/dawnlabs/dawn-core/forecast"
	"github.com/dawnlabs/dawn-core/model"
)

// ExtendedForecastInput bundles the tick state the Extended Forecast
// trigger reads to derive its opportunity and reliability inputs.
type ExtendedForecastInput struct {
	Passion      model.Passion
	Acquaintance model.Acquaintance
	Pulse        model.PulseSnapshot
	DeltaTime    float64 // seconds since the previous tick
}

// Opportunity derives the opportunity scalar purely from heat and entropy:
// higher heat and lower entropy both raise it, with no dependency on
// passion, acquaintance, or delta time. Kept as its own function (rather
// than inlined in ComputeExtended) so the "no cross-terms" resolution is
// visible and independently testable.
func Opportunity(p model.PulseSnapshot) float64 {
	return forecast.OpportunityFromPulse(p.Heat, p.Entropy)
}

// Reliability derives the reliability scalar purely from delta time, with
// no dependency on pulse, passion, or acquaintance. It mirrors the base
// forecast engine's RL = |-1/ΔT| term, computed independently here so a
// caller can read reliability without running the full five-step forecast.
func Reliability(deltaTime float64) float64 {
	dt := deltaTime
	if dt == 0 {
		dt = 1e-6
	}
	rl := -1.0 / dt
	if rl < 0 {
		rl = -rl
	}
	return rl
}

// ExtendedForecast is the Extended Forecast trigger's output: the full
// five-scalar forecast plus the independently-derived opportunity and
// reliability values that fed it.
type ExtendedForecast struct {
	Opportunity float64
	Reliability float64
	Result      model.ForecastResult
}

// ComputeExtended runs the Extended Forecast trigger: opportunity comes
// from pulse alone, reliability from delta time alone, and both feed the
// same ComputeForecast formula used by the base Forecasting Engine.
func ComputeExtended(in ExtendedForecastInput, engine *forecast.Engine) ExtendedForecast {
	op := Opportunity(in.Pulse)
	rl := Reliability(in.DeltaTime)
	result := engine.ComputeForecast(in.Passion, in.Acquaintance, op, in.DeltaTime)
	return ExtendedForecast{Opportunity: op, Reliability: rl, Result: result}
}
