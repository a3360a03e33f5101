// Package pulse implements the Pulse Controller: the Core's thermal and
// coherence subsystem. It owns heat, zone, trend, and a short heat history,
// and is the only writer to that state — everything else reads it through
// CurrentState.
package pulse

import (
	"github.com/dawnlabs/dawn-core/model"
	"github.com/dawnlabs/dawn-core/util"
)

const (
	// historyCapacity is the ring buffer length; spec requires >= 32.
	historyCapacity = 32
	// trendWindow is the number of most recent samples used for trend/
	// volatility detection; spec requires >= 16.
	trendWindow = 16
	// volatilityThreshold is the standard-deviation cutoff above which a
	// trend is classified "volatile" rather than stable/rising/falling.
	volatilityThreshold = 8.0
	// slopeEpsilon is the minimum slope magnitude to call a trend rising
	// or falling instead of stable.
	slopeEpsilon = 0.05

	minHeat = 0.0
	maxHeat = 100.0
)

// Trend is the discrete heat-history classification.
type Trend string

const (
	TrendStable   Trend = "stable"
	TrendRising   Trend = "rising"
	TrendFalling  Trend = "falling"
	TrendVolatile Trend = "volatile"
)

// State is the read-only snapshot exposed by CurrentState.
type State struct {
	Pulse   model.PulseSnapshot
	Trend   Trend
	History []float64
}

// Controller owns heat, zone, and heat history. It is exclusively mutated by
// the Tick Driver during the Sense and Regulate phases.
type Controller struct {
	pulse   model.PulseSnapshot
	history []float64 // append-only, trimmed to historyCapacity
}

// New creates a controller with a resting baseline state.
func New() *Controller {
	c := &Controller{
		pulse: model.PulseSnapshot{
			Heat:    20,
			Entropy: 0.1,
			SCUP:    0.5,
			Mood:    model.MoodNeutral,
			Zone:    model.ZoneCalm,
		},
	}
	c.history = append(c.history, c.pulse.Heat)
	return c
}

// CurrentState returns a read-only copy of the controller's state.
func (c *Controller) CurrentState() State {
	return State{
		Pulse:   c.pulse.Clone(),
		Trend:   c.trend(),
		History: append([]float64(nil), c.history...),
	}
}

// Fields selects which values UpdateState should change; zero-valued
// pointers leave the corresponding field untouched.
type Fields struct {
	Heat    *float64
	Entropy *float64
	SCUP    *float64
	Mood    *model.Mood
}

// Result reports the side effects of a single UpdateState call.
type Result struct {
	ThermalPeak bool // heat was clamped to the 100 ceiling this call
}

// UpdateState applies the given field changes, reclassifies the zone, and
// records the new heat into history. Heat is soft-bounded to [0,100]; an
// attempt to exceed the ceiling clamps and is reported via Result.
func (c *Controller) UpdateState(f Fields) Result {
	var res Result

	if f.Heat != nil {
		h := *f.Heat
		if h > maxHeat {
			h = maxHeat
			res.ThermalPeak = true
		}
		if h < minHeat {
			h = minHeat
		}
		c.pulse.Heat = h
	}
	if f.Entropy != nil {
		c.pulse.Entropy = util.Clamp(*f.Entropy, 0, 1)
	}
	if f.SCUP != nil {
		c.pulse.SCUP = util.Clamp(*f.SCUP, 0, 1)
	}
	if f.Mood != nil {
		c.pulse.Mood = *f.Mood
	}

	c.pulse.Zone = model.ClassifyZone(c.pulse.Heat, c.pulse.Entropy)
	c.pushHistory(c.pulse.Heat)
	return res
}

// InjectHeat adds delta degrees to the current heat, clamping to [0,100] and
// reclassifying the zone. Returns true if the ceiling was hit.
func (c *Controller) InjectHeat(delta float64) Result {
	h := c.pulse.Heat + delta
	return c.UpdateState(Fields{Heat: &h})
}

// EmergencyCooldown forces heat directly to target (used by the
// EMERGENCY_RESET sigil effect).
func (c *Controller) EmergencyCooldown(target float64) {
	h := util.Clamp(target, minHeat, maxHeat)
	c.UpdateState(Fields{Heat: &h})
}

// ScaleHeat multiplies current heat by factor, clamping to [0,100] and
// reclassifying the zone. Used by Reflex's slow_tick command to cool heat
// by 30% (factor 0.7) alongside doubling the tick interval.
func (c *Controller) ScaleHeat(factor float64) {
	h := c.pulse.Heat * factor
	c.UpdateState(Fields{Heat: &h})
}

func (c *Controller) pushHistory(heat float64) {
	c.history = append(c.history, heat)
	if len(c.history) > historyCapacity {
		c.history = c.history[len(c.history)-historyCapacity:]
	}
}

// trend classifies the last trendWindow heat samples (or all available
// samples if fewer than trendWindow are present).
func (c *Controller) trend() Trend {
	n := len(c.history)
	if n < 2 {
		return TrendStable
	}
	window := trendWindow
	if n < window {
		window = n
	}
	recent := c.history[n-window:]

	if util.StdDev(recent) > volatilityThreshold {
		return TrendVolatile
	}
	slope := util.Slope(recent)
	switch {
	case slope > slopeEpsilon:
		return TrendRising
	case slope < -slopeEpsilon:
		return TrendFalling
	default:
		return TrendStable
	}
}
