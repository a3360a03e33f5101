package sigil

import (
	"fmt"
	"time"

	"github.com/dawnlabs/dawn-core/model"
	"github.com/dawnlabs/dawn-core/pulse"
)

// State is the mutable surface a sigil effect is allowed to touch: the
// pulse controller only. Effects never reach into memory, forecasting, or
// the event log directly — anything else they need to influence happens
// through the state they're given here.
type State struct {
	Pulse *pulse.Controller
}

// Effect is the capability trait every built-in sigil implements: given the
// current state and the moment it fires, produce a pulse mutation (if any)
// and a describing Event.
type Effect func(s *State, now time.Time) model.Event

// effects is the name -> implementation registry built-in sigils dispatch
// through. It is populated once at init and never mutated afterward.
var effects = map[string]Effect{
	"STABILIZE_PROTOCOL":   stabilizeProtocol,
	"EXPLORATION_MODE":     explorationMode,
	"DEEP_REFLECTION":      deepReflection,
	"EMERGENCY_RESET":      emergencyReset,
	"ENTROPY_REGULATION":   entropyRegulation,
	"MEMORY_CONSOLIDATION": memoryConsolidation,
}

// RunEffect dispatches to the built-in effect implementation for name. It
// returns ErrUnknownSigil for a name with no registered handler (a sigil
// registered purely for narrative/tracking purposes, with no side effect).
func RunEffect(name string, s *State, now time.Time) (model.Event, error) {
	fn, ok := effects[name]
	if !ok {
		return model.Event{}, &ErrUnknownSigil{Name: name}
	}
	return fn(s, now), nil
}

func event(tick uint64, now time.Time, payload map[string]interface{}) model.Event {
	return model.Event{
		Type:      model.EventSigil,
		Tick:      tick,
		Timestamp: now,
		Payload:   payload,
	}
}

// stabilizeProtocol damps heat 20% toward baseline and resets mood to
// neutral, used when a cascade or operator wants the system to settle
// without a full emergency reset.
func stabilizeProtocol(s *State, now time.Time) model.Event {
	st := s.Pulse.CurrentState()
	target := st.Pulse.Heat * 0.8
	mood := model.MoodNeutral
	s.Pulse.UpdateState(pulse.Fields{Heat: &target, Mood: &mood})
	return event(0, now, map[string]interface{}{
		"sigil":  "STABILIZE_PROTOCOL",
		"action": "heat_damped_20pct",
	})
}

// explorationMode nudges heat up and mood to curious, encouraging the Core
// to range further in its next forecast/memory retrieval.
func explorationMode(s *State, now time.Time) model.Event {
	mood := model.MoodCurious
	s.Pulse.InjectHeat(5)
	s.Pulse.UpdateState(pulse.Fields{Mood: &mood})
	return event(0, now, map[string]interface{}{
		"sigil":  "EXPLORATION_MODE",
		"action": "heat_raised_mood_curious",
	})
}

// deepReflection cools slightly and sets mood to contemplative, supporting
// the Reflection post-tick trigger's introspective output.
func deepReflection(s *State, now time.Time) model.Event {
	mood := model.MoodContemplative
	s.Pulse.InjectHeat(-5)
	s.Pulse.UpdateState(pulse.Fields{Mood: &mood})
	return event(0, now, map[string]interface{}{
		"sigil":  "DEEP_REFLECTION",
		"action": "heat_lowered_mood_contemplative",
	})
}

// emergencyReset forces heat back to the resting baseline (20) and mood to
// neutral, the strongest available intervention.
func emergencyReset(s *State, now time.Time) model.Event {
	s.Pulse.EmergencyCooldown(20)
	mood := model.MoodNeutral
	s.Pulse.UpdateState(pulse.Fields{Mood: &mood})
	return event(0, now, map[string]interface{}{
		"sigil":  "EMERGENCY_RESET",
		"action": "heat_forced_to_baseline",
	})
}

// entropyRegulation lowers the tracked entropy scalar by 30%, representing
// a deliberate damping of chaotic input ahead of the next Entropy Analyzer
// pass.
func entropyRegulation(s *State, now time.Time) model.Event {
	st := s.Pulse.CurrentState()
	target := st.Pulse.Entropy * 0.7
	s.Pulse.UpdateState(pulse.Fields{Entropy: &target})
	return event(0, now, map[string]interface{}{
		"sigil":  "ENTROPY_REGULATION",
		"action": "entropy_damped_30pct",
	})
}

// memoryConsolidation has no pulse-side effect; it is a marker event the
// Memory Router's caller can watch for to trigger an out-of-band
// significant-tier review. Kept as a registered effect (rather than
// unregistered) so Register/cascade bookkeeping treats it uniformly.
func memoryConsolidation(s *State, now time.Time) model.Event {
	_ = s
	return event(0, now, map[string]interface{}{
		"sigil":  "MEMORY_CONSOLIDATION",
		"action": fmt.Sprintf("marker_at_%s", now.Format(time.RFC3339)),
	})
}
