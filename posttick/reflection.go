// Package posttick implements the three Post-Tick Triggers: Reflection,
// Rebloom evaluation, and Extended Forecast. Each is a pure selection or
// computation over the tick's already-settled state — none of them mutate
// pulse, memory, or sigil state directly; the Tick Driver turns their
// output into sigil registrations and event-log records.
package posttick

import (
	"fmt"
	"time"

	"github.com/dawnlabs/dawn-core/memory"
	"github.com/dawnlabs/dawn-core/model"
)

// reflectionRule is one candidate reflection sentence, selected by matching
// the current state against a predicate. Rules are tried in order; first
// match wins, mirroring a narrative-template lookup.
type reflectionRule struct {
	when func(ReflectionInput) bool
	text string
}

// ReflectionInput bundles everything the Reflection trigger reads.
type ReflectionInput struct {
	Pulse      model.PulseSnapshot
	Trend      string
	TierStats  memory.TierStats
	Warning    bool
	Volatility float64
}

var reflectionRules = []reflectionRule{
	{
		when: func(r ReflectionInput) bool { return r.Pulse.Zone == model.ZoneCritical },
		text: "Cognitive load is at a critical peak; stabilization takes priority over exploration.",
	},
	{
		when: func(r ReflectionInput) bool { return r.Warning },
		text: "Entropy is climbing faster than it's settling; recent input is harder to reconcile than usual.",
	},
	{
		when: func(r ReflectionInput) bool { return r.Trend == "volatile" },
		text: "Heat has been swinging rather than trending; the system is reacting more than it is deciding.",
	},
	{
		when: func(r ReflectionInput) bool { return r.TierStats.SignificantCount > 0 && r.Pulse.Zone == model.ZoneCalm },
		text: "A handful of moments stood out enough to anchor; the rest passed through without needing to.",
	},
	{
		when: func(r ReflectionInput) bool { return r.Pulse.Mood == model.MoodCurious },
		text: "Attention is drifting outward, toward whatever hasn't been explained yet.",
	},
	{
		when: func(r ReflectionInput) bool { return r.Pulse.Mood == model.MoodContemplative },
		text: "Little new is coming in; what's already here is being turned over instead.",
	},
	{
		when: func(r ReflectionInput) bool { return r.Trend == "rising" },
		text: "Load is building gradually rather than spiking; there's still room before it matters.",
	},
	{
		when: func(r ReflectionInput) bool { return r.Trend == "falling" },
		text: "Things are settling; the last few ticks mattered more than this one will.",
	},
}

// fallbackReflection is used when no rule matches — a genuinely quiet tick.
const fallbackReflection = "Nothing in this tick asked for particular attention."

// Reflect selects a reflection sentence for the given tick state. It is a
// pure function: the same input always yields the same sentence, and it
// never reads or writes anything outside ReflectionInput.
func Reflect(in ReflectionInput) string {
	for _, rule := range reflectionRules {
		if rule.when(in) {
			return rule.text
		}
	}
	return fallbackReflection
}

// ReflectionEvent wraps a selected reflection as an event-log payload.
func ReflectionEvent(tick uint64, now time.Time, text string, in ReflectionInput) model.Event {
	return model.Event{
		Type:      model.EventReflection,
		Tick:      tick,
		Timestamp: now,
		Payload: map[string]interface{}{
			"text":    text,
			"zone":    in.Pulse.Zone.String(),
			"mood":    in.Pulse.Mood.String(),
			"trend":   in.Trend,
			"warning": in.Warning,
			"tiers":   fmt.Sprintf("working=%d recent=%d significant=%d", in.TierStats.WorkingCount, in.TierStats.RecentCount, in.TierStats.SignificantCount),
		},
	}
}
