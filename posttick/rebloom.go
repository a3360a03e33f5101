package posttick

import (
	"time"

	"github.com/google/uuid"

	"github.com/dawnlabs/dawn-core/model"
)

// RebloomKind identifies which rule fired.
type RebloomKind string

const (
	RebloomCreative  RebloomKind = "CREATIVE_REBLOOM"
	RebloomThermal   RebloomKind = "THERMAL_REBLOOM"
	RebloomStability RebloomKind = "STABILITY_REBLOOM"
)

// RebloomInput bundles the tick state the evaluator reads.
type RebloomInput struct {
	Pulse       model.PulseSnapshot
	Trend       string
	HotBloomIDs []string // chunk ids flagged by the Entropy Analyzer this tick
}

// RebloomEvent is an evaluated rebloom trigger, ready to log and to seed
// bloom mass into the Cognitive Pressure Engine.
type RebloomEvent struct {
	ID      string
	Kind    RebloomKind
	Mass    float64
	SourceIDs []string
}

// rebloomRule is one candidate trigger, checked in priority order; the
// first matching rule fires (a tick reblooms for at most one reason).
type rebloomRule struct {
	kind func(RebloomInput) bool
	mass func(RebloomInput) float64
	name RebloomKind
}

var rebloomRules = []rebloomRule{
	{
		name: RebloomThermal,
		kind: func(r RebloomInput) bool { return r.Pulse.Zone == model.ZoneCritical || r.Pulse.Zone == model.ZoneSurge },
		mass: func(r RebloomInput) float64 { return r.Pulse.Heat / 10 },
	},
	{
		name: RebloomStability,
		kind: func(r RebloomInput) bool { return r.Trend == "volatile" },
		mass: func(r RebloomInput) float64 { return 5.0 },
	},
	{
		name: RebloomCreative,
		kind: func(r RebloomInput) bool { return len(r.HotBloomIDs) > 0 && r.Pulse.Mood == model.MoodCurious },
		mass: func(r RebloomInput) float64 { return float64(len(r.HotBloomIDs)) * 2 },
	},
}

// EvaluateRebloom checks each rule in priority order and returns the first
// that fires, or nil if the tick doesn't warrant a rebloom. newID is called
// to mint the event's ID; production callers pass uuid.NewString.
func EvaluateRebloom(in RebloomInput, newID func() string) *RebloomEvent {
	for _, rule := range rebloomRules {
		if rule.kind(in) {
			return &RebloomEvent{
				ID:        newID(),
				Kind:      rule.name,
				Mass:      rule.mass(in),
				SourceIDs: append([]string(nil), in.HotBloomIDs...),
			}
		}
	}
	return nil
}

// NewRebloomID mints a random rebloom event ID.
func NewRebloomID() string { return uuid.NewString() }

// ToEvent converts a RebloomEvent into an event-log record.
func (e *RebloomEvent) ToEvent(tick uint64, now time.Time) model.Event {
	return model.Event{
		Type:      model.EventRebloom,
		Tick:      tick,
		Timestamp: now,
		Payload: map[string]interface{}{
			"rebloom_id": e.ID,
			"kind":       string(e.Kind),
			"mass":       e.Mass,
			"source_ids": e.SourceIDs,
		},
	}
}
