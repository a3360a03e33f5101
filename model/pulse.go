package model

// Mood is a coarse affective classification attached to a pulse snapshot.
type Mood int

const (
	MoodNeutral Mood = iota
	MoodContemplative
	MoodEngaged
	MoodCritical
	MoodCurious
)

func (m Mood) String() string {
	switch m {
	case MoodNeutral:
		return "NEUTRAL"
	case MoodContemplative:
		return "CONTEMPLATIVE"
	case MoodEngaged:
		return "ENGAGED"
	case MoodCritical:
		return "CRITICAL"
	case MoodCurious:
		return "CURIOUS"
	}
	return "UNKNOWN"
}

// Zone is the discrete thermal/entropy classification of a pulse snapshot.
type Zone int

const (
	ZoneCalm Zone = iota
	ZoneActive
	ZoneSurge
	ZoneCritical
)

func (z Zone) String() string {
	switch z {
	case ZoneCalm:
		return "CALM"
	case ZoneActive:
		return "ACTIVE"
	case ZoneSurge:
		return "SURGE"
	case ZoneCritical:
		return "CRITICAL"
	}
	return "UNKNOWN"
}

// ClassifyZone applies the hysteresis-free zone rule from the heat/entropy
// pair. It is a pure function: recomputing it on the same inputs always
// yields the same zone.
func ClassifyZone(heat, entropy float64) Zone {
	switch {
	case heat < 30 && entropy < 0.4:
		return ZoneCalm
	case heat < 40 || entropy < 0.6:
		return ZoneActive
	case heat < 60 || entropy < 0.8:
		return ZoneSurge
	default:
		return ZoneCritical
	}
}

// PulseSnapshot is the numeric tuple describing the system's thermal and
// coherence state at a point in time. It is always copied, never shared by
// reference, once handed to a collaborator.
type PulseSnapshot struct {
	Heat    float64
	Entropy float64
	SCUP    float64
	Mood    Mood
	Zone    Zone
}

// Clone returns an independent copy of the snapshot.
func (p PulseSnapshot) Clone() PulseSnapshot {
	return p
}
