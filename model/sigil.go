package model

import "time"

// Sigil is a named regulatory intent with an activation window and optional
// cascade links to sigils it may in turn activate.
type Sigil struct {
	Name         string
	Source       string
	ActivatedAt  time.Time
	DecayAt      time.Time
	CascadeLinks []string
}

// Active reports whether the sigil has not yet decayed at instant now.
func (s Sigil) Active(now time.Time) bool {
	return now.Before(s.DecayAt)
}
