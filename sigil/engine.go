// Package sigil implements the Sigil Engine and Network: named regulatory
// intents that register, cascade into related sigils, decay on a TTL, and
// — for the built-in set — run a concrete effect against pulse state.
package sigil

import (
	"fmt"
	"sort"
	"time"

	"github.com/dawnlabs/dawn-core/model"
)

// maxCascadeDepth bounds how many cascade hops a single Register call may
// trigger, preventing a cascade table with a cycle from registering forever.
const maxCascadeDepth = 3

// cascadeTable lists, for a handful of built-in sigils, which other named
// sigils they pull in when registered. Cascades are a convenience for
// callers that register one high-level intent and expect its supporting
// sigils to follow; they are not required for a sigil to be valid.
var cascadeTable = map[string][]string{
	"EMERGENCY_RESET":    {"STABILIZE_PROTOCOL", "ENTROPY_REGULATION"},
	"STABILIZE_PROTOCOL": {"DEEP_REFLECTION"},
	"ENTROPY_REGULATION": {"MEMORY_CONSOLIDATION"},
}

// Engine holds the active sigil set and per-name suppression/cooldown
// state. It is the sole writer of sigil membership; Pulse and Reflex read
// or prune it but never append directly.
type Engine struct {
	active     map[string]model.Sigil
	cooldownTo map[string]time.Time
}

// New creates an empty sigil engine.
func New() *Engine {
	return &Engine{
		active:     make(map[string]model.Sigil),
		cooldownTo: make(map[string]time.Time),
	}
}

// RegisterResult reports what a Register call actually did.
type RegisterResult struct {
	Registered []model.Sigil
	Suppressed []string // names skipped because they're on cooldown
}

// Register activates name (and, recursively up to maxCascadeDepth, any
// sigils it cascades into) as of now, decaying at now+ttl. A name currently
// under cooldown is skipped and reported in Suppressed rather than
// re-armed, so a just-decayed or just-suppressed sigil cannot be
// immediately re-triggered by its own cascade.
func (e *Engine) Register(name, source string, now time.Time, ttl time.Duration) RegisterResult {
	var res RegisterResult
	visited := make(map[string]bool)
	e.registerRecursive(name, source, now, ttl, 0, visited, &res)
	return res
}

func (e *Engine) registerRecursive(name, source string, now time.Time, ttl time.Duration, depth int, visited map[string]bool, res *RegisterResult) {
	if visited[name] {
		return
	}
	visited[name] = true

	if s, ok := e.active[name]; ok && s.Active(now) {
		res.Suppressed = append(res.Suppressed, name)
		return
	}

	if until, ok := e.cooldownTo[name]; ok && now.Before(until) {
		res.Suppressed = append(res.Suppressed, name)
		return
	}

	links := append([]string(nil), cascadeTable[name]...)
	sort.Strings(links)
	s := model.Sigil{
		Name:         name,
		Source:       source,
		ActivatedAt:  now,
		DecayAt:      now.Add(ttl),
		CascadeLinks: links,
	}
	e.active[name] = s
	res.Registered = append(res.Registered, s)

	if depth >= maxCascadeDepth {
		return
	}
	for _, link := range links {
		e.registerRecursive(link, name, now, ttl, depth+1, visited, res)
	}
}

// Suppress prevents name from being (re-)registered until the given time.
// Used by the Reflex Executor's suppress_rebloom command and by sigils'
// own decay (a decayed sigil goes on a short cooldown rather than being
// immediately eligible again).
func (e *Engine) Suppress(name string, until time.Time) {
	e.cooldownTo[name] = until
}

// ClearSuppression removes every cooldown entry, used by
// restore_normal_operation.
func (e *Engine) ClearSuppression() {
	e.cooldownTo = make(map[string]time.Time)
}

// Active returns a copy of every currently-active (non-decayed) sigil.
func (e *Engine) Active(now time.Time) []model.Sigil {
	out := make([]model.Sigil, 0, len(e.active))
	for _, s := range e.active {
		if s.Active(now) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the names of every currently-active sigil, sorted.
func (e *Engine) Names(now time.Time) []string {
	active := e.Active(now)
	names := make([]string, len(active))
	for i, s := range active {
		names[i] = s.Name
	}
	return names
}

// Prune removes decayed sigils from the active set and places them on a
// brief cooldown, returning the names pruned.
func (e *Engine) Prune(now time.Time, cooldown time.Duration) []string {
	var pruned []string
	for name, s := range e.active {
		if !s.Active(now) {
			delete(e.active, name)
			e.cooldownTo[name] = now.Add(cooldown)
			pruned = append(pruned, name)
		}
	}
	sort.Strings(pruned)
	return pruned
}

// Clear empties the active set entirely (Reflex's clear_sigil_ring
// command) without touching cooldown state, and reports how many sigils
// were removed.
func (e *Engine) Clear() int {
	n := len(e.active)
	e.active = make(map[string]model.Sigil)
	return n
}

// Velocity reports the count of sigils activated within the last window,
// used by the Cognitive Pressure Engine's sigil_velocity term.
func (e *Engine) Velocity(now time.Time, window time.Duration) int {
	count := 0
	cutoff := now.Add(-window)
	for _, s := range e.active {
		if s.ActivatedAt.After(cutoff) {
			count++
		}
	}
	return count
}

// ErrUnknownSigil is returned by RunEffect for a name with no registered
// effect handler.
type ErrUnknownSigil struct{ Name string }

func (e *ErrUnknownSigil) Error() string {
	return fmt.Sprintf("sigil %q has no registered effect", e.Name)
}
