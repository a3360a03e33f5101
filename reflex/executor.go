// Package reflex implements the Reflex Executor: a small set of reversible
// system interventions (slow the tick, suppress rebloom, prune sigils)
// driven by schema commands from the Cognitive Pressure Engine.
package reflex

import (
	"fmt"
	"time"

	"github.com/dawnlabs/dawn-core/model"
	"github.com/dawnlabs/dawn-core/pulse"
	"github.com/dawnlabs/dawn-core/sigil"
)

// slowTickCoolFactor is how much slow_tick cools heat by (a 30% reduction)
// alongside doubling the tick interval.
const slowTickCoolFactor = 0.7

// Command is one of the reflex directives the Executor understands.
type Command string

const (
	CommandSlowTick        Command = "slow_tick"
	CommandSuppressRebloom Command = "suppress_rebloom"
	CommandPruneSigils     Command = "prune_sigils"
	CommandClearSigilRing  Command = "clear_sigil_ring"
	CommandRestoreNormal   Command = "restore_normal_operation"
)

// suppressionCooldown is how long suppress_rebloom keeps active sigils on
// cooldown unless restore_normal_operation clears it first; prune_sigils
// uses the same duration as the cooldown for pruned sigils.
const suppressionCooldown = 30 * time.Second

// Result is the outcome of a single command, mirroring the
// status/action/message shape every reflex command reports.
type Result struct {
	Status  string
	Action  string
	Message string
}

// Executor holds the reversible-intervention state: whether rebloom
// suppression is active and, if slow_tick has been invoked, the interval
// to restore on restore_normal_operation. Multiple slow_tick calls push
// onto a stack so nested interventions unwind in the right order.
type Executor struct {
	sigils *sigil.Engine
	pulse  *pulse.Controller

	suppressionActive bool
	baselineIntervals []time.Duration // stack; top is most recent slow_tick's pre-call interval
}

// New creates an executor bound to the given sigil engine and pulse
// controller. The sigil engine and pulse controller are the only
// subsystems Reflex mutates directly; tick interval changes are reported
// back to the caller via Result/Execute rather than applied here, since the
// Executor has no reference to the Tick Driver.
func New(sigils *sigil.Engine, pulseCtl *pulse.Controller) *Executor {
	return &Executor{sigils: sigils, pulse: pulseCtl}
}

// Execute runs each command in order against the given current tick
// interval, returning one Result per command and the (possibly adjusted)
// interval the Tick Driver should adopt afterward.
func (e *Executor) Execute(commands []Command, currentInterval time.Duration, now time.Time) (map[Command]Result, time.Duration) {
	results := make(map[Command]Result, len(commands))
	interval := currentInterval

	for _, cmd := range commands {
		switch cmd {
		case CommandSlowTick:
			interval, results[cmd] = e.slowTick(interval)
		case CommandSuppressRebloom:
			results[cmd] = e.suppressRebloom(now)
		case CommandPruneSigils:
			results[cmd] = e.pruneSigils(now)
		case CommandClearSigilRing:
			results[cmd] = e.clearSigilRing()
		case CommandRestoreNormal:
			interval, results[cmd] = e.restoreNormalOperation(interval)
		default:
			results[cmd] = Result{Status: "unknown_command", Message: fmt.Sprintf("unknown reflex command: %s", cmd)}
		}
	}
	return results, interval
}

// slowTick halves the tick interval's rate (doubles its duration) and cools
// heat by 30%, pushing the pre-call interval so restore_normal_operation can
// reverse the interval half of the intervention.
func (e *Executor) slowTick(current time.Duration) (time.Duration, Result) {
	e.baselineIntervals = append(e.baselineIntervals, current)
	slowed := current * 2
	if e.pulse != nil {
		e.pulse.ScaleHeat(slowTickCoolFactor)
	}
	return slowed, Result{
		Status:  "success",
		Action:  "tick_slowed",
		Message: "tick interval doubled and heat cooled 30% for stability",
	}
}

// suppressRebloom puts every currently-active sigil on a long cooldown,
// preventing re-activation until the cooldown passes or it is restored.
func (e *Executor) suppressRebloom(now time.Time) Result {
	names := e.sigils.Names(now)
	for _, n := range names {
		e.sigils.Suppress(n, now.Add(suppressionCooldown))
	}
	e.suppressionActive = true
	return Result{
		Status:  "success",
		Action:  "rebloom_blocked",
		Message: fmt.Sprintf("suppressed %d active sigils for %s", len(names), suppressionCooldown),
	}
}

// pruneSigils removes decayed sigils from the active set, same operation
// the Tick Driver runs every tick, exposed here as an on-demand command.
func (e *Executor) pruneSigils(now time.Time) Result {
	pruned := e.sigils.Prune(now, suppressionCooldown)
	return Result{
		Status:  "success",
		Action:  "sigils_pruned",
		Message: fmt.Sprintf("pruned %d decayed sigils", len(pruned)),
	}
}

// clearSigilRing empties the active sigil set unconditionally.
func (e *Executor) clearSigilRing() Result {
	n := e.sigils.Clear()
	return Result{
		Status:  "success",
		Action:  "sigils_cleared",
		Message: fmt.Sprintf("cleared %d sigils", n),
	}
}

// restoreNormalOperation pops the most recent slow_tick interval (if any)
// and clears rebloom suppression.
func (e *Executor) restoreNormalOperation(current time.Duration) (time.Duration, Result) {
	restored := []string{}
	next := current
	if n := len(e.baselineIntervals); n > 0 {
		next = e.baselineIntervals[n-1]
		e.baselineIntervals = e.baselineIntervals[:n-1]
		restored = append(restored, "tick_interval")
	}
	if e.suppressionActive {
		e.sigils.ClearSuppression()
		e.suppressionActive = false
		restored = append(restored, "rebloom_suppression")
	}
	return next, Result{
		Status:  "success",
		Action:  "normal_operation_restored",
		Message: fmt.Sprintf("restored: %v", restored),
	}
}

// Status reports the executor's current intervention state, used by the
// snapshot viewer.
type Status struct {
	SuppressionActive bool
	PendingSlowTicks  int
}

// CurrentStatus returns a read-only snapshot of executor state.
func (e *Executor) CurrentStatus() Status {
	return Status{
		SuppressionActive: e.suppressionActive,
		PendingSlowTicks:  len(e.baselineIntervals),
	}
}

// ToEvent converts a single command result into an event-log payload.
func ToEvent(cmd Command, r Result, now time.Time) model.Event {
	return model.Event{
		Type:      model.EventSigil,
		Timestamp: now,
		Payload: map[string]interface{}{
			"reflex_command": string(cmd),
			"status":         r.Status,
			"action":         r.Action,
			"message":        r.Message,
		},
	}
}
