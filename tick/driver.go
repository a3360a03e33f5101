// Package tick implements the Tick Driver and Adaptive Controller: the
// central loop that runs the Core's seven tick phases in order — Sense,
// Assess pressure, Forecast, Regulate, Narrate, Record, Schedule next tick —
// and owns every other component's lifetime.
package tick

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dawnlabs/dawn-core/entropy"
	"github.com/dawnlabs/dawn-core/eventlog"
	"github.com/dawnlabs/dawn-core/forecast"
	"github.com/dawnlabs/dawn-core/memory"
	"github.com/dawnlabs/dawn-core/model"
	"github.com/dawnlabs/dawn-core/posttick"
	"github.com/dawnlabs/dawn-core/pressure"
	"github.com/dawnlabs/dawn-core/profiles"
	"github.com/dawnlabs/dawn-core/pulse"
	"github.com/dawnlabs/dawn-core/reflex"
	"github.com/dawnlabs/dawn-core/sigil"
)

// velocityWindow bounds how far back the Sigil Network looks when counting
// recently-activated sigils for the pressure engine's sigil_velocity term.
const velocityWindow = 60 * time.Second

// sigilTTL is how long a sigil registered in response to pressure stays
// active before decaying.
const sigilTTL = 45 * time.Second

// pruneCooldown is how long a decayed sigil is kept on cooldown before it
// can be registered again.
const pruneCooldown = 30 * time.Second

// stabilizeConfidenceThreshold and stabilizeEntropyThreshold gate the
// STABILIZE_PROTOCOL sigil: a high-confidence forecast paired with rising
// entropy, independent of the Cognitive Pressure Engine's own level.
const (
	stabilizeConfidenceThreshold = 0.8
	stabilizeEntropyThreshold    = 0.6

	// entropyRegulationThreshold gates ENTROPY_REGULATION directly off an
	// entropy spike, independent of pressure level.
	entropyRegulationThreshold = 0.9
)

// criticalPressureSigil is the one built-in sigil still keyed off the
// Cognitive Pressure Engine's own level, registered in addition to (not
// instead of) the confidence/entropy-threshold rules above.
const criticalPressureSigil = "EMERGENCY_RESET"

// Stimulus is the Sense phase's input for one tick: an optional memory
// chunk's raw material plus the global entropy/heat samples for the tick.
// Every field is optional; a zero-valued Stimulus still runs a full tick
// against whatever the Core's internal state already holds.
type Stimulus struct {
	Content string
	Speaker model.Speaker
	Topic   string
	Sigils  []string

	EntropySample float64 // 0..1, this tick's global entropy reading
	HeatDelta     float64 // added to current heat before entropy/pressure assessment

	Passion           model.Passion
	AcquaintanceDelta float64 // added to the running acquaintance total
}

// Core owns every cognitive component and drives them through one ordered
// tick. It is not safe for concurrent use; Run serializes tick execution
// through a single goroutine, mirroring the Tick Driver's single-writer
// contract over pulse, memory, and sigil state.
type Core struct {
	Pulse    *pulse.Controller
	Entropy  *entropy.Analyzer
	Memory   *memory.Router
	Forecast *forecast.Engine
	Sigils   *sigil.Engine
	Reflex   *reflex.Executor
	Pressure *pressure.Engine
	Log      *eventlog.Log

	profile  profiles.Profile
	interval time.Duration

	tickNum      uint64
	lastTick     time.Time
	acquaintance model.Acquaintance

	lastForecast   model.ForecastResult
	lastReflection string
}

// New creates a fully-wired Core using the given profile and event log. The
// caller owns the log's lifetime (including attaching a writer) and should
// Close it after the Core stops ticking.
func New(profile profiles.Profile, log *eventlog.Log) *Core {
	sigils := sigil.New()
	pulseCtl := pulse.New()
	memRouter := memory.NewRouter()
	memRouter.SetImportanceThreshold(profile.ImportanceThreshold)

	return &Core{
		Pulse:    pulseCtl,
		Entropy:  entropy.New(),
		Memory:   memRouter,
		Forecast: forecast.New(),
		Sigils:   sigils,
		Reflex:   reflex.New(sigils, pulseCtl),
		Pressure: pressure.New(),
		Log:      log,
		profile:  profile,
		interval: time.Duration(profile.MinInterval * float64(time.Second)),
	}
}

// TickResult is the full record of one tick's seven-phase pass, returned
// for callers (the snapshot viewer, `dawn run`'s stdout summary, tests) that
// want more than the event log gives them.
type TickResult struct {
	Tick      uint64
	Timestamp time.Time

	Pulse      model.PulseSnapshot
	Trend      string
	Entropy    entropy.Analysis
	Pressure   pressure.Score
	Forecast   posttick.ExtendedForecast
	Reflection string
	Rebloom    *posttick.RebloomEvent

	RoutedChunk *model.MemoryChunk
	RouteError  error

	ReflexResults map[reflex.Command]reflex.Result
	ActiveSigils  []model.Sigil

	// ActionsTaken lists the discrete interventions this tick applied —
	// e.g. "stabilization_triggered", "entropy_regulation_triggered",
	// "rebloom_triggered" — or exactly ["error_recovery"] if a phase
	// panicked and was recovered instead of completing normally.
	ActionsTaken []string

	NextInterval time.Duration
	Events       []model.Event

	// PerfCounters records wall-clock time spent in each of the seven
	// phases, keyed by phase name, the way original_source/core/tick_loop.py
	// keeps a per-phase timing dict for its own adaptive controller.
	PerfCounters map[string]time.Duration
}

// Tick runs the seven ordered phases once against stim and now, mutating
// every owned component exactly once, and returns the full result. A panic
// in any phase is recovered here and reported as a minimal TickResult whose
// only action is "error_recovery", mirroring
// original_source/core/tick_loop.py's tick-level try/except fallback —
// the driver never lets a phase failure reach the event loop.
func (c *Core) Tick(stim Stimulus, now time.Time) (result TickResult) {
	tickNum := c.tickNum + 1
	defer func() {
		if r := recover(); r != nil {
			result = c.errorRecoveryResult(tickNum, now, r)
		}
	}()
	return c.tick(stim, now)
}

// errorRecoveryResult builds the minimal TickResult returned when a phase
// panics mid-tick: it reports the tick number the failed attempt would have
// had, a best-effort snapshot of pulse state, and nothing else, since the
// phases after the failure point never ran.
func (c *Core) errorRecoveryResult(tickNum uint64, now time.Time, r interface{}) TickResult {
	c.tickNum = tickNum
	c.lastTick = now
	return TickResult{
		Tick:         tickNum,
		Timestamp:    now,
		Pulse:        c.Pulse.CurrentState().Pulse,
		RouteError:   fmt.Errorf("tick %d panicked: %v", tickNum, r),
		ActionsTaken: []string{"error_recovery"},
		NextInterval: c.interval,
		PerfCounters: map[string]time.Duration{},
	}
}

// tick runs the seven ordered phases once against stim and now.
func (c *Core) tick(stim Stimulus, now time.Time) TickResult {
	c.tickNum++
	tickNum := c.tickNum

	deltaTime := now.Sub(c.lastTick).Seconds()
	if c.lastTick.IsZero() || deltaTime <= 0 {
		deltaTime = c.interval.Seconds()
	}
	c.lastTick = now

	var events []model.Event
	perf := make(map[string]time.Duration, 7)
	phaseStart := time.Now()
	mark := func(phase string) {
		perf[phase] = time.Since(phaseStart)
		phaseStart = time.Now()
	}

	// --- 1. Sense ---
	if stim.HeatDelta != 0 {
		c.Pulse.InjectHeat(stim.HeatDelta)
	}
	entropySample := stim.EntropySample
	if entropySample == 0 {
		entropySample = c.Pulse.CurrentState().Pulse.Entropy
	}
	c.Pulse.UpdateState(pulse.Fields{Entropy: &entropySample})
	entropyAnalysis := c.Entropy.Analyze(entropySample)

	var routedChunk *model.MemoryChunk
	var routeErr error
	if stim.Content != "" {
		snapshot := c.Pulse.CurrentState().Pulse
		chunk := model.NewMemoryChunk(stim.Content, now, stim.Speaker, stim.Topic, snapshot, stim.Sigils)
		routed, _, err := c.Memory.Route(chunk)
		if err != nil {
			routeErr = err
		} else {
			routedChunk = &routed
			events = append(events, model.Event{
				Type:      model.EventMemory,
				Tick:      tickNum,
				Timestamp: now,
				Payload: map[string]interface{}{
					"memory_id": routed.ID,
					"topic":     routed.Topic,
					"speaker":   routed.Speaker.String(),
				},
			})
		}
	}

	state := c.Pulse.CurrentState()
	mark("sense")

	// --- 2. Assess pressure ---
	c.Pressure.Decay(deltaTime)
	sigilVelocity := c.Sigils.Velocity(now, velocityWindow)
	pressureScore := c.Pressure.Compute(sigilVelocity, state.Pulse.Heat, state.Pulse.Entropy)
	mark("assess_pressure")

	// --- 3. Forecast ---
	c.acquaintance.Delta = stim.AcquaintanceDelta
	c.acquaintance.Total += stim.AcquaintanceDelta
	extended := posttick.ComputeExtended(posttick.ExtendedForecastInput{
		Passion:      stim.Passion,
		Acquaintance: c.acquaintance,
		Pulse:        state.Pulse,
		DeltaTime:    deltaTime,
	}, c.Forecast)
	mark("forecast")

	// --- 4. Regulate ---
	var actionsTaken []string

	reflexCmds := make([]reflex.Command, 0, 3)
	for _, s := range pressure.Commands(pressureScore.Level) {
		reflexCmds = append(reflexCmds, reflex.Command(s))
	}
	reflexResults, nextIntervalAfterReflex := c.Reflex.Execute(reflexCmds, c.interval, now)
	for cmd, res := range reflexResults {
		events = append(events, reflex.ToEvent(cmd, res, now))
	}

	registerRegulationSigil := func(name, source, action string) {
		reg := c.Sigils.Register(name, source, now, sigilTTL)
		if len(reg.Registered) == 0 {
			return
		}
		actionsTaken = append(actionsTaken, action)
		for _, s := range reg.Registered {
			sigState := &sigil.State{Pulse: c.Pulse}
			evt, err := sigil.RunEffect(s.Name, sigState, now)
			if err == nil {
				evt.Tick = tickNum
				events = append(events, evt)
			}
		}
	}

	// High-confidence forecast plus rising entropy calls for stabilization,
	// independent of the Cognitive Pressure Engine's own level.
	if extended.Result.F > stabilizeConfidenceThreshold && state.Pulse.Entropy > stabilizeEntropyThreshold {
		registerRegulationSigil("STABILIZE_PROTOCOL", "high_confidence_entropy", "stabilization_triggered")
	}
	// An outright entropy spike calls for regulation regardless of forecast
	// confidence or pressure level.
	if state.Pulse.Entropy > entropyRegulationThreshold {
		registerRegulationSigil("ENTROPY_REGULATION", "entropy_spike", "entropy_regulation_triggered")
	}
	if pressureScore.Level == model.PressureCritical {
		registerRegulationSigil(criticalPressureSigil, "pressure_engine", "emergency_reset_triggered")
	}

	pruned := c.Sigils.Prune(now, pruneCooldown)
	if len(pruned) > 0 {
		events = append(events, model.Event{
			Type:      model.EventSigil,
			Tick:      tickNum,
			Timestamp: now,
			Payload:   map[string]interface{}{"pruned": pruned},
		})
	}
	activeSigils := c.Sigils.Active(now)
	mark("regulate")

	// --- 5. Narrate ---
	postState := c.Pulse.CurrentState()
	tierStats := c.Memory.Stats()
	reflectionInput := posttick.ReflectionInput{
		Pulse:      postState.Pulse,
		Trend:      string(postState.Trend),
		TierStats:  tierStats,
		Warning:    entropyAnalysis.WarningTriggered,
		Volatility: entropyAnalysis.Volatility,
	}
	reflectionText := posttick.Reflect(reflectionInput)
	events = append(events, posttick.ReflectionEvent(tickNum, now, reflectionText, reflectionInput))

	hotChunks := make([]entropy.HotChunk, 0, len(c.Memory.RecentChunks()))
	for _, chunk := range c.Memory.RecentChunks() {
		hotChunks = append(hotChunks, entropy.HotChunk{ID: chunk.ID, Entropy: chunk.Pulse.Entropy})
	}
	hotBloomIDs := entropy.HotBloom(hotChunks, c.profile.HotBloomTopK)

	rebloom := posttick.EvaluateRebloom(posttick.RebloomInput{
		Pulse:       postState.Pulse,
		Trend:       string(postState.Trend),
		HotBloomIDs: hotBloomIDs,
	}, uuid.NewString)
	if rebloom != nil {
		c.Pressure.RecordBloom(rebloom.Mass)
		events = append(events, rebloom.ToEvent(tickNum, now))
		actionsTaken = append(actionsTaken, "rebloom_triggered")
	}
	mark("narrate")

	// --- 6. Record ---
	events = append(events, model.Event{
		Type:      model.EventState,
		Tick:      tickNum,
		Timestamp: now,
		Payload: map[string]interface{}{
			"heat":           postState.Pulse.Heat,
			"entropy":        postState.Pulse.Entropy,
			"scup":           postState.Pulse.SCUP,
			"zone":           postState.Pulse.Zone.String(),
			"mood":           postState.Pulse.Mood.String(),
			"trend":          string(postState.Trend),
			"pressure":       pressureScore.Value,
			"pressure_level": pressureScore.Level.String(),
		},
	})
	for _, e := range events {
		c.Log.Append(e)
	}
	mark("record")

	// --- 7. Schedule next tick ---
	cognitiveLoad := 0.0
	if tierStats.RecentCount > 0 {
		cognitiveLoad = float64(tierStats.WorkingCount) / 50.0
	}
	nextSeconds := NextInterval(nextIntervalAfterReflex.Seconds(), AdaptiveInputs{
		CognitiveLoad: cognitiveLoad,
		PressureValue: pressureScore.Value,
		Entropy:       postState.Pulse.Entropy,
		Heat:          postState.Pulse.Heat,
	})
	nextSeconds = clampToProfile(nextSeconds, c.profile)
	c.interval = time.Duration(nextSeconds * float64(time.Second))

	c.lastForecast = extended.Result
	c.lastReflection = reflectionText
	mark("schedule")

	return TickResult{
		Tick:          tickNum,
		Timestamp:     now,
		Pulse:         postState.Pulse,
		Trend:         string(postState.Trend),
		Entropy:       entropyAnalysis,
		Pressure:      pressureScore,
		Forecast:      extended,
		Reflection:    reflectionText,
		Rebloom:       rebloom,
		RoutedChunk:   routedChunk,
		RouteError:    routeErr,
		ReflexResults: reflexResults,
		ActiveSigils:  activeSigils,
		ActionsTaken:  actionsTaken,
		NextInterval:  c.interval,
		Events:        events,
		PerfCounters:  perf,
	}
}

func clampToProfile(seconds float64, p profiles.Profile) float64 {
	if seconds < p.MinInterval {
		return p.MinInterval
	}
	if seconds > p.MaxInterval {
		return p.MaxInterval
	}
	return seconds
}

// Interval returns the interval the next tick will wait for, as computed by
// the previous call to Tick (or the profile's floor, before the first).
func (c *Core) Interval() time.Duration { return c.interval }

// SetInterval overrides the interval Run will next wait for, clamped to the
// active profile's bounds. Intended for startup configuration (-interval);
// the Adaptive Controller is free to move away from it on the first tick.
func (c *Core) SetInterval(d time.Duration) {
	seconds := clampToProfile(d.Seconds(), c.profile)
	c.interval = time.Duration(seconds * float64(time.Second))
}

// Runner is satisfied by both Core and Recorder, so cmd/root.go's `dawn run`
// can drive either without branching its ticking loop on whether -record was
// given.
type Runner interface {
	Run(ctx context.Context, cfg RunConfig) error
}

// RunConfig configures the Run loop.
type RunConfig struct {
	// Stimuli, if non-nil, is polled non-blockingly at the top of every
	// tick; a tick with nothing waiting runs with a zero Stimulus.
	Stimuli <-chan Stimulus
	// OnTick, if set, is called synchronously with every tick's result.
	OnTick func(TickResult)
}

// Run drives ticks until ctx is canceled, sleeping for the Adaptive
// Controller's computed interval between each one. The interval is a timer
// reset every tick rather than a fixed ticker, since it changes tick to
// tick; shutdown is cooperative via ctx, leaving signal handling to the
// caller (e.g. via signal.NotifyContext).
func (c *Core) Run(ctx context.Context, cfg RunConfig) error {
	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			var stim Stimulus
			if cfg.Stimuli != nil {
				select {
				case s, ok := <-cfg.Stimuli:
					if ok {
						stim = s
					}
				default:
				}
			}
			result := c.Tick(stim, time.Now())
			if cfg.OnTick != nil {
				cfg.OnTick(result)
			}
			timer.Reset(c.interval)
		}
	}
}

// Snapshot is the Core's read-only view for external consumers — the
// peripheral snapshot viewer, `dawn verify`, anything that must never
// mutate pulse, memory, or sigil state. It is a plain value, safe to pass
// across goroutines.
type Snapshot struct {
	Tick           uint64
	Timestamp      time.Time
	Pulse          model.PulseSnapshot
	Trend          string
	ActiveSigils   []model.Sigil
	LastForecast   model.ForecastResult
	LastReflection string
	TierStats      memory.TierStats
	EventCount     int
	DroppedEvents  int
}

// Snapshot returns the Core's current read-only state as of the last Tick
// call (or the resting baseline, before the first).
func (c *Core) Snapshot(now time.Time) Snapshot {
	state := c.Pulse.CurrentState()
	return Snapshot{
		Tick:           c.tickNum,
		Timestamp:      now,
		Pulse:          state.Pulse,
		Trend:          string(state.Trend),
		ActiveSigils:   c.Sigils.Active(now),
		LastForecast:   c.lastForecast,
		LastReflection: c.lastReflection,
		TierStats:      c.Memory.Stats(),
		EventCount:     c.Log.Len(),
		DroppedEvents:  c.Log.Dropped(),
	}
}
