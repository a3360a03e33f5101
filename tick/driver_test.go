package tick

import (
	"testing"
	"time"

	"github.com/dawnlabs/dawn-core/eventlog"
	"github.com/dawnlabs/dawn-core/memory"
	"github.com/dawnlabs/dawn-core/model"
	"github.com/dawnlabs/dawn-core/profiles"
	"github.com/dawnlabs/dawn-core/reflex"
)

func newTestCore() *Core {
	return New(profiles.Get("default"), eventlog.New())
}

func TestNewCoreStartsAtProfileMinInterval(t *testing.T) {
	c := newTestCore()
	want := time.Duration(profiles.Get("default").MinInterval * float64(time.Second))
	if c.Interval() != want {
		t.Errorf("Interval() = %v, want %v", c.Interval(), want)
	}
}

func TestTickIncrementsTickNumber(t *testing.T) {
	c := newTestCore()
	now := time.Now()
	r1 := c.Tick(Stimulus{}, now)
	r2 := c.Tick(Stimulus{}, now.Add(time.Second))
	if r1.Tick != 1 || r2.Tick != 2 {
		t.Errorf("Tick numbers = %d, %d, want 1, 2", r1.Tick, r2.Tick)
	}
}

func TestTickRoutesStimulusContent(t *testing.T) {
	c := newTestCore()
	now := time.Now()
	result := c.Tick(Stimulus{Content: "hello world", Speaker: model.SpeakerUser, Topic: "greeting"}, now)
	if result.RouteError != nil {
		t.Fatalf("RouteError = %v, want nil", result.RouteError)
	}
	if result.RoutedChunk == nil {
		t.Fatal("RoutedChunk = nil, want a routed chunk")
	}
	if result.RoutedChunk.Content != "hello world" {
		t.Errorf("RoutedChunk.Content = %q, want %q", result.RoutedChunk.Content, "hello world")
	}
	if c.Memory.Stats().RecentCount != 1 {
		t.Errorf("RecentCount = %d, want 1", c.Memory.Stats().RecentCount)
	}
}

func TestTickWithEmptyStimulusRoutesNothing(t *testing.T) {
	c := newTestCore()
	result := c.Tick(Stimulus{}, time.Now())
	if result.RoutedChunk != nil {
		t.Errorf("RoutedChunk = %+v, want nil for empty stimulus", result.RoutedChunk)
	}
}

func TestTickAppendsEventsToLog(t *testing.T) {
	c := newTestCore()
	result := c.Tick(Stimulus{Content: "a note"}, time.Now())
	if c.Log.Len() != len(result.Events) {
		t.Errorf("Log.Len() = %d, want %d matching returned Events", c.Log.Len(), len(result.Events))
	}
	if len(result.Events) == 0 {
		t.Error("Tick produced no events, want at least a STATE and a REFLECTION event")
	}
}

func TestTickPerfCountersCoverAllSevenPhases(t *testing.T) {
	c := newTestCore()
	result := c.Tick(Stimulus{}, time.Now())
	want := []string{"sense", "assess_pressure", "forecast", "regulate", "narrate", "record", "schedule"}
	for _, phase := range want {
		if _, ok := result.PerfCounters[phase]; !ok {
			t.Errorf("PerfCounters missing phase %q", phase)
		}
	}
	if len(result.PerfCounters) != len(want) {
		t.Errorf("PerfCounters has %d entries, want %d", len(result.PerfCounters), len(want))
	}
}

func TestTickNextIntervalStaysWithinProfileBounds(t *testing.T) {
	c := newTestCore()
	p := profiles.Get("default")
	result := c.Tick(Stimulus{HeatDelta: 90, EntropySample: 0.99}, time.Now())
	seconds := result.NextInterval.Seconds()
	if seconds < p.MinInterval || seconds > p.MaxInterval {
		t.Errorf("NextInterval = %v, want within [%v, %v]", seconds, p.MinInterval, p.MaxInterval)
	}
}

func TestTickSevereThermalSpikeTriggersReflexAndSigilCascade(t *testing.T) {
	c := newTestCore()
	now := time.Now()
	result := c.Tick(Stimulus{HeatDelta: 80, EntropySample: 0.95}, now)

	// Heat 100 / entropy 0.95 is CRITICAL during Sense, but ENTROPY_REGULATION
	// damps entropy to 0.665 in Regulate, so the reported post-regulation
	// zone is SURGE.
	if result.Pulse.Zone != model.ZoneSurge {
		t.Fatalf("Zone = %v, want ZoneSurge after ENTROPY_REGULATION damps a severe heat/entropy spike", result.Pulse.Zone)
	}
	if result.Pressure.Level != model.PressureElevated {
		t.Fatalf("Pressure.Level = %v, want Elevated", result.Pressure.Level)
	}
	if _, ok := result.ReflexResults[reflex.CommandSuppressRebloom]; !ok {
		t.Errorf("ReflexResults = %v, want suppress_rebloom to have fired", result.ReflexResults)
	}

	names := make(map[string]bool)
	for _, s := range result.ActiveSigils {
		names[s.Name] = true
	}
	if !names["ENTROPY_REGULATION"] {
		t.Errorf("ActiveSigils = %v, want ENTROPY_REGULATION registered from the entropy spike", result.ActiveSigils)
	}
	if !names["MEMORY_CONSOLIDATION"] {
		t.Errorf("ActiveSigils = %v, want MEMORY_CONSOLIDATION cascaded in from ENTROPY_REGULATION", result.ActiveSigils)
	}
	actions := make(map[string]bool)
	for _, a := range result.ActionsTaken {
		actions[a] = true
	}
	if !actions["entropy_regulation_triggered"] {
		t.Errorf("ActionsTaken = %v, want entropy_regulation_triggered", result.ActionsTaken)
	}
	if !actions["rebloom_triggered"] {
		t.Errorf("ActionsTaken = %v, want rebloom_triggered from the critical/surge-zone thermal rebloom rule", result.ActionsTaken)
	}
}

func TestTickHighConfidenceForecastWithEntropyTriggersStabilization(t *testing.T) {
	c := newTestCore()
	now := time.Now()
	result := c.Tick(Stimulus{
		HeatDelta:         80,
		EntropySample:     0.65,
		Passion:           model.Passion{Centrality: 1},
		AcquaintanceDelta: 0.1,
	}, now)

	if result.Forecast.Result.F <= stabilizeConfidenceThreshold {
		t.Fatalf("Forecast.Result.F = %v, want > %v for this scenario", result.Forecast.Result.F, stabilizeConfidenceThreshold)
	}

	actions := make(map[string]bool)
	for _, a := range result.ActionsTaken {
		actions[a] = true
	}
	if !actions["stabilization_triggered"] {
		t.Errorf("ActionsTaken = %v, want stabilization_triggered", result.ActionsTaken)
	}

	names := make(map[string]bool)
	for _, s := range result.ActiveSigils {
		names[s.Name] = true
	}
	if !names["STABILIZE_PROTOCOL"] {
		t.Errorf("ActiveSigils = %v, want STABILIZE_PROTOCOL registered", result.ActiveSigils)
	}
}

func TestTickPanicInAPhaseRecoversAsErrorAction(t *testing.T) {
	c := newTestCore()
	c.Memory = nil // forces a nil-pointer panic once the Sense phase routes content
	now := time.Now()

	result := c.Tick(Stimulus{Content: "this will panic routing through a nil Memory Router"}, now)

	if len(result.ActionsTaken) != 1 || result.ActionsTaken[0] != "error_recovery" {
		t.Fatalf("ActionsTaken = %v, want exactly [error_recovery]", result.ActionsTaken)
	}
	if result.RouteError == nil {
		t.Error("RouteError = nil, want a non-nil error describing the panic")
	}
	if result.Tick != 1 {
		t.Errorf("Tick = %d, want 1 even though the tick panicked", result.Tick)
	}

	// The Core must remain usable after a recovered panic: a subsequent
	// tick with a healthy Memory Router should succeed normally.
	c.Memory = memory.NewRouter()
	next := c.Tick(Stimulus{}, now.Add(time.Second))
	if next.Tick != 2 {
		t.Errorf("Tick after recovery = %d, want 2", next.Tick)
	}
	if len(next.ActionsTaken) == 1 && next.ActionsTaken[0] == "error_recovery" {
		t.Error("tick after recovery still reports error_recovery, want a normal tick")
	}
}

func TestTickIdenticalContentAndTimestampRoutesWithoutError(t *testing.T) {
	c := newTestCore()
	now := time.Now()
	c.Tick(Stimulus{Content: "same content"}, now)
	result := c.Tick(Stimulus{Content: "same content"}, now)
	if result.RouteError != nil {
		t.Errorf("RouteError = %v, want nil for an idempotent re-route of identical content+timestamp", result.RouteError)
	}
}

func TestSnapshotReflectsLastTickState(t *testing.T) {
	c := newTestCore()
	now := time.Now()
	c.Tick(Stimulus{Content: "x"}, now)
	snap := c.Snapshot(now)
	if snap.Tick != 1 {
		t.Errorf("Snapshot().Tick = %d, want 1", snap.Tick)
	}
	if snap.TierStats.RecentCount != 1 {
		t.Errorf("Snapshot().TierStats.RecentCount = %d, want 1", snap.TierStats.RecentCount)
	}
	if snap.EventCount != c.Log.Len() {
		t.Errorf("Snapshot().EventCount = %d, want %d", snap.EventCount, c.Log.Len())
	}
}

func TestSetIntervalClampsToProfileBounds(t *testing.T) {
	c := newTestCore()
	p := profiles.Get("default")
	c.SetInterval(time.Duration(p.MaxInterval*2) * time.Second)
	if c.Interval().Seconds() != p.MaxInterval {
		t.Errorf("Interval() after SetInterval beyond max = %v, want clamped to %v", c.Interval().Seconds(), p.MaxInterval)
	}
}
