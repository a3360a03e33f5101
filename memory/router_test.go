package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/dawnlabs/dawn-core/model"
)

func TestRouteAddsToWorkingAndRecent(t *testing.T) {
	r := NewRouter()
	c := chunk("hello", model.SpeakerUser, "", model.PulseSnapshot{}, nil)
	_, importance, err := r.Route(c)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if importance < 0 || importance > 1 {
		t.Errorf("importance = %v, want in [0,1]", importance)
	}
	stats := r.Stats()
	if stats.WorkingCount != 1 || stats.RecentCount != 1 {
		t.Errorf("Stats() = %+v, want WorkingCount=1 RecentCount=1", stats)
	}
}

func TestRoutePromotesHighImportanceToSignificant(t *testing.T) {
	r := NewRouter()
	r.SetImportanceThreshold(0.1)
	c := chunk("x", model.SpeakerCore, "breakthrough", model.PulseSnapshot{Heat: 100, Entropy: 1.0, SCUP: 0.99}, []string{"A", "B", "C"})
	stored, importance, err := r.Route(c)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if importance <= 0.1 {
		t.Fatalf("importance = %v, want above threshold 0.1 for this test to be meaningful", importance)
	}
	if !stored.AnchorLinked {
		t.Error("stored chunk AnchorLinked = false, want true once importance exceeds threshold")
	}
	if r.Stats().SignificantCount != 1 {
		t.Errorf("SignificantCount = %d, want 1", r.Stats().SignificantCount)
	}
}

func TestRouteSetsTracedWhenSigilsPresent(t *testing.T) {
	r := NewRouter()
	c := chunk("x", model.SpeakerUser, "", model.PulseSnapshot{}, []string{"EXPLORATION_MODE"})
	stored, _, err := r.Route(c)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if !stored.Traced {
		t.Error("Traced = false, want true when chunk carries sigils")
	}
}

func TestRouteRejectsContentMismatchForSameID(t *testing.T) {
	r := NewRouter()
	now := time.Now()
	c1 := model.NewMemoryChunk("original", now, model.SpeakerUser, "", model.PulseSnapshot{}, nil)
	if _, _, err := r.Route(c1); err != nil {
		t.Fatalf("first Route() error = %v", err)
	}
	// Force the same ID with different content.
	c2 := c1
	c2.Content = "tampered"
	_, _, err := r.Route(c2)
	if err == nil {
		t.Fatal("Route() with mismatched content for existing ID returned nil error")
	}
	if _, ok := err.(*DuplicateContentMismatchError); !ok {
		t.Errorf("error type = %T, want *DuplicateContentMismatchError", err)
	}
}

func TestWorkingTierEvictsOldestPastCapacity(t *testing.T) {
	r := NewRouter()
	for i := 0; i < workingCapacity+10; i++ {
		c := chunk(fmt.Sprintf("msg-%d", i), model.SpeakerUser, "", model.PulseSnapshot{}, nil)
		if _, _, err := r.Route(c); err != nil {
			t.Fatalf("Route() error = %v", err)
		}
	}
	if got := r.Stats().WorkingCount; got != workingCapacity {
		t.Errorf("WorkingCount = %d, want capped at %d", got, workingCapacity)
	}
}

func TestSignificantTierEvictsLowestImportance(t *testing.T) {
	r := NewRouter()
	r.SetImportanceThreshold(0.04)
	cap := significantCapacity(recentCapacity)
	// Fill to capacity with low-but-above-threshold importance chunks.
	for i := 0; i < cap; i++ {
		c := chunk(fmt.Sprintf("low-%d", i), model.SpeakerUser, "", model.PulseSnapshot{Heat: 10, Entropy: 0.1, SCUP: 0.5}, nil)
		if _, _, err := r.Route(c); err != nil {
			t.Fatalf("Route() error = %v", err)
		}
	}
	if r.Stats().SignificantCount != cap {
		t.Fatalf("SignificantCount = %d, want %d before the high-importance insert", r.Stats().SignificantCount, cap)
	}
	// Now insert a clearly higher-importance chunk; it should evict the
	// current lowest rather than grow the tier past capacity.
	high := chunk("high", model.SpeakerCore, "breakthrough", model.PulseSnapshot{Heat: 100, Entropy: 1.0, SCUP: 0.99}, []string{"A", "B", "C"})
	_, _, err := r.Route(high)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if got := r.Stats().SignificantCount; got != cap {
		t.Errorf("SignificantCount after overflow insert = %d, want still capped at %d", got, cap)
	}
}

func TestUnsavedChunksAndMarkSaved(t *testing.T) {
	r := NewRouter()
	c := chunk("x", model.SpeakerUser, "", model.PulseSnapshot{}, nil)
	if _, _, err := r.Route(c); err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if got := r.UnsavedChunks(); len(got) != 1 {
		t.Fatalf("UnsavedChunks() = %v, want 1 entry", got)
	}
	r.MarkSaved()
	if got := r.UnsavedChunks(); len(got) != 0 {
		t.Errorf("UnsavedChunks() after MarkSaved = %v, want empty", got)
	}
}

type fakeMirror struct {
	upserted []model.MemoryChunk
}

func (m *fakeMirror) Upsert(c model.MemoryChunk) error {
	m.upserted = append(m.upserted, c)
	return nil
}

func TestRouteCallsMirrorBestEffort(t *testing.T) {
	r := NewRouter()
	m := &fakeMirror{}
	r.SetMirror(m)
	c := chunk("x", model.SpeakerUser, "", model.PulseSnapshot{}, nil)
	if _, _, err := r.Route(c); err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if len(m.upserted) != 1 {
		t.Errorf("mirror.Upsert called %d times, want 1", len(m.upserted))
	}
}

func TestRetrieveZeroMaxResultsReturnsNil(t *testing.T) {
	r := NewRouter()
	c := chunk("find me", model.SpeakerUser, "", model.PulseSnapshot{}, nil)
	r.Route(c)
	if got := r.Retrieve("find", nil, 0, time.Now()); got != nil {
		t.Errorf("Retrieve(maxResults=0) = %v, want nil", got)
	}
}

func TestRetrieveRanksExactContentMatchHighest(t *testing.T) {
	r := NewRouter()
	now := time.Now()
	r.Route(model.NewMemoryChunk("the quick brown fox", now, model.SpeakerUser, "", model.PulseSnapshot{}, nil))
	r.Route(model.NewMemoryChunk("something entirely unrelated", now, model.SpeakerUser, "", model.PulseSnapshot{}, nil))

	got := r.Retrieve("quick brown fox", nil, 5, now)
	if len(got) == 0 {
		t.Fatal("Retrieve() returned no results")
	}
	if got[0].Content != "the quick brown fox" {
		t.Errorf("top result = %q, want the exact-match chunk", got[0].Content)
	}
}

func TestRetrieveDedupesAcrossTiers(t *testing.T) {
	r := NewRouter()
	r.SetImportanceThreshold(0.0) // force promotion into Significant too
	now := time.Now()
	c := chunk("shared across tiers", model.SpeakerUser, "", model.PulseSnapshot{Heat: 50, Entropy: 0.5, SCUP: 0.5}, nil)
	r.Route(c)

	got := r.Retrieve("shared across tiers", nil, 10, now)
	count := 0
	for _, m := range got {
		if m.Content == "shared across tiers" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Retrieve() returned the chunk %d times, want exactly 1 (deduped across tiers)", count)
	}
}
