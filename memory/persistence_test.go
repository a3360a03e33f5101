package memory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dawnlabs/dawn-core/model"
)

func TestAppendAndLoadAllRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memory.jsonl")

	now := time.Now().UTC().Truncate(time.Second)
	chunks := []model.MemoryChunk{
		model.NewMemoryChunk("first", now, model.SpeakerUser, "greeting", model.PulseSnapshot{Heat: 30, Entropy: 0.2, SCUP: 0.4}, []string{"EXPLORATION_MODE"}),
		model.NewMemoryChunk("second", now.Add(time.Second), model.SpeakerCore, "", model.PulseSnapshot{Heat: 60, Entropy: 0.6, SCUP: 0.6}, nil),
	}

	if err := Append(path, chunks); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, parseErrors, err := LoadAll(path)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if parseErrors != 0 {
		t.Errorf("parseErrors = %d, want 0", parseErrors)
	}
	if len(got) != 2 {
		t.Fatalf("LoadAll() returned %d chunks, want 2", len(got))
	}
	if got[0].Content != "first" || got[0].Speaker != model.SpeakerUser {
		t.Errorf("got[0] = %+v, want Content=first Speaker=SpeakerUser", got[0])
	}
	if got[1].Content != "second" || got[1].Speaker != model.SpeakerCore {
		t.Errorf("got[1] = %+v, want Content=second Speaker=SpeakerCore", got[1])
	}
	if len(got[0].Sigils) != 1 || got[0].Sigils[0] != "EXPLORATION_MODE" {
		t.Errorf("got[0].Sigils = %v, want [EXPLORATION_MODE]", got[0].Sigils)
	}
}

func TestLoadAllMissingFileReturnsEmpty(t *testing.T) {
	got, parseErrors, err := LoadAll(filepath.Join(t.TempDir(), "does-not-exist.jsonl"))
	if err != nil {
		t.Fatalf("LoadAll() on missing file error = %v, want nil", err)
	}
	if got != nil || parseErrors != 0 {
		t.Errorf("LoadAll() on missing file = (%v, %d), want (nil, 0)", got, parseErrors)
	}
}

func TestLoaderSkipsMalformedAndMissingFieldLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memory.jsonl")

	now := time.Now().UTC().Truncate(time.Second)
	valid := []model.MemoryChunk{
		model.NewMemoryChunk("kept", now, model.SpeakerUser, "", model.PulseSnapshot{}, nil),
	}
	if err := Append(path, valid); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := appendRaw(path, "not json\n"); err != nil {
		t.Fatalf("appendRaw() error = %v", err)
	}
	if err := appendRaw(path, `{"timestamp":"2024-01-01T00:00:00Z","speaker":"user","content":""}`+"\n"); err != nil {
		t.Fatalf("appendRaw() error = %v", err)
	}

	got, parseErrors, err := LoadAll(path)
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if parseErrors != 2 {
		t.Errorf("parseErrors = %d, want 2", parseErrors)
	}
	if len(got) != 1 || got[0].Content != "kept" {
		t.Errorf("LoadAll() = %+v, want only the valid \"kept\" chunk", got)
	}
}

func TestRouteAllReRoutesThroughTierRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memory.jsonl")

	now := time.Now().UTC().Truncate(time.Second)
	chunks := []model.MemoryChunk{
		model.NewMemoryChunk("a", now, model.SpeakerUser, "", model.PulseSnapshot{}, nil),
		model.NewMemoryChunk("b", now.Add(time.Second), model.SpeakerUser, "", model.PulseSnapshot{}, nil),
	}
	if err := Append(path, chunks); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	r := NewRouter()
	routed, parseErrors, err := RouteAll(r, path)
	if err != nil {
		t.Fatalf("RouteAll() error = %v", err)
	}
	if routed != 2 || parseErrors != 0 {
		t.Errorf("RouteAll() = (%d, %d), want (2, 0)", routed, parseErrors)
	}
	if r.Stats().RecentCount != 2 {
		t.Errorf("RecentCount after RouteAll = %d, want 2", r.Stats().RecentCount)
	}
}

func appendRaw(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}
