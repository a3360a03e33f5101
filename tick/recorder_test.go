package tick

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dawnlabs/dawn-core/eventlog"
	"github.com/dawnlabs/dawn-core/profiles"
)

func TestRecorderTickWritesOneLinePerTick(t *testing.T) {
	core := New(profiles.Get("default"), eventlog.New())
	var buf bytes.Buffer
	r := NewRecorder(core, &buf)

	now := time.Now()
	r.Tick(Stimulus{Content: "a"}, now)
	r.Tick(Stimulus{Content: "b"}, now.Add(time.Second))

	lines := bytes.Count(buf.Bytes(), []byte("\n"))
	if lines != 2 {
		t.Errorf("recorded %d lines, want 2", lines)
	}
	if r.LastWriteError() != nil {
		t.Errorf("LastWriteError() = %v, want nil", r.LastWriteError())
	}
}

func TestRecorderDelegatesToCoreState(t *testing.T) {
	core := New(profiles.Get("default"), eventlog.New())
	var buf bytes.Buffer
	r := NewRecorder(core, &buf)

	result := r.Tick(Stimulus{Content: "x"}, time.Now())
	if result.Tick != 1 {
		t.Errorf("Tick = %d, want 1", result.Tick)
	}
	if core.Memory.Stats().RecentCount != 1 {
		t.Errorf("wrapped core's RecentCount = %d, want 1 (recorder must not bypass routing)", core.Memory.Stats().RecentCount)
	}
}

func TestOpenPlayerRoundTripsRecordedTicks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ticks.jsonl")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("os.Create() error = %v", err)
	}
	core := New(profiles.Get("default"), eventlog.New())
	r := NewRecorder(core, f)

	now := time.Now()
	r.Tick(Stimulus{Content: "first"}, now)
	r.Tick(Stimulus{Content: "second"}, now.Add(time.Second))
	r.Tick(Stimulus{Content: "third"}, now.Add(2*time.Second))
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	player, parseErrors, err := OpenPlayer(path)
	if err != nil {
		t.Fatalf("OpenPlayer() error = %v", err)
	}
	if parseErrors != 0 {
		t.Errorf("parseErrors = %d, want 0", parseErrors)
	}
	if player.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", player.Len())
	}

	var ticks []uint64
	for {
		result, ok := player.Next()
		if !ok {
			break
		}
		ticks = append(ticks, result.Tick)
	}
	if len(ticks) != 3 || ticks[0] != 1 || ticks[1] != 2 || ticks[2] != 3 {
		t.Errorf("replayed tick numbers = %v, want [1 2 3]", ticks)
	}
	if _, ok := player.Next(); ok {
		t.Error("Next() after exhaustion = ok, want false")
	}
}

func TestOpenPlayerMissingFileReturnsError(t *testing.T) {
	_, _, err := OpenPlayer(filepath.Join(t.TempDir(), "does-not-exist.jsonl"))
	if err == nil {
		t.Error("OpenPlayer() on missing file error = nil, want non-nil")
	}
}

func TestOpenPlayerSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ticks.jsonl")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("os.Create() error = %v", err)
	}
	core := New(profiles.Get("default"), eventlog.New())
	r := NewRecorder(core, f)
	r.Tick(Stimulus{}, time.Now())
	f.WriteString("not valid json\n")
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	player, parseErrors, err := OpenPlayer(path)
	if err != nil {
		t.Fatalf("OpenPlayer() error = %v", err)
	}
	if parseErrors != 1 {
		t.Errorf("parseErrors = %d, want 1", parseErrors)
	}
	if player.Len() != 1 {
		t.Errorf("Len() = %d, want 1", player.Len())
	}
}
