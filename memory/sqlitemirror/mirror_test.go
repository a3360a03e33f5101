package sqlitemirror

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dawnlabs/dawn-core/model"
)

func TestOpenCreatesSchemaAndClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.sqlite")
	m, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestUpsertThenBySpeakerAndByTopic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.sqlite")
	m, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close()

	now := time.Now().UTC().Truncate(time.Second)
	c1 := model.NewMemoryChunk("first", now, model.SpeakerUser, "greeting", model.PulseSnapshot{Heat: 10}, nil)
	c2 := model.NewMemoryChunk("second", now.Add(time.Second), model.SpeakerUser, "greeting", model.PulseSnapshot{Heat: 20}, nil)
	c3 := model.NewMemoryChunk("third", now.Add(2*time.Second), model.SpeakerCore, "status", model.PulseSnapshot{Heat: 30}, nil)

	for _, c := range []model.MemoryChunk{c1, c2, c3} {
		if err := m.Upsert(c); err != nil {
			t.Fatalf("Upsert(%s) error = %v", c.ID, err)
		}
	}

	bySpeaker, err := m.BySpeaker("user", 10)
	if err != nil {
		t.Fatalf("BySpeaker() error = %v", err)
	}
	if len(bySpeaker) != 2 {
		t.Errorf("BySpeaker(user) = %v, want 2 ids", bySpeaker)
	}
	if bySpeaker[0] != c2.ID {
		t.Errorf("BySpeaker(user)[0] = %q, want most recent id %q", bySpeaker[0], c2.ID)
	}

	byTopic, err := m.ByTopic("status", 10)
	if err != nil {
		t.Fatalf("ByTopic() error = %v", err)
	}
	if len(byTopic) != 1 || byTopic[0] != c3.ID {
		t.Errorf("ByTopic(status) = %v, want [%s]", byTopic, c3.ID)
	}
}

func TestUpsertIsIdempotentForSameID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.sqlite")
	m, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close()

	now := time.Now().UTC().Truncate(time.Second)
	c := model.NewMemoryChunk("stable content", now, model.SpeakerUser, "topic-a", model.PulseSnapshot{Heat: 5}, nil)

	if err := m.Upsert(c); err != nil {
		t.Fatalf("first Upsert() error = %v", err)
	}
	if err := m.Upsert(c); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	got, err := m.ByTopic("topic-a", 10)
	if err != nil {
		t.Fatalf("ByTopic() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("ByTopic(topic-a) = %v, want exactly 1 row after re-upserting the same id", got)
	}
}

func TestBySpeakerLimitCapsResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.sqlite")
	m, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer m.Close()

	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		c := model.NewMemoryChunk("msg", now.Add(time.Duration(i)*time.Second), model.SpeakerUser, "", model.PulseSnapshot{}, nil)
		if err := m.Upsert(c); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}
	got, err := m.BySpeaker("user", 2)
	if err != nil {
		t.Fatalf("BySpeaker() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("BySpeaker(limit=2) returned %d ids, want 2", len(got))
	}
}
