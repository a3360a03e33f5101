package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Speaker tags who produced a memory chunk.
type Speaker int

const (
	SpeakerCore Speaker = iota
	SpeakerUser
	SpeakerOwl
	SpeakerExternal
)

func (s Speaker) String() string {
	switch s {
	case SpeakerCore:
		return "core"
	case SpeakerUser:
		return "user"
	case SpeakerOwl:
		return "owl"
	case SpeakerExternal:
		return "external"
	}
	return "unknown"
}

// ParseSpeaker maps a stored speaker string back to a Speaker, defaulting to
// SpeakerExternal for anything unrecognized (tolerant of loader input).
func ParseSpeaker(s string) Speaker {
	switch strings.ToLower(s) {
	case "core":
		return SpeakerCore
	case "user":
		return SpeakerUser
	case "owl":
		return SpeakerOwl
	default:
		return SpeakerExternal
	}
}

// MemoryChunk is an immutable record of one tick's (or conversation turn's)
// narrative content. Construct with NewMemoryChunk; fields are fixed for the
// lifetime of the value.
type MemoryChunk struct {
	ID           string
	Timestamp    time.Time
	Speaker      Speaker
	Topic        string
	Content      string
	Length       int
	WordCount    int
	Pulse        PulseSnapshot
	Sigils       []string
	Traced       bool
	AnchorLinked bool
}

// NewMemoryChunk constructs an immutable chunk. The identifier is a pure
// function of content and timestamp, and the pulse snapshot is copied so the
// chunk never aliases caller-owned state.
func NewMemoryChunk(content string, timestamp time.Time, speaker Speaker, topic string, pulse PulseSnapshot, sigils []string) MemoryChunk {
	sigilsCopy := append([]string(nil), sigils...)
	return MemoryChunk{
		ID:        DeriveMemoryID(content, timestamp),
		Timestamp: timestamp,
		Speaker:   speaker,
		Topic:     topic,
		Content:   content,
		Length:    len(content),
		WordCount: wordCount(content),
		Pulse:     pulse.Clone(),
		Sigils:    sigilsCopy,
	}
}

// DeriveMemoryID computes the stable identifier for a (content, timestamp)
// pair. Same inputs always yield the same identifier.
func DeriveMemoryID(content string, timestamp time.Time) string {
	h := sha256.New()
	h.Write([]byte(content))
	h.Write([]byte(strconv.FormatInt(timestamp.UnixNano(), 10)))
	sum := h.Sum(nil)
	return "mem-" + hex.EncodeToString(sum[:8])
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// WithFlags returns a copy of the chunk with the derived traced/anchor-linked
// flags set. Chunks are immutable, so this never mutates the receiver.
func (m MemoryChunk) WithFlags(traced, anchorLinked bool) MemoryChunk {
	m.Traced = traced
	m.AnchorLinked = anchorLinked
	return m
}
