package memory

import (
	"math"

	"github.com/dawnlabs/dawn-core/model"
	"github.com/dawnlabs/dawn-core/util"
)

// speakerWeight is the multiplicative weight applied per speaker tag,
// looked up by Speaker.String(). "orloff" is carried from the source
// system's speaker vocabulary, but no model.Speaker value stringifies to
// "orloff", so that entry is never matched.
var speakerWeight = map[string]float64{
	"core":   1.2,
	"owl":    1.15,
	"orloff": 1.1,
	"user":   0.9,
}

// boostTopicsHigh are topics that multiply importance by 1.3.
var boostTopicsHigh = map[string]bool{
	"system_event":   true,
	"critical_state": true,
	"breakthrough":   true,
	"error":          true,
}

// boostTopicsMid multiply importance by 1.1.
var boostTopicsMid = map[string]bool{
	"reflection":    true,
	"introspection": true,
}

// Importance computes the deterministic [0,1] importance score for a chunk.
// Equal inputs always yield an equal score (it reads no external state).
func Importance(c model.MemoryChunk) float64 {
	lenTerm := 0.20 * math.Min(1, float64(c.Length)/500)
	entropyTerm := 0.30 * c.Pulse.Entropy
	heatTerm := 0.20 * (c.Pulse.Heat / 100)
	scupTerm := 0.15 * math.Abs(c.Pulse.SCUP-0.5) * 2
	sigilTerm := 0.10 * math.Min(1, float64(len(c.Sigils))/3)

	topicFlag := 0.0
	if boostTopicsHigh[c.Topic] || boostTopicsMid[c.Topic] {
		topicFlag = 1.0
	}
	topicFlagTerm := 0.05 * topicFlag

	sum := lenTerm + entropyTerm + heatTerm + scupTerm + sigilTerm + topicFlagTerm

	sum *= speakerMultiplier(c.Speaker)
	sum *= topicBoostMultiplier(c.Topic)

	return util.Clamp(sum, 0, 1)
}

func speakerMultiplier(s model.Speaker) float64 {
	if w, ok := speakerWeight[s.String()]; ok {
		return w
	}
	return 1.0
}

func topicBoostMultiplier(topic string) float64 {
	switch {
	case boostTopicsHigh[topic]:
		return 1.3
	case boostTopicsMid[topic]:
		return 1.1
	default:
		return 1.0
	}
}
