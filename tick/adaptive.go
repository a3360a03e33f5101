package tick

import "github.com/dawnlabs/dawn-core/util"

// Adaptive Controller bounds and coefficients. The interval grows — the
// Core ticks less often — as load, pressure, entropy, and heat each rise;
// it is monotone non-decreasing in every one of those four inputs.
const (
	minInterval = 0.1 // seconds
	maxInterval = 10.0

	loadWeight     = 1.5
	pressureWeight = 1.0
	entropyWeight  = 1.0
	heatWeight     = 0.8
)

// AdaptiveInputs bundles the four signals the interval formula reads.
type AdaptiveInputs struct {
	CognitiveLoad float64 // 0..1, caller-supplied (tier fullness, queue depth, etc.)
	PressureValue float64 // raw Cognitive Pressure Engine scalar
	Entropy       float64 // 0..1
	Heat          float64 // 0..100
}

// NextInterval derives the next tick interval in seconds from base and the
// four adaptive inputs, each normalized to 0..1 before being applied as a
// multiplicative penalty on top of base. The result is clamped to
// [minInterval, maxInterval].
func NextInterval(base float64, in AdaptiveInputs) float64 {
	loadNorm := util.Clamp(in.CognitiveLoad, 0, 1)
	pressureNorm := util.Clamp(in.PressureValue/200, 0, 1)
	entropyNorm := util.Clamp(in.Entropy, 0, 1)
	heatNorm := util.Clamp(in.Heat/100, 0, 1)

	penalty := 1 +
		loadWeight*loadNorm +
		pressureWeight*pressureNorm +
		entropyWeight*entropyNorm +
		heatWeight*heatNorm

	return util.Clamp(base*penalty, minInterval, maxInterval)
}
