// Package profiles defines named bundles of tunable Core parameters
// (tick interval bounds, importance threshold, hot-bloom top-k) selectable
// at startup via -profile or DAWN_PROFILE.
package profiles

// Profile is one named bundle of runtime-tunable parameters.
type Profile struct {
	Name string

	// MinInterval/MaxInterval bound the Adaptive Controller's output.
	MinInterval float64 // seconds
	MaxInterval float64 // seconds

	// ImportanceThreshold overrides the Memory Router's Significant-tier
	// promotion cutoff.
	ImportanceThreshold float64

	// HotBloomTopK overrides how many hot chunks the Entropy Analyzer
	// surfaces per tick.
	HotBloomTopK int
}

// ActiveProfile is not assigned or read anywhere in this module; the CLI
// resolves the profile with resolveProfile and passes it to tick.New.
var ActiveProfile *Profile

// Profiles defines the built-in bundles.
var Profiles = map[string]Profile{
	"minimum": {
		Name:                "minimum",
		MinInterval:         0.5,
		MaxInterval:         10.0,
		ImportanceThreshold: 0.75,
		HotBloomTopK:        3,
	},
	"default": {
		Name:                "default",
		MinInterval:         0.1,
		MaxInterval:         10.0,
		ImportanceThreshold: 0.6,
		HotBloomTopK:        5,
	},
	"aggressive": {
		Name:                "aggressive",
		MinInterval:         0.1,
		MaxInterval:         3.0,
		ImportanceThreshold: 0.45,
		HotBloomTopK:        10,
	},
}

// Get looks up a named profile, falling back to "default" for an unknown
// or empty name.
func Get(name string) Profile {
	if p, ok := Profiles[name]; ok {
		return p
	}
	return Profiles["default"]
}
