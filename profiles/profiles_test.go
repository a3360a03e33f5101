package profiles

import "testing"

func TestGetKnownProfiles(t *testing.T) {
	for _, name := range []string{"minimum", "default", "aggressive"} {
		p := Get(name)
		if p.Name != name {
			t.Errorf("Get(%q).Name = %q, want %q", name, p.Name, name)
		}
	}
}

func TestGetUnknownFallsBackToDefault(t *testing.T) {
	p := Get("not-a-real-profile")
	if p.Name != "default" {
		t.Errorf("Get(unknown) = %+v, want default", p)
	}
}

func TestGetEmptyFallsBackToDefault(t *testing.T) {
	p := Get("")
	if p.Name != "default" {
		t.Errorf("Get(\"\") = %+v, want default", p)
	}
}

func TestProfileBoundsNarrowFromMinimumToAggressive(t *testing.T) {
	minimum := Get("minimum")
	aggressive := Get("aggressive")
	if aggressive.MaxInterval >= minimum.MaxInterval {
		t.Errorf("aggressive MaxInterval = %v, want tighter than minimum's %v", aggressive.MaxInterval, minimum.MaxInterval)
	}
	if aggressive.ImportanceThreshold >= minimum.ImportanceThreshold {
		t.Errorf("aggressive ImportanceThreshold = %v, want lower than minimum's %v", aggressive.ImportanceThreshold, minimum.ImportanceThreshold)
	}
	if aggressive.HotBloomTopK <= minimum.HotBloomTopK {
		t.Errorf("aggressive HotBloomTopK = %v, want higher than minimum's %v", aggressive.HotBloomTopK, minimum.HotBloomTopK)
	}
}
