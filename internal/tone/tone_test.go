package tone

import (
	"reflect"
	"strings"
	"testing"
)

func TestCompileIdempotent(t *testing.T) {
	chattiness := 0.42
	cfg := Config{Preset: PresetProfessional, StyleDescription: "like a concierge", Chattiness: &chattiness}

	first := Compile(cfg)
	second := Compile(cfg)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Compile is not idempotent: %+v vs %+v", first, second)
	}
}

func TestCompilePresetDefaults(t *testing.T) {
	cases := []struct {
		preset     Preset
		chattiness float64
		tier       Tier
	}{
		{PresetFriendly, 0.5, TierMedium},
		{PresetProfessional, 0.3, TierLow},
		{PresetPlayful, 0.8, TierHigh},
		{PresetDirect, 0.2, TierLow},
		{PresetEmpathetic, 0.6, TierMedium},
	}
	for _, tc := range cases {
		contract := Compile(Config{Preset: tc.preset})
		if contract.Chattiness != tc.chattiness {
			t.Errorf("%s: chattiness = %v, want %v", tc.preset, contract.Chattiness, tc.chattiness)
		}
		if contract.Tier != tc.tier {
			t.Errorf("%s: tier = %v, want %v", tc.preset, contract.Tier, tc.tier)
		}
	}
}

func TestCompileChattinessOverrideClamped(t *testing.T) {
	over := 1.7
	contract := Compile(Config{Preset: PresetDirect, Chattiness: &over})
	if contract.Chattiness != 1 {
		t.Errorf("expected clamp to 1, got %v", contract.Chattiness)
	}
	if contract.Tier != TierHigh {
		t.Errorf("expected high tier after clamp, got %v", contract.Tier)
	}

	under := -0.4
	contract = Compile(Config{Preset: PresetPlayful, Chattiness: &under})
	if contract.Chattiness != 0 {
		t.Errorf("expected clamp to 0, got %v", contract.Chattiness)
	}
	if contract.Tier != TierLow {
		t.Errorf("expected low tier after clamp, got %v", contract.Tier)
	}
}

func TestCompileUnknownPresetFallsBack(t *testing.T) {
	contract := Compile(Config{Preset: Preset("sassy")})
	if contract.Preset != PresetFriendly {
		t.Errorf("expected fallback to friendly, got %v", contract.Preset)
	}
}

func TestTierBoundaries(t *testing.T) {
	cases := []struct {
		chattiness float64
		tier       Tier
	}{
		{0, TierLow},
		{0.33, TierLow},
		{0.34, TierMedium},
		{0.66, TierMedium},
		{0.67, TierHigh},
		{1, TierHigh},
	}
	for _, tc := range cases {
		if got := TierFor(tc.chattiness); got != tc.tier {
			t.Errorf("TierFor(%v) = %v, want %v", tc.chattiness, got, tc.tier)
		}
	}
}

func TestDirectivesIncludeStyleDescription(t *testing.T) {
	contract := Compile(Config{Preset: PresetFriendly, StyleDescription: "address the user by first name"})
	found := false
	for _, d := range contract.Directives {
		if strings.Contains(d, "address the user by first name") {
			found = true
		}
	}
	if !found {
		t.Errorf("style description missing from directives: %v", contract.Directives)
	}
}

func TestBuildStyleGuide(t *testing.T) {
	guide := BuildStyleGuide(Compile(Config{Preset: PresetProfessional}))
	if !strings.Contains(guide, "<TONE POLICY>") || !strings.Contains(guide, "professional register") {
		t.Errorf("unexpected style guide: %q", guide)
	}

	if got := BuildStyleGuide(Contract{}); got != "" {
		t.Errorf("zero contract should produce empty guide, got %q", got)
	}
}
