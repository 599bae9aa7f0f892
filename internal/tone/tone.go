// Package tone provides a fixed whitelist of tone presets, chattiness
// clamping, and deterministic compilation of a tone configuration into
// the immutable contract consumed by message generation.
package tone

import (
	"math"
	"strings"
)

// ---- Presets ----

// Preset names the phrasing register a form author selected.
type Preset string

const (
	PresetFriendly     Preset = "friendly"
	PresetProfessional Preset = "professional"
	PresetPlayful      Preset = "playful"
	PresetDirect       Preset = "direct"
	PresetEmpathetic   Preset = "empathetic"
)

// presetChattiness is the hard-coded default chattiness per preset.
var presetChattiness = map[Preset]float64{
	PresetFriendly:     0.5,
	PresetProfessional: 0.3,
	PresetPlayful:      0.8,
	PresetDirect:       0.2,
	PresetEmpathetic:   0.6,
}

// IsValidPreset checks if the given preset is one of the fixed set.
func IsValidPreset(p Preset) bool {
	_, ok := presetChattiness[p]
	return ok
}

// ---- Data types ----

// Tier is the discrete verbosity band derived from effective chattiness.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Config is the authored style configuration for a form.
type Config struct {
	Preset Preset `json:"preset" yaml:"preset"`
	// StyleDescription is optional free text layered on top of the preset.
	StyleDescription string `json:"style_description,omitempty" yaml:"style_description,omitempty"`
	// Chattiness overrides the preset default when set. Clamped to [0,1].
	Chattiness *float64 `json:"chattiness,omitempty" yaml:"chattiness,omitempty"`
}

// Contract is the compiled, immutable output of Compile. It only selects
// phrasing register; it never influences flow decisions.
type Contract struct {
	Preset     Preset   `json:"preset"`
	Chattiness float64  `json:"chattiness"`
	Tier       Tier     `json:"tier"`
	Directives []string `json:"directives"`
}

// ---- Public API ----

// Compile turns a tone configuration into its contract. It is a pure
// function of its input: identical configs compile to identical contracts.
func Compile(cfg Config) Contract {
	preset := cfg.Preset
	if !IsValidPreset(preset) {
		preset = PresetFriendly
	}

	chattiness := presetChattiness[preset]
	if cfg.Chattiness != nil {
		chattiness = clamp(*cfg.Chattiness)
	}

	return Contract{
		Preset:     preset,
		Chattiness: chattiness,
		Tier:       TierFor(chattiness),
		Directives: directivesFor(preset, TierFor(chattiness), cfg.StyleDescription),
	}
}

// TierFor maps effective chattiness onto the discrete verbosity tier.
func TierFor(chattiness float64) Tier {
	switch {
	case chattiness <= 0.33:
		return TierLow
	case chattiness <= 0.66:
		return TierMedium
	default:
		return TierHigh
	}
}

// directivesFor builds the style directive list for the contract.
func directivesFor(preset Preset, tier Tier, styleDescription string) []string {
	var directives []string

	switch preset {
	case PresetProfessional:
		directives = append(directives, "Use formal diction and professional register.")
	case PresetPlayful:
		directives = append(directives, "Use playful, energetic language.")
	case PresetDirect:
		directives = append(directives, "Be direct: state what is needed without preamble.")
	case PresetEmpathetic:
		directives = append(directives, "Adopt a warm, understanding stance.")
	default:
		directives = append(directives, "Use casual, friendly language.")
	}

	switch tier {
	case TierLow:
		directives = append(directives, "Be concise: short sentences, minimal filler.")
	case TierHigh:
		directives = append(directives, "Be conversational: acknowledge the answer before asking the next question.")
	default:
		directives = append(directives, "Keep responses brief but complete.")
	}

	if s := strings.TrimSpace(styleDescription); s != "" {
		directives = append(directives, "Author style notes: "+s)
	}

	directives = append(directives, "Ask only one question at a time.")
	directives = append(directives, "NEVER mirror hostility, sarcasm, insults, or unsafe language.")

	return directives
}

// BuildStyleGuide produces a compact instruction snippet for injection
// into LLM system prompts. It returns an empty string for a zero contract.
func BuildStyleGuide(c Contract) string {
	if len(c.Directives) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n<TONE POLICY>\nPhrase your responses according to these rules:\n")
	for _, d := range c.Directives {
		b.WriteString("- ")
		b.WriteString(d)
		b.WriteString("\n")
	}
	b.WriteString("</TONE POLICY>\n")

	return b.String()
}

// ---- helpers ----

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	// Round to 4 decimal places to avoid floating point drift.
	return math.Round(v*10000) / 10000
}
