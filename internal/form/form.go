// Package form loads and validates form definitions from YAML or JSON
// files. The core packages only ever see the parsed field slice and tone
// configuration; file handling stays here.
package form

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/chatform/ChatForm/internal/models"
	"github.com/chatform/ChatForm/internal/tone"
	"gopkg.in/yaml.v3"
)

// Definition is an authored form: a title, an optional tone
// configuration, and the ordered field sequence.
type Definition struct {
	Title  string         `json:"title" yaml:"title"`
	Tone   tone.Config    `json:"tone" yaml:"tone"`
	Fields []models.Field `json:"fields" yaml:"fields"`
}

// Load reads and parses a form definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read form definition: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse form definition %s: %w", path, err)
	}
	slog.Debug("form.Load: loaded form definition", "path", path, "title", def.Title, "fields", len(def.Fields))
	return def, nil
}

// Parse decodes a form definition from YAML (or JSON, which YAML
// subsumes) and validates it.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal form definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Validate checks the field sequence and tone configuration.
func (d *Definition) Validate() error {
	if len(d.Fields) == 0 {
		return models.ErrNoFields
	}

	seen := make(map[string]bool, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		if err := f.Validate(); err != nil {
			return fmt.Errorf("field %d (%q): %w", i, f.Key, err)
		}
		if seen[f.Key] {
			return fmt.Errorf("field %d: %w: %q", i, models.ErrDuplicateFieldKey, f.Key)
		}
		seen[f.Key] = true
	}

	if d.Tone.Preset != "" && !tone.IsValidPreset(d.Tone.Preset) {
		return fmt.Errorf("unknown tone preset %q", d.Tone.Preset)
	}

	return nil
}
