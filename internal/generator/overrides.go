package generator

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// OverrideConfig holds hand-maintained adjustments applied to assembled
// interfaces after type mapping, loaded from an overrides.yml file. It
// covers the cases the schema cannot express: renaming a derived interface
// and replacing the mapped type expression of individual properties.
type OverrideConfig struct {
	Interfaces map[string]InterfaceOverride `yaml:"interfaces"`
}

// InterfaceOverride holds the overrides for a single interface, keyed by
// its derived name.
type InterfaceOverride struct {
	Name string `yaml:"name,omitempty"`

	// Properties maps attribute names to replacement type expressions.
	Properties map[string]string `yaml:"properties,omitempty"`
}

// LoadOverrides reads and parses an overrides.yml file.
func LoadOverrides(path string) (*OverrideConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading overrides")
	}

	var cfg OverrideConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parsing overrides")
	}
	return &cfg, nil
}

// ApplyOverrides applies the config to the assembled specs in place.
// Overrides naming interfaces or properties that do not exist are ignored.
func ApplyOverrides(specs []*InterfaceSpec, cfg *OverrideConfig) {
	if cfg == nil {
		return
	}

	for _, spec := range specs {
		ov, ok := cfg.Interfaces[spec.Name]
		if !ok {
			continue
		}

		if ov.Name != "" {
			spec.Name = ov.Name
		}

		for i := range spec.Properties {
			if typ, ok := ov.Properties[spec.Properties[i].Name]; ok && typ != "" {
				spec.Properties[i].Type = typ
			}
		}
	}
}
