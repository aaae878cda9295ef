package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Named network presets. Each overlays size parameters on the default
// configuration.
const (
	PresetSmall  = "small"
	PresetMedium = "medium"
	PresetLarge  = "large"
)

// PresetConfig returns the named network preset, or an error for an
// unrecognized name.
func PresetConfig(name string) (Config, error) {
	cfg := DefaultConfig()
	switch name {
	case PresetSmall:
		cfg.NodeCount = 30
		cfg.Width = 50
		cfg.Height = 50
		cfg.BaseX = 25
		cfg.BaseY = 25
		cfg.CommRange = 20
	case PresetMedium:
		// DefaultConfig is the medium network.
	case PresetLarge:
		cfg.NodeCount = 200
		cfg.Width = 200
		cfg.Height = 200
		cfg.BaseX = 100
		cfg.BaseY = 100
		cfg.CommRange = 40
	default:
		return Config{}, &ConfigurationError{
			Field:  "preset",
			Reason: fmt.Sprintf("unknown preset %q", name),
		}
	}
	return cfg, nil
}

// LoadConfigFile overlays a YAML configuration file onto cfg. Unknown keys
// are rejected so a typoed field fails fast instead of silently falling
// back to a default.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigurationError{Field: "config_file", Reason: err.Error()}
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return &ConfigurationError{Field: "config_file", Reason: err.Error()}
	}
	return nil
}
