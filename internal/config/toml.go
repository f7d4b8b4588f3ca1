package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// LoadTOML is the alternate loader for operators who prefer TOML over YAML
// (grounded on Heikkila-Pty-Ltd-cortex's BurntSushi/toml dependency). It
// applies the same §6.5 defaults, env overlay, and validation as Load.
func LoadTOML(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: parse toml %s: %w", path, err)
	}
	applyEnvOverlay(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
