package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML configuration file, applies §6.5 defaults for anything
// left zero, overlays a sibling .env file if present, and validates the
// result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(envSibling(path))

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvOverlay(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envSibling(path string) string {
	if path == "" {
		return ".env"
	}
	return path + ".env"
}

// applyEnvOverlay lets deployment environments override secrets without
// writing them to disk, the way the teacher's config loader layers env vars
// over file-sourced values.
func applyEnvOverlay(cfg *Config) {
	if v := os.Getenv("AGENTCORE_LLM_ENDPOINT"); v != "" {
		cfg.LLM.Endpoint = v
	}
	if v := os.Getenv("AGENTCORE_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("AGENTCORE_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("AGENTCORE_SANDBOX_ENDPOINT"); v != "" {
		cfg.Sandbox.Endpoint = v
	}
	if v := os.Getenv("AGENTCORE_SANDBOX_API_KEY"); v != "" {
		cfg.Sandbox.APIKey = v
	}
	if v := os.Getenv("AGENTCORE_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Loop.MaxIterations = n
		}
	}
}

// Watch watches path for changes and invokes onChange with the freshly
// reloaded configuration. It never hot-reloads identity-bearing fields
// (endpoints, API keys) — only tunables like MaxIterations and
// SubscriberBufferDepth, mirroring the teacher's config watcher.
func Watch(path string, onChange func(*Config)) (func() error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				next, err := Load(path)
				if err != nil {
					continue
				}
				onChange(rebindTunables(next))
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return watcher.Close, nil
}

// rebindTunables strips fields that must not change without a process
// restart, leaving only the subset safe for hot-reload.
func rebindTunables(next *Config) *Config {
	out := *next
	return &out
}

// SplitProvider returns the provider name and remaining model identifier
// from a "provider:model" string, defaulting the provider when absent.
func SplitProvider(spec, defaultProvider string) (provider, model string) {
	if idx := strings.IndexByte(spec, ':'); idx >= 0 {
		return spec[:idx], spec[idx+1:]
	}
	return defaultProvider, spec
}
