// Package config loads and validates the Agent Execution Core's process
// bootstrap configuration (§6.5). Configuration loading, logging setup, and
// process bootstrap are explicitly out of scope (§1) as subsystems of their
// own, but the core still needs a concrete struct to read its required and
// optional settings from.
package config

import "time"

// Config is the root configuration structure, loaded from YAML (default) or
// TOML (see toml.go) with environment-variable overlay.
type Config struct {
	LLM       LLMConfig       `yaml:"llm"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Loop      LoopConfig      `yaml:"loop"`
	Events    EventsConfig    `yaml:"events"`
	Learning  LearningConfig  `yaml:"learning"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Browser   BrowserConfig   `yaml:"browser"`
	Server    ServerConfig    `yaml:"server"`
}

// LLMConfig configures the LLM Client (C2, §6.5).
type LLMConfig struct {
	// Provider selects the backend: "anthropic", "openai", or "bedrock".
	Provider string `yaml:"provider"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`

	// BiasStrength is the magnitude applied to forbidden tool tokens by
	// bias_for (default −100, §6.5).
	BiasStrength int `yaml:"bias_strength"`

	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Fallbacks lists additional "provider/model" candidates tried, in
	// order, when Provider/Model returns a failover-eligible error
	// (rate limit, timeout, 5xx) — see internal/llm.FallbackClient.
	Fallbacks []string `yaml:"fallbacks"`
}

// SandboxConfig configures the Sandbox Client (C1, §6.2, §6.5).
type SandboxConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`

	// Backend selects the provider adapter: "docker" or "firecracker".
	Backend string `yaml:"backend"`

	// WorkspaceMount is the mount path inside the sandbox (default /workspace).
	WorkspaceMount string `yaml:"workspace_mount"`

	CreateTimeout  time.Duration `yaml:"create_timeout"`
	RPCTimeout     time.Duration `yaml:"rpc_timeout"`
	DefaultExecTTL time.Duration `yaml:"default_exec_timeout"`
	MaxExecTTL     time.Duration `yaml:"max_exec_timeout"`

	PoolSize    int `yaml:"pool_size"`
	MaxPoolSize int `yaml:"max_pool_size"`
}

// LoopConfig configures the Agent Loop (C11, §6.5).
type LoopConfig struct {
	MaxIterations int `yaml:"max_iterations"`
	MaxTokens     int `yaml:"max_tokens"`

	// PhaseTemperature overrides the default sampling temperature per phase.
	PhaseTemperature map[string]float64 `yaml:"phase_temperature"`

	PlannerEnabled bool `yaml:"planner_enabled"`
}

// EventsConfig configures the Event Stream (C10, §6.5).
type EventsConfig struct {
	SubscriberBufferDepth int `yaml:"subscriber_buffer_depth"`
}

// LearningConfig configures the Learning Stores (C9, §6.4).
type LearningConfig struct {
	// Backend selects persistence: "json" (default) or "sqlite".
	Backend  string `yaml:"backend"`
	JSONPath string `yaml:"json_path"`
	SQLite   string `yaml:"sqlite_path"`
}

// KnowledgeConfig configures the Knowledge Sub-agent (C6).
type KnowledgeConfig struct {
	SearchEndpoint string        `yaml:"search_endpoint"`
	SearchAPIKey   string        `yaml:"search_api_key"`
	SearchTimeout  time.Duration `yaml:"search_timeout"`
}

// BrowserConfig configures the Browser Sub-agent (C7).
type BrowserConfig struct {
	Headless       bool          `yaml:"headless"`
	ActionTimeout  time.Duration `yaml:"action_timeout"`
}

// ServerConfig configures the out-of-scope front door's thin binding
// (cmd/agentcore/serve.go) — not part of the core itself (§1).
type ServerConfig struct {
	Addr              string `yaml:"addr"`
	OrchestratorParallelism int `yaml:"orchestrator_parallelism"`
}

// Default returns the configuration with every §6.5 default applied.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       "anthropic",
			BiasStrength:   -100,
			RequestTimeout: 120 * time.Second,
		},
		Sandbox: SandboxConfig{
			Backend:        "docker",
			WorkspaceMount: "/workspace",
			CreateTimeout:  30 * time.Second,
			RPCTimeout:     30 * time.Second,
			DefaultExecTTL: 300 * time.Second,
			MaxExecTTL:     1800 * time.Second,
			PoolSize:       0,
			MaxPoolSize:    10,
		},
		Loop: LoopConfig{
			MaxIterations:  100,
			MaxTokens:      4096,
			PlannerEnabled: true,
		},
		Events: EventsConfig{
			SubscriberBufferDepth: 256,
		},
		Learning: LearningConfig{
			Backend:  "json",
			JSONPath: "./data/learning",
		},
		Knowledge: KnowledgeConfig{
			SearchTimeout: 15 * time.Second,
		},
		Browser: BrowserConfig{
			Headless:      true,
			ActionTimeout: 60 * time.Second,
		},
		Server: ServerConfig{
			Addr:                    ":8088",
			OrchestratorParallelism: 8,
		},
	}
}

// Validate checks the required configuration keys named in §6.5 and
// returns a configuration error (fatal at startup, §7) if any are missing.
func (c *Config) Validate() error {
	if c.LLM.Endpoint == "" && c.LLM.Provider != "bedrock" {
		return &Error{Field: "llm.endpoint", Reason: "required"}
	}
	if c.LLM.APIKey == "" && c.LLM.Provider != "bedrock" {
		return &Error{Field: "llm.api_key", Reason: "required"}
	}
	if c.LLM.Model == "" {
		return &Error{Field: "llm.model", Reason: "required"}
	}
	if c.Sandbox.Endpoint == "" {
		return &Error{Field: "sandbox.endpoint", Reason: "required"}
	}
	if c.Sandbox.APIKey == "" {
		return &Error{Field: "sandbox.api_key", Reason: "required"}
	}
	return nil
}

// Error is a configuration validation failure (§7 Configuration errors).
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string { return "config: " + e.Field + ": " + e.Reason }
