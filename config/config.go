// Package config loads and validates process configuration: the model API
// credential (validated up front so a bad key fails as a configuration
// error, not a doomed network call), provider selection, project paths,
// rate limits, and the YAML requirements document that seeds the run
// context.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvOpenAIKey    = "OPENAI_API_KEY"
)

// Credential prefixes checked at startup. Superficial format validation
// only; the API is the final authority.
const (
	anthropicKeyPrefix = "sk-ant-"
	openaiKeyPrefix    = "sk-"
)

// Error is a fatal configuration problem detected at startup. Never retried.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", e.Field, e.Reason)
}

// Config holds everything the harness needs to start a run.
type Config struct {
	// Provider selects the model backend: "anthropic" (default) or "openai".
	Provider string `yaml:"provider"`
	// Model overrides the provider's default model id.
	Model string `yaml:"model"`
	// APIKey is resolved from the environment when empty.
	APIKey string `yaml:"-"`
	// ProjectRoot is the directory all file writes resolve against.
	ProjectRoot string `yaml:"project_root"`
	// RequirementsFile is the YAML document seeding project_requirements.
	RequirementsFile string `yaml:"requirements_file"`
	// CheckpointPath / FinalContextPath override the default output files.
	CheckpointPath   string `yaml:"checkpoint_path"`
	FinalContextPath string `yaml:"final_context_path"`
	// CallsPerMinute is the proactive rate ceiling.
	CallsPerMinute int `yaml:"calls_per_minute"`
	// MaxRounds bounds model round-trips per agent.
	MaxRounds int `yaml:"max_rounds"`
	// StrictDependencies switches CheckDependencies to exact key matching.
	StrictDependencies bool `yaml:"strict_dependencies"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Provider:         "anthropic",
		ProjectRoot:      "project_output",
		CheckpointPath:   "checkpoint.json",
		FinalContextPath: "final_context.json",
		CallsPerMinute:   30,
		MaxRounds:        10,
	}
}

// Resolve fills the API key from the environment (when unset) and
// validates the whole config. It returns a *Error on any problem.
func (c *Config) Resolve() error {
	switch c.Provider {
	case "", "anthropic":
		c.Provider = "anthropic"
		if c.APIKey == "" {
			c.APIKey = os.Getenv(EnvAnthropicKey)
		}
	case "openai":
		if c.APIKey == "" {
			c.APIKey = os.Getenv(EnvOpenAIKey)
		}
	default:
		return &Error{Field: "provider", Reason: fmt.Sprintf("unknown provider %q", c.Provider)}
	}

	return c.Validate()
}

// Validate checks credential presence and superficial format plus basic
// limits. Absence or a malformed key short-circuits here rather than
// failing a network call later.
func (c *Config) Validate() error {
	key := strings.TrimSpace(c.APIKey)
	if key == "" {
		envName := EnvAnthropicKey
		if c.Provider == "openai" {
			envName = EnvOpenAIKey
		}
		return &Error{Field: "api_key", Reason: fmt.Sprintf("missing credential; set %s", envName)}
	}

	switch c.Provider {
	case "anthropic":
		if !strings.HasPrefix(key, anthropicKeyPrefix) {
			return &Error{Field: "api_key", Reason: fmt.Sprintf("malformed credential; expected %q prefix", anthropicKeyPrefix)}
		}
	case "openai":
		if !strings.HasPrefix(key, openaiKeyPrefix) {
			return &Error{Field: "api_key", Reason: fmt.Sprintf("malformed credential; expected %q prefix", openaiKeyPrefix)}
		}
	}

	if c.ProjectRoot == "" {
		return &Error{Field: "project_root", Reason: "must not be empty"}
	}
	if c.CallsPerMinute < 0 {
		return &Error{Field: "calls_per_minute", Reason: "must not be negative"}
	}
	if c.MaxRounds < 1 {
		return &Error{Field: "max_rounds", Reason: "must be at least 1"}
	}

	return nil
}

// LoadFile merges a YAML config file over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, &Error{Field: "config_file", Reason: err.Error()}
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &Error{Field: "config_file", Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}
	return cfg, nil
}

// LoadRequirements reads a YAML requirements document into the opaque
// key-value form seeding the run context.
func LoadRequirements(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Field: "requirements_file", Reason: err.Error()}
	}

	requirements := map[string]any{}
	if err := yaml.Unmarshal(data, &requirements); err != nil {
		return nil, &Error{Field: "requirements_file", Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}
	return requirements, nil
}
