// Package config loads the copilot configuration from a YAML file,
// falling back to defaults when no file exists.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the completion server.
type Config struct {
	Backend    BackendConfig    `yaml:"backend"`
	Completion CompletionConfig `yaml:"completion"`
	Models     []ModelConfig    `yaml:"models"`
	Evaluation EvaluationConfig `yaml:"evaluation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// BackendConfig addresses the inference server.
type BackendConfig struct {
	URL                string         `yaml:"url"`
	TimeoutMs          int            `yaml:"timeout_ms"`
	Template           string         `yaml:"template"` // explicit template override
	TemplateTTLMinutes int            `yaml:"template_ttl_minutes"`
	Options            map[string]any `yaml:"options"` // temperature etc., passed through
}

// CompletionConfig tunes the request pipeline.
type CompletionConfig struct {
	Model        string `yaml:"model"` // label or full name of the active model
	DebounceMs   int    `yaml:"debounce_ms"`
	PrefixTokens int    `yaml:"prefix_tokens"` // 0 = unlimited
	SuffixTokens int    `yaml:"suffix_tokens"` // 0 = unlimited
	DisplayLimit int    `yaml:"display_limit"` // rune cap for displayed suggestions
}

// ModelConfig is one statically declared registry entry.
type ModelConfig struct {
	Family string `yaml:"family"`
	Tag    string `yaml:"tag"`
	Label  string `yaml:"label"`
}

// EvaluationConfig places the telemetry artifacts.
type EvaluationConfig struct {
	EventLog         string `yaml:"event_log"`
	EventLogMaxBytes int64  `yaml:"event_log_max_bytes"`
	ExportPath       string `yaml:"export_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// DefaultStateDir is where logs and telemetry live unless overridden.
func DefaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pharo-copilot"
	}
	return filepath.Join(home, ".pharo-copilot")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	stateDir := DefaultStateDir()
	return &Config{
		Backend: BackendConfig{
			URL:                "http://127.0.0.1:11434",
			TimeoutMs:          10000,
			TemplateTTLMinutes: 15,
		},
		Completion: CompletionConfig{
			Model:        "Null model",
			DebounceMs:   300,
			PrefixTokens: 1024,
			SuffixTokens: 512,
			DisplayLimit: 120,
		},
		Models: []ModelConfig{
			{Family: "codellama", Tag: "7b-code", Label: "CodeLlama 7B"},
			{Family: "deepseek-coder", Tag: "6.7b-base", Label: "DeepSeek Coder 6.7B"},
		},
		Evaluation: EvaluationConfig{
			EventLog:   filepath.Join(stateDir, "events.ndjson"),
			ExportPath: filepath.Join(stateDir, "evaluation.csv"),
		},
		Logging: LoggingConfig{
			Level: "info",
			Path:  filepath.Join(stateDir, "copilot.log"),
		},
	}
}

// Load loads configuration from a YAML file, returning defaults when the
// file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir loads configuration from dir/copilot.yaml, or the state
// directory's config.yaml, or defaults.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "copilot.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(DefaultStateDir(), "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Timeout returns the backend timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Backend.TimeoutMs) * time.Millisecond
}

// Debounce returns the text change debounce as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Completion.DebounceMs) * time.Millisecond
}

// TemplateTTL returns the model template cache lifetime.
func (c *Config) TemplateTTL() time.Duration {
	return time.Duration(c.Backend.TemplateTTLMinutes) * time.Minute
}

// EnsureStateDir creates the state directory used by default paths.
func EnsureStateDir() error {
	return os.MkdirAll(DefaultStateDir(), 0755)
}
