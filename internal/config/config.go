package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ConfigDirName  = ".cmdpal"
	ConfigFileName = "config.yaml"

	DefaultOllamaURL = "http://localhost:11434"
	DefaultModel     = "llama3.1"

	// DefaultRequestTimeout bounds a single chat call. Local models can be slow to load.
	DefaultRequestTimeout = 120
)

// Ollama endpoints the assistant can talk to
const (
	EndpointChat     = "chat"
	EndpointGenerate = "generate"
)

// Environment variables that override the config file
const (
	EnvOllamaURL = "OLLAMA_URL"
	EnvModel     = "OLLAMA_MODEL"
)

// Config represents the application configuration
type Config struct {
	OllamaURL string `yaml:"ollama_url"`
	Model     string `yaml:"model"`

	// RequestTimeout is the chat request timeout in seconds, 0 disables it
	RequestTimeout int `yaml:"request_timeout_seconds"`

	// CommandTimeout is the per-command timeout in seconds, 0 means commands may run forever
	CommandTimeout int `yaml:"command_timeout_seconds"`

	// Endpoint selects /api/chat (default) or /api/generate
	Endpoint string `yaml:"endpoint,omitempty"`

	// SystemPrompt replaces the built-in instructions sent to the model
	SystemPrompt string `yaml:"system_prompt,omitempty"`

	// Shell overrides $SHELL for running generated commands
	Shell string `yaml:"shell,omitempty"`

	// Memory keeps the conversation across prompts in one session
	Memory bool `yaml:"memory"`

	// LenientParsing also accepts JSON objects surrounded by prose
	LenientParsing bool `yaml:"lenient_parsing"`

	History HistoryConfig `yaml:"history"`
}

// HistoryConfig controls the audit log of interactions
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// Default returns the configuration used when nothing is on disk
func Default() *Config {
	return &Config{
		OllamaURL:      DefaultOllamaURL,
		Model:          DefaultModel,
		RequestTimeout: DefaultRequestTimeout,
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// RequestTimeoutDuration returns the chat timeout as a duration
func (c *Config) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// CommandTimeoutDuration returns the per-command timeout as a duration
func (c *Config) CommandTimeoutDuration() time.Duration {
	return time.Duration(c.CommandTimeout) * time.Second
}

// HistoryPath returns where the history database lives
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Validate checks that the values are usable
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OllamaURL) == "" {
		return errors.New("ollama URL is not configured")
	}
	if !strings.Contains(c.OllamaURL, "://") {
		return fmt.Errorf("ollama URL %q must include a scheme", c.OllamaURL)
	}
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model is not configured")
	}
	switch c.Endpoint {
	case "", EndpointChat, EndpointGenerate:
	default:
		return fmt.Errorf("unknown endpoint %q, use %q or %q", c.Endpoint, EndpointChat, EndpointGenerate)
	}
	if c.RequestTimeout < 0 || c.CommandTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ConfigDirName), nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName), nil
}

// Load builds the configuration from defaults, the config file, .env and the environment.
// A missing config file is not an error.
func Load() (*Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return nil, err
	}

	// .env is optional, like the environment itself
	_ = godotenv.Load()
	cfg.ApplyEnv()

	return cfg, nil
}

// LoadFile reads the config file on top of the defaults, without looking at the environment
func LoadFile() (*Config, error) {
	cfg := Default()

	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides values with the environment
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvOllamaURL)); v != "" {
		c.OllamaURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvModel)); v != "" {
		c.Model = v
	}
}

// Save writes the configuration to disk
func Save(cfg *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists checks if a configuration file exists
func Exists() (bool, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return false, err
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
