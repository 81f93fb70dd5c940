// ABOUTME: Configuration loading and parsing for tutorchat
// ABOUTME: Supports YAML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete tutorchat configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Export    ExportConfig    `yaml:"export"`
	Questions QuestionsConfig `yaml:"questions"`
}

// ServerConfig holds the tutor backend connection configuration.
type ServerConfig struct {
	// URL is the WebSocket endpoint of the tutor backend.
	URL string `yaml:"url"`

	ReconnectDelay time.Duration `yaml:"-"`

	// Raw string value for YAML unmarshaling
	ReconnectDelayRaw string `yaml:"reconnect_delay"`
}

// DatabaseConfig holds conversation storage configuration.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File redirects log output away from the terminal; the TUI owns
	// stdout, so the default writes to a file under the state directory.
	File string `yaml:"file"`
}

// ExportConfig holds transcript export configuration.
type ExportConfig struct {
	// Dir is where exported transcripts are written.
	Dir string `yaml:"dir"`
}

// QuestionsConfig holds the recommended-question prompts shown on an
// empty conversation.
type QuestionsConfig struct {
	Recommended []string `yaml:"recommended"`
}

// Defaults used when the config file omits a field (or does not exist).
const (
	DefaultServerURL      = "ws://localhost:8050/ws/llm"
	DefaultReconnectDelay = 3 * time.Second
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// DefaultRecommendedQuestions are shown when a conversation has no
// messages yet, to give the student a starting point.
var DefaultRecommendedQuestions = []string{
	"Can you explain this concept with a simple example?",
	"What should I study first to understand this topic?",
	"Can you quiz me on what we just covered?",
	"What are the most common mistakes students make here?",
}

// Default returns a Config with every field at its default value. The
// state directory (database, logs, exports) is rooted under the user's
// home; falls back to the current directory when home is unknown.
func Default() *Config {
	stateDir := ".tutorchat"
	if home, err := os.UserHomeDir(); err == nil {
		stateDir = filepath.Join(home, ".local", "share", "tutorchat")
	}

	return &Config{
		Server: ServerConfig{
			URL:            DefaultServerURL,
			ReconnectDelay: DefaultReconnectDelay,
		},
		Database: DatabaseConfig{
			Path: filepath.Join(stateDir, "conversations.db"),
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
			File:   filepath.Join(stateDir, "tutorchat.log"),
		},
		Export: ExportConfig{
			Dir: filepath.Join(stateDir, "exports"),
		},
		Questions: QuestionsConfig{
			Recommended: append([]string(nil), DefaultRecommendedQuestions...),
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values. Fields the file
// omits keep their defaults; a missing file yields the full defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw YAML content
	expandedData := expandEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Parse duration fields
	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Path resolves the config file location: the TUTORCHAT_CONFIG environment
// variable wins, then $XDG_CONFIG_HOME/tutorchat/config.yaml, then
// ~/.config/tutorchat/config.yaml.
func Path() string {
	if p := os.Getenv("TUTORCHAT_CONFIG"); p != "" {
		return p
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tutorchat", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "tutorchat", "config.yaml")
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	// Match ${VAR_NAME} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server.url is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Server.ReconnectDelay < 0 {
		return fmt.Errorf("server.reconnect_delay must not be negative")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Server.ReconnectDelayRaw != "" {
		d, err := time.ParseDuration(cfg.Server.ReconnectDelayRaw)
		if err != nil {
			return fmt.Errorf("parsing reconnect_delay %q: %w", cfg.Server.ReconnectDelayRaw, err)
		}
		cfg.Server.ReconnectDelay = d
	}

	return nil
}
