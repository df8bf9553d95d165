package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds user settings for soratui.
type Config struct {
	// Path is the resolved config file location, whether or not it exists.
	Path string

	Profile      string
	Endpoint     string
	OutputDir    string
	PollInterval time.Duration
	MaxPolls     int

	LogFile   string
	LogLevel  string
	LogFormat string
}

// APIKeyEnv names the environment variable holding the bearer token.
const APIKeyEnv = "OPENAI_API_KEY"

const (
	defaultConfigPath   = "~/.config/soratui/config.toml"
	defaultLogFile      = "~/.local/share/soratui/soratui.log"
	defaultOutputDir    = "."
	defaultPollInterval = 2 * time.Second
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
)

// Error reports a configuration problem the user has to fix before starting.
type Error struct {
	Field string
	Msg   string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("config %s: %s", e.Field, e.Msg)
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Path:         mustExpand(defaultConfigPath),
		OutputDir:    defaultOutputDir,
		PollInterval: defaultPollInterval,
		LogFile:      mustExpand(defaultLogFile),
		LogLevel:     defaultLogLevel,
		LogFormat:    defaultLogFormat,
	}
}

// Load reads the TOML config at path (or the default location), falling back
// to defaults when the file is missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	cfg.Path = resolved

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Profile      string `toml:"profile"`
		Endpoint     string `toml:"endpoint"`
		OutputDir    string `toml:"output_dir"`
		PollInterval string `toml:"poll_interval"`
		MaxPolls     int    `toml:"max_polls"`
		LogFile      string `toml:"log_file"`
		LogLevel     string `toml:"log_level"`
		LogFormat    string `toml:"log_format"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.Profile = strings.TrimSpace(raw.Profile)
	cfg.Endpoint = strings.TrimSpace(raw.Endpoint)
	if dir := strings.TrimSpace(raw.OutputDir); dir != "" {
		cfg.OutputDir = mustExpand(dir)
	}
	if interval := strings.TrimSpace(raw.PollInterval); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return Config{}, &Error{Field: "poll_interval", Msg: fmt.Sprintf("invalid duration %q", interval)}
		}
		cfg.PollInterval = d
	}
	cfg.MaxPolls = raw.MaxPolls
	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogFile = logFile
		if !cfg.LogsToStderr() {
			cfg.LogFile = mustExpand(logFile)
		}
	}
	if level := strings.TrimSpace(raw.LogLevel); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	if format := strings.TrimSpace(raw.LogFormat); format != "" {
		cfg.LogFormat = strings.ToLower(format)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Overrides are command-line values that take precedence over the file.
// Zero values leave the loaded setting in place.
type Overrides struct {
	Profile      string
	Endpoint     string
	OutputDir    string
	PollInterval time.Duration
}

// LogsToStderr reports whether log_file routes records to standard error.
func (c Config) LogsToStderr() bool {
	path := strings.TrimSpace(c.LogFile)
	return path == "-" || strings.EqualFold(path, "stderr")
}

// Apply returns c with non-zero overrides applied.
func (c Config) Apply(o Overrides) Config {
	if v := strings.TrimSpace(o.Profile); v != "" {
		c.Profile = v
	}
	if v := strings.TrimSpace(o.Endpoint); v != "" {
		c.Endpoint = v
	}
	if v := strings.TrimSpace(o.OutputDir); v != "" {
		c.OutputDir = mustExpand(v)
	}
	if o.PollInterval != 0 {
		c.PollInterval = o.PollInterval
	}
	return c
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	if c.PollInterval <= 0 {
		return &Error{Field: "poll_interval", Msg: "must be positive"}
	}
	if c.MaxPolls < 0 {
		return &Error{Field: "max_polls", Msg: "must not be negative"}
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return &Error{Field: "log_format", Msg: fmt.Sprintf("unknown format %q (want text or json)", c.LogFormat)}
	}
	return nil
}

// LoadEnv loads a .env file from the working directory into the process
// environment. Variables already set win. A missing file is not an error.
func LoadEnv() {
	_ = godotenv.Load()
}

// APIKey returns the bearer token from the environment.
func APIKey() (string, error) {
	key := strings.TrimSpace(os.Getenv(APIKeyEnv))
	if key == "" {
		return "", &Error{Msg: fmt.Sprintf("Please set the %s environment variable.", APIKeyEnv)}
	}
	return key, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
