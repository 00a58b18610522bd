// Package config loads repcoach settings from a file and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/repcoach/internal/logging"
	"github.com/ayusman/repcoach/internal/segment"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `toml:"server" json:"server" yaml:"server"`
	Store    StoreConfig    `toml:"store" json:"store" yaml:"store"`
	Logging  LoggingConfig  `toml:"logging" json:"logging" yaml:"logging"`
	Analysis AnalysisConfig `toml:"analysis" json:"analysis" yaml:"analysis"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr      string `toml:"addr" json:"addr" yaml:"addr"`
	StaticDir string `toml:"static_dir" json:"static_dir" yaml:"static_dir"`
}

// StoreConfig configures the SQLite database.
type StoreConfig struct {
	Path string `toml:"path" json:"path" yaml:"path"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `toml:"level" json:"level" yaml:"level"`
	Format string `toml:"format" json:"format" yaml:"format"`
}

// AnalysisConfig holds scoring defaults applied to new sessions.
type AnalysisConfig struct {
	CompletionThreshold float64 `toml:"completion_threshold" json:"completion_threshold" yaml:"completion_threshold"`
	DefaultScaleMode    string  `toml:"default_scale_mode" json:"default_scale_mode" yaml:"default_scale_mode"`
	ScreenWidth         float64 `toml:"screen_width" json:"screen_width" yaml:"screen_width"`
	ScreenHeight        float64 `toml:"screen_height" json:"screen_height" yaml:"screen_height"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Store: StoreConfig{
			Path: "repcoach.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Analysis: AnalysisConfig{
			CompletionThreshold: segment.DefaultCompletionThreshold,
			DefaultScaleMode:    segment.Exercise.String(),
			ScreenWidth:         1280,
			ScreenHeight:        720,
		},
	}
}

// Load reads the configuration at path. An empty path or a missing file
// yields the defaults. A .env file in the working directory is loaded
// before environment overrides are applied.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()
	return load(path)
}

func load(path string) (*Config, error) {
	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

func loadConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("config: parse toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("config: unsupported file extension %q", ext)
	}
	return cfg, nil
}

// ApplyEnvOverrides replaces file values with REPCOACH_* environment variables.
func (c *Config) ApplyEnvOverrides() error {
	if v := os.Getenv("REPCOACH_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("REPCOACH_STATIC_DIR"); v != "" {
		c.Server.StaticDir = v
	}
	if v := os.Getenv("REPCOACH_DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("REPCOACH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("REPCOACH_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("REPCOACH_SCALE_MODE"); v != "" {
		c.Analysis.DefaultScaleMode = v
	}
	if v := os.Getenv("REPCOACH_COMPLETION_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: REPCOACH_COMPLETION_THRESHOLD: %w", err)
		}
		c.Analysis.CompletionThreshold = f
	}
	if v := os.Getenv("REPCOACH_SCREEN_WIDTH"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: REPCOACH_SCREEN_WIDTH: %w", err)
		}
		c.Analysis.ScreenWidth = f
	}
	if v := os.Getenv("REPCOACH_SCREEN_HEIGHT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: REPCOACH_SCREEN_HEIGHT: %w", err)
		}
		c.Analysis.ScreenHeight = f
	}
	return nil
}

// ScaleMode parses the configured default scale mode.
func (c *Config) ScaleMode() segment.ScaleMode {
	m, err := segment.ParseScaleMode(c.Analysis.DefaultScaleMode)
	if err != nil {
		return segment.Exercise
	}
	return m
}

// LoggerConfig converts the logging section into a logging.Config.
func (c *Config) LoggerConfig() logging.Config {
	lc := logging.DefaultConfig()
	if lvl, err := logging.ParseLevel(c.Logging.Level); err == nil {
		lc.Level = lvl
	}
	if f, err := logging.ParseFormat(c.Logging.Format); err == nil {
		lc.Format = f
	}
	return lc
}
