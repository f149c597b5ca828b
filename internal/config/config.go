// Package config handles configuration management using Viper
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Decoration mode preferences accepted by window.decorations.
const (
	DecorationsServer = "server"
	DecorationsClient = "client"
)

// Config represents the application configuration
type Config struct {
	Window  WindowConfig  `mapstructure:"window"`
	Render  RenderConfig  `mapstructure:"render"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// WindowConfig contains the toplevel window settings
type WindowConfig struct {
	Title  string `mapstructure:"title"`
	AppID  string `mapstructure:"app_id"`
	Width  int    `mapstructure:"width"`  // initial size, replaced by the first configure
	Height int    `mapstructure:"height"`
	// Decorations is the mode requested from the compositor: "server" or
	// "client". The compositor's answer is advisory either way.
	Decorations string `mapstructure:"decorations"`
}

// RenderConfig contains frame loop settings
type RenderConfig struct {
	FPS int `mapstructure:"fps"` // target frame cadence
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Window: WindowConfig{
			Title:       "glint",
			AppID:       "dev.bnema.glint",
			Width:       640,
			Height:      480,
			Decorations: DecorationsServer,
		},
		Render: RenderConfig{
			FPS: 60,
		},
		Logging: LoggingConfig{
			LogLevel: "",
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName("glint")
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "glint"))
		}
		viper.AddConfigPath(".") // Current directory (lowest priority)
	}

	// Set defaults - need to set individual fields for proper merging
	viper.SetDefault("window.title", DefaultConfig.Window.Title)
	viper.SetDefault("window.app_id", DefaultConfig.Window.AppID)
	viper.SetDefault("window.width", DefaultConfig.Window.Width)
	viper.SetDefault("window.height", DefaultConfig.Window.Height)
	viper.SetDefault("window.decorations", DefaultConfig.Window.Decorations)

	viper.SetDefault("render.fps", DefaultConfig.Render.FPS)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults
	}

	// Unmarshal config
	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return cfg.validate()
}

func (c *Config) validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Render.FPS <= 0 {
		return fmt.Errorf("render.fps must be positive, got %d", c.Render.FPS)
	}
	switch c.Window.Decorations {
	case DecorationsServer, DecorationsClient:
	default:
		return fmt.Errorf("window.decorations must be %q or %q, got %q",
			DecorationsServer, DecorationsClient, c.Window.Decorations)
	}
	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		return &DefaultConfig
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// SetValue sets one dotted key, validates the result and writes it back to
// the config file
func SetValue(key, value string) error {
	viper.Set(key, value)

	updated := &Config{}
	if err := viper.Unmarshal(updated); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := updated.validate(); err != nil {
		return err
	}
	cfg = updated

	path := GetConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}
	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "glint.toml"
	}
	return filepath.Join(home, ".config", "glint", "glint.toml")
}
