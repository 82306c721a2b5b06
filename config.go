package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all configuration for the redcore server, kept close to
// the teacher's own config.go in shape (same defaults/env/file/flag
// layering via viper). Auth and max-memory fields are dropped — they
// were already dead code in the teacher and are explicit Non-goals
// here (spec.md §1: "authentication", "eviction under memory
// pressure").
type Config struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	MaxClients int           `mapstructure:"max_clients"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	ReaperInterval time.Duration `mapstructure:"reaper_interval"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	EnablePersist bool   `mapstructure:"enable_persist"`
	DataDir       string `mapstructure:"data_dir"`
	JournalFile   string `mapstructure:"journal_file"`
}

// DefaultConfig returns a Config matching spec.md §6's default bind
// address (0.0.0.0:6380) and otherwise-reasonable server defaults.
func DefaultConfig() *Config {
	return &Config{
		Host:           "0.0.0.0",
		Port:           6380,
		MaxClients:     10000,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		ReaperInterval: 1 * time.Second,
		LogLevel:       "info",
		LogFormat:      "text",
		EnablePersist:  false,
		DataDir:        "./data",
		JournalFile:    "redcore.journal",
	}
}

// LoadConfig loads configuration from defaults, an optional YAML file,
// environment variables (REDCORE_*), and bound CLI flags, in that
// layering order — the same order the teacher's LoadConfig uses.
func LoadConfig() (*Config, error) {
	config := DefaultConfig()

	viper.SetConfigName("redcore")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/redcore/")
	viper.AddConfigPath("$HOME/.redcore")

	viper.SetEnvPrefix("REDCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("host", config.Host)
	viper.SetDefault("port", config.Port)
	viper.SetDefault("max_clients", config.MaxClients)
	viper.SetDefault("read_timeout", config.ReadTimeout)
	viper.SetDefault("write_timeout", config.WriteTimeout)
	viper.SetDefault("reaper_interval", config.ReaperInterval)
	viper.SetDefault("log_level", config.LogLevel)
	viper.SetDefault("log_format", config.LogFormat)
	viper.SetDefault("enable_persist", config.EnablePersist)
	viper.SetDefault("data_dir", config.DataDir)
	viper.SetDefault("journal_file", config.JournalFile)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return config, nil
}

// WatchForChanges watches the config file via fsnotify and, after each
// change on disk, invokes onReload with the freshly-unmarshaled config.
// It applies nothing itself; what changes is up to onReload.
func WatchForChanges(onReload func(*Config)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		updated := DefaultConfig()
		if err := viper.Unmarshal(updated); err != nil {
			return
		}
		onReload(updated)
	})
	viper.WatchConfig()
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Port)
	}
	if c.MaxClients < 0 {
		return fmt.Errorf("max_clients must be >= 0 (0 disables the cap)")
	}

	validLogLevels := []string{"trace", "debug", "info", "warn", "error", "fatal"}
	valid := false
	for _, level := range validLogLevels {
		if c.LogLevel == level {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid log_level: %s (must be one of: %s)",
			c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	return nil
}

// BindAddr returns the host:port the server should listen on.
func (c *Config) BindAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) String() string {
	return fmt.Sprintf("redcore config: %s, max_clients=%d, log_level=%s, persist=%t",
		c.BindAddr(), c.MaxClients, c.LogLevel, c.EnablePersist)
}
