// Package config loads pmaxcheck configuration from a YAML file, the environment and flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/danpilch/pmaxcheck/pkg/check"
)

// Source types.
const (
	SourceREST    = "rest"
	SourceFile    = "file"
	SourceCommand = "command"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "PMAXCHECK"

// Config holds application configuration.
type Config struct {
	Unisphere   UnisphereConfig          `mapstructure:"unisphere" yaml:"unisphere"`
	ArrayID     string                   `mapstructure:"array_id" yaml:"array_id"`
	SRPID       string                   `mapstructure:"srp_id" yaml:"srp_id"`
	AlertWindow string                   `mapstructure:"alert_window" yaml:"alert_window"`
	Thresholds  check.CapacityThresholds `mapstructure:"thresholds" yaml:"thresholds"`
	Source      SourceConfig             `mapstructure:"source" yaml:"source"`
	Logging     LoggingConfig            `mapstructure:"logging" yaml:"logging"`
	General     GeneralConfig            `mapstructure:"general" yaml:"general"`
	Output      string                   `mapstructure:"output" yaml:"output"`
}

// UnisphereConfig describes the management REST endpoint.
type UnisphereConfig struct {
	Host       string `mapstructure:"host" yaml:"host"`
	Port       int    `mapstructure:"port" yaml:"port"`
	Username   string `mapstructure:"username" yaml:"username"`
	Password   string `mapstructure:"password" yaml:"password"`
	VerifyTLS  bool   `mapstructure:"verify_tls" yaml:"verify_tls"`
	APIVersion string `mapstructure:"api_version" yaml:"api_version"`
	Timeout    string `mapstructure:"timeout" yaml:"timeout"`
}

// SourceConfig selects where metrics come from.
type SourceConfig struct {
	Type       string `mapstructure:"type" yaml:"type"` // rest, file, command
	Snapshot   string `mapstructure:"snapshot" yaml:"snapshot"`
	Command    string `mapstructure:"command" yaml:"command"`
	OutputFile string `mapstructure:"output_file" yaml:"output_file"`
	Recreate   bool   `mapstructure:"recreate" yaml:"recreate"`
}

// LoggingConfig controls the log file and level.
type LoggingConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// GeneralConfig holds settings shared by the command runner.
type GeneralConfig struct {
	OutputPath     string `mapstructure:"output_path" yaml:"output_path"`
	DefaultTimeout string `mapstructure:"default_timeout" yaml:"default_timeout"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Unisphere: UnisphereConfig{
			Port:       8443,
			VerifyTLS:  false,
			APIVersion: "100",
			Timeout:    "30s",
		},
		SRPID:       "SRP_1",
		AlertWindow: "24h",
		Thresholds:  check.DefaultCapacityThresholds(),
		Source: SourceConfig{
			Type:       SourceREST,
			OutputFile: "snapshot.json",
		},
		Logging: LoggingConfig{
			Path:  "./logs",
			Level: "info",
			File:  "pmaxcheck.log",
		},
		General: GeneralConfig{
			OutputPath:     "./output",
			DefaultTimeout: "30s",
		},
		Output: "text",
	}
}

// NewViper returns a viper instance seeded with defaults and environment bindings.
// Every default key is registered so AutomaticEnv can resolve it during Unmarshal.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("unisphere.host", d.Unisphere.Host)
	v.SetDefault("unisphere.port", d.Unisphere.Port)
	v.SetDefault("unisphere.username", d.Unisphere.Username)
	v.SetDefault("unisphere.password", d.Unisphere.Password)
	v.SetDefault("unisphere.verify_tls", d.Unisphere.VerifyTLS)
	v.SetDefault("unisphere.api_version", d.Unisphere.APIVersion)
	v.SetDefault("unisphere.timeout", d.Unisphere.Timeout)
	v.SetDefault("array_id", d.ArrayID)
	v.SetDefault("srp_id", d.SRPID)
	v.SetDefault("alert_window", d.AlertWindow)
	v.SetDefault("thresholds.used.warning", d.Thresholds.Used.Warning)
	v.SetDefault("thresholds.used.critical", d.Thresholds.Used.Critical)
	v.SetDefault("thresholds.subscribed.warning", d.Thresholds.Subscribed.Warning)
	v.SetDefault("thresholds.subscribed.critical", d.Thresholds.Subscribed.Critical)
	v.SetDefault("source.type", d.Source.Type)
	v.SetDefault("source.snapshot", d.Source.Snapshot)
	v.SetDefault("source.command", d.Source.Command)
	v.SetDefault("source.output_file", d.Source.OutputFile)
	v.SetDefault("source.recreate", d.Source.Recreate)
	v.SetDefault("logging.path", d.Logging.Path)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("general.output_path", d.General.OutputPath)
	v.SetDefault("general.default_timeout", d.General.DefaultTimeout)
	v.SetDefault("output", d.Output)
	return v
}

// Load reads the config file at path (if it exists) into v and decodes the result.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// DiscoverPath resolves the config file location: flag, then $PMAXCHECK_CONFIG,
// then ~/.pmaxcheck/config.yaml.
func DiscoverPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if envPath := os.Getenv(EnvPrefix + "_CONFIG"); envPath != "" {
		return envPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".pmaxcheck", "config.yaml")
	}
	return filepath.Join(home, ".pmaxcheck", "config.yaml")
}

// Validate checks if configuration is valid.
func (c *Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}

	for key, value := range map[string]string{
		"alert_window":            c.AlertWindow,
		"unisphere.timeout":       c.Unisphere.Timeout,
		"general.default_timeout": c.General.DefaultTimeout,
	} {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}

	switch c.Source.Type {
	case SourceREST:
		if c.Unisphere.Host == "" {
			return fmt.Errorf("unisphere.host must be set for the %s source", SourceREST)
		}
		if c.ArrayID == "" {
			return fmt.Errorf("array_id must be set for the %s source", SourceREST)
		}
	case SourceFile:
		if c.Source.Snapshot == "" {
			return fmt.Errorf("source.snapshot must be set for the %s source", SourceFile)
		}
	case SourceCommand:
		if c.Source.Command == "" {
			return fmt.Errorf("source.command must be set for the %s source", SourceCommand)
		}
	default:
		return fmt.Errorf("unknown source type %q (want %s, %s or %s)", c.Source.Type, SourceREST, SourceFile, SourceCommand)
	}
	return nil
}

// AlertWindowDuration returns the alert lookback window.
func (c *Config) AlertWindowDuration() time.Duration {
	return parseDuration(c.AlertWindow, 24*time.Hour)
}

// RequestTimeout returns the REST request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return parseDuration(c.Unisphere.Timeout, 30*time.Second)
}

// CommandTimeout returns the shell command timeout.
func (c *Config) CommandTimeout() time.Duration {
	return parseDuration(c.General.DefaultTimeout, 30*time.Second)
}

// LogFilePath returns the full path of the log file.
func (c *Config) LogFilePath() string {
	if c.Logging.File == "" {
		return ""
	}
	return filepath.Join(c.Logging.Path, c.Logging.File)
}

// Redacted returns a copy with secrets masked.
func (c *Config) Redacted() Config {
	out := *c
	if out.Unisphere.Password != "" {
		out.Unisphere.Password = "********"
	}
	return out
}

// YAML returns the redacted configuration encoded as YAML.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.Redacted())
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
