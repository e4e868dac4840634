package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete assetgen configuration
type Config struct {
	Generator  GeneratorConfig  `mapstructure:"generator"`
	Evaluator  EvaluatorConfig  `mapstructure:"evaluator"`
	Generation GenerationConfig `mapstructure:"generation"`
	Paths      PathsConfig      `mapstructure:"paths"`
	Deploy     DeployConfig     `mapstructure:"deploy"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// GeneratorConfig controls the external artifact producer and its retry policy
type GeneratorConfig struct {
	// Model is the producer model identifier
	Model string `mapstructure:"model"`
	// APIKeyEnv is the environment variable holding the producer API key.
	// The key itself never lives in the config file.
	APIKeyEnv string `mapstructure:"api_key_env"`
	// Endpoint overrides the producer base URL (empty = production endpoint)
	Endpoint string `mapstructure:"endpoint"`
	// MaxRetries is the attempt budget for rate-limited calls
	MaxRetries int `mapstructure:"max_retries"`
	// BaseDelaySeconds is the first retry delay; doubles per attempt
	BaseDelaySeconds float64 `mapstructure:"base_delay_seconds"`
	// MaxDelaySeconds caps the backoff delay growth
	MaxDelaySeconds float64 `mapstructure:"max_delay_seconds"`
	// TimeoutSeconds bounds a single producer HTTP call
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// EvaluatorConfig controls the external artifact scorer
type EvaluatorConfig struct {
	// Model is the vision model used for scoring (default: same as generator)
	Model string `mapstructure:"model"`
	// TimeoutSeconds bounds a single scorer HTTP call
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// GenerationConfig controls sweep dimensions
type GenerationConfig struct {
	// Iterations is the default number of iterations per asset type
	Iterations int `mapstructure:"iterations"`
	// Variants is the default number of variants per iteration
	Variants int `mapstructure:"variants"`
}

// PathsConfig controls where assetgen stores generated output
type PathsConfig struct {
	// OutputBase is the directory under which per-project output dirs are
	// created. Supports ~ for home directory expansion.
	// Empty means ~/Downloads/asset-gen.
	OutputBase string `mapstructure:"output_base"`
}

// DeployConfig controls placement of best assets into the project tree
type DeployConfig struct {
	// Auto deploys best selections into the project after a completed sweep
	Auto bool `mapstructure:"auto"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
}

// BaseDelay returns the backoff base delay as a time.Duration
func (g *GeneratorConfig) BaseDelay() time.Duration {
	return time.Duration(g.BaseDelaySeconds * float64(time.Second))
}

// MaxDelay returns the backoff delay cap as a time.Duration
func (g *GeneratorConfig) MaxDelay() time.Duration {
	return time.Duration(g.MaxDelaySeconds * float64(time.Second))
}

// Timeout returns the per-call timeout as a time.Duration
func (g *GeneratorConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// Timeout returns the per-call timeout as a time.Duration
func (e *EvaluatorConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// APIKey reads the producer credential from the configured environment
// variable. Returns empty string when unset.
func (g *GeneratorConfig) APIKey() string {
	return os.Getenv(g.APIKeyEnv)
}

// ResolveOutputBase returns the resolved output base directory.
// If OutputBase is empty, it returns ~/Downloads/asset-gen.
// If OutputBase starts with ~, it expands to the user's home directory.
func (p *PathsConfig) ResolveOutputBase() string {
	path := p.OutputBase
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", "asset-gen")
		}
		return filepath.Join(home, "Downloads", "asset-gen")
	}

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return path
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Generator: GeneratorConfig{
			Model:            "gemini-3-pro-image-preview",
			APIKeyEnv:        "GEMINI_API_KEY",
			Endpoint:         "",
			MaxRetries:       5,
			BaseDelaySeconds: 2.0,
			MaxDelaySeconds:  60.0,
			TimeoutSeconds:   120,
		},
		Evaluator: EvaluatorConfig{
			Model:          "", // Empty means reuse generator.model
			TimeoutSeconds: 60,
		},
		Generation: GenerationConfig{
			Iterations: 3,
			Variants:   3,
		},
		Paths: PathsConfig{
			OutputBase: "", // Empty means ~/Downloads/asset-gen
		},
		Deploy: DeployConfig{
			Auto: true,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Generator defaults
	viper.SetDefault("generator.model", defaults.Generator.Model)
	viper.SetDefault("generator.api_key_env", defaults.Generator.APIKeyEnv)
	viper.SetDefault("generator.endpoint", defaults.Generator.Endpoint)
	viper.SetDefault("generator.max_retries", defaults.Generator.MaxRetries)
	viper.SetDefault("generator.base_delay_seconds", defaults.Generator.BaseDelaySeconds)
	viper.SetDefault("generator.max_delay_seconds", defaults.Generator.MaxDelaySeconds)
	viper.SetDefault("generator.timeout_seconds", defaults.Generator.TimeoutSeconds)

	// Evaluator defaults
	viper.SetDefault("evaluator.model", defaults.Evaluator.Model)
	viper.SetDefault("evaluator.timeout_seconds", defaults.Evaluator.TimeoutSeconds)

	// Generation defaults
	viper.SetDefault("generation.iterations", defaults.Generation.Iterations)
	viper.SetDefault("generation.variants", defaults.Generation.Variants)

	// Paths defaults
	viper.SetDefault("paths.output_base", defaults.Paths.OutputBase)

	// Deploy defaults
	viper.SetDefault("deploy.auto", defaults.Deploy.Auto)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "assetgen")
	}
	// Fall back to ~/.config/assetgen
	home, err := os.UserHomeDir()
	if err != nil {
		return ".assetgen"
	}
	return filepath.Join(home, ".config", "assetgen")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
