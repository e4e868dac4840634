package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/forgeline/assetgen/internal/config"
	"github.com/forgeline/assetgen/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify assetgen configuration",
	Long: `View or modify assetgen configuration.

Without arguments, displays the current configuration.
Use subcommands to modify settings or create a config file.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the user's config file.

Keys use dot notation, e.g.:
  assetgen config set generator.model gemini-3-pro-image-preview
  assetgen config set generation.iterations 5
  assetgen config set deploy.auto false

Valid keys:
  generator.model             - Image producer model identifier
  generator.api_key_env       - Env var holding the API key
  generator.endpoint          - Producer base URL override
  generator.max_retries       - Attempt budget for rate-limited calls
  generator.timeout_seconds   - Per-call producer timeout
  evaluator.model             - Scorer model (empty = generator model)
  evaluator.timeout_seconds   - Per-call scorer timeout
  generation.iterations       - Default iterations per asset type
  generation.variants         - Default variants per iteration
  paths.output_base           - Where per-project output dirs live
  deploy.auto                 - Deploy best assets after a sweep (true/false)
  logging.enabled             - Write a per-session debug log (true/false)
  logging.level               - Log level: debug, info, warn, error`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create a default config file at ~/.config/assetgen/config.yaml with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Get()

	fmt.Println("Current configuration:")
	fmt.Println()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Printf("Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Printf("Config file: (none - using defaults)\n")
	}
	fmt.Println()

	fmt.Println("generator:")
	fmt.Printf("  model: %s\n", cfg.Generator.Model)
	fmt.Printf("  api_key_env: %s\n", cfg.Generator.APIKeyEnv)
	if cfg.Generator.Endpoint != "" {
		fmt.Printf("  endpoint: %s\n", cfg.Generator.Endpoint)
	}
	fmt.Printf("  max_retries: %d\n", cfg.Generator.MaxRetries)
	fmt.Printf("  base_delay_seconds: %g\n", cfg.Generator.BaseDelaySeconds)
	fmt.Printf("  max_delay_seconds: %g\n", cfg.Generator.MaxDelaySeconds)
	fmt.Printf("  timeout_seconds: %d\n", cfg.Generator.TimeoutSeconds)

	fmt.Println("evaluator:")
	if cfg.Evaluator.Model != "" {
		fmt.Printf("  model: %s\n", cfg.Evaluator.Model)
	} else {
		fmt.Printf("  model: (generator model)\n")
	}
	fmt.Printf("  timeout_seconds: %d\n", cfg.Evaluator.TimeoutSeconds)

	fmt.Println("generation:")
	fmt.Printf("  iterations: %d\n", cfg.Generation.Iterations)
	fmt.Printf("  variants: %d\n", cfg.Generation.Variants)

	fmt.Println("paths:")
	fmt.Printf("  output_base: %s\n", cfg.Paths.ResolveOutputBase())

	fmt.Println("deploy:")
	fmt.Printf("  auto: %v\n", cfg.Deploy.Auto)

	fmt.Println("logging:")
	fmt.Printf("  enabled: %v\n", cfg.Logging.Enabled)
	fmt.Printf("  level: %s\n", cfg.Logging.Level)

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	// Validate the key exists
	validKeys := map[string]string{
		"generator.model":              "string",
		"generator.api_key_env":        "string",
		"generator.endpoint":           "string",
		"generator.max_retries":        "int",
		"generator.base_delay_seconds": "float",
		"generator.max_delay_seconds":  "float",
		"generator.timeout_seconds":    "int",
		"evaluator.model":              "string",
		"evaluator.timeout_seconds":    "int",
		"generation.iterations":        "int",
		"generation.variants":          "int",
		"paths.output_base":            "string",
		"deploy.auto":                  "bool",
		"logging.enabled":              "bool",
		"logging.level":                "string",
	}

	keyType, ok := validKeys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s\nRun 'assetgen config set --help' to see valid keys", key)
	}

	// Validate the value based on type
	var typedValue interface{}
	switch keyType {
	case "string":
		if key == "logging.level" && logging.ParseLevel(value) != value {
			return fmt.Errorf("invalid value for %s: %s\nValid options: %s",
				key, value, strings.Join(logging.ValidLevels(), ", "))
		}
		typedValue = value
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = value == "true"
	case "int":
		intVal, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		if intVal < 0 {
			return fmt.Errorf("invalid value for %s: must be non-negative", key)
		}
		typedValue = intVal
	case "float":
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected number", key)
		}
		if floatVal <= 0 {
			return fmt.Errorf("invalid value for %s: must be positive", key)
		}
		typedValue = floatVal
	}

	// Ensure config directory exists
	configDir := config.ConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set the value in viper
	viper.Set(key, typedValue)

	// Write to config file
	configFile := config.ConfigFile()
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Set %s = %v\n", key, typedValue)
	fmt.Printf("Config saved to %s\n", configFile)

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configDir := config.ConfigDir()
	configFile := config.ConfigFile()

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'assetgen config set' to modify values", configFile)
	}

	// Create config directory
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Generate a commented config file
	configContent := `# Assetgen Configuration

# Image producer settings
generator:
  model: gemini-3-pro-image-preview
  # Environment variable holding the API key; never store the key here
  api_key_env: GEMINI_API_KEY
  # Retry budget for rate-limited calls; delays double from base to max
  max_retries: 5
  base_delay_seconds: 2
  max_delay_seconds: 60
  timeout_seconds: 120

# Scorer settings (model empty = reuse generator model)
evaluator:
  timeout_seconds: 60

# Default sweep dimensions
generation:
  iterations: 3
  variants: 3

# Output location for generated assets and session state
paths:
  # Empty means ~/Downloads/asset-gen
  output_base: ""

# Placement of best assets into the project tree after a sweep
deploy:
  auto: true

# Per-session debug log (debug.log in the session directory)
logging:
  enabled: true
  level: info
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created config file at %s\n", configFile)
	fmt.Println("Edit this file to customize assetgen's behavior.")

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()

	if viper.ConfigFileUsed() != "" {
		fmt.Printf("Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Printf("Default path: %s (not created)\n", configFile)
	}

	// Also show config search paths
	fmt.Println("\nSearch paths:")
	fmt.Printf("  1. %s\n", filepath.Join(config.ConfigDir(), "config.yaml"))
	fmt.Printf("  2. $HOME/.config/assetgen/config.yaml\n")
	fmt.Printf("  3. ./config.yaml (current directory)\n")
	fmt.Println("\nEnvironment variables: ASSETGEN_* (e.g., ASSETGEN_GENERATOR_MODEL)")

	return nil
}
