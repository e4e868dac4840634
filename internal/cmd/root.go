package cmd

import (
	"strings"

	"github.com/forgeline/assetgen/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "assetgen",
	Short: "Iterative app asset generation with AI evaluation",
	Long: `Assetgen generates app store assets (icons, splash screens, feature
graphics) by sweeping an AI image producer across multiple iterations and
variants, scoring each result, and keeping the best one per asset type.

Every completed iteration is persisted, so an interrupted run can be
resumed from exactly where it stopped.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/assetgen/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/assetgen")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("ASSETGEN")
	// Replace dots with underscores for nested keys in env vars
	// e.g., ASSETGEN_GENERATOR_MODEL for generator.model
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
