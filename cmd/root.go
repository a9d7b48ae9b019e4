// Package cmd provides the command-line interface for shadowtpl.
//
// Configuration is loaded through multiple sources with clear precedence:
//  1. Command-line flags (--config, --log-level, ...) - highest priority
//  2. SHADOWTPL_ prefixed environment variables (SHADOWTPL_PREVIEW_PORT, ...)
//  3. Configuration file (.shadowtpl.yml) - lowest priority
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/shadowtpl/internal/config"
	"github.com/conneroisu/shadowtpl/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shadowtpl",
	Short: "A scoped component templating engine with named slots",
	Long: `shadowtpl compiles declarative templates (markup + style block + named
slots) into reusable, style-encapsulated components and projects external
content into their slots without style leakage in either direction.

Key Features:
  • Template compilation with slot validation
  • Per-component style encapsulation boundaries
  • Named content projection
  • Process-wide component registry with explicit lifecycle
  • Live preview server with hot reload

Quick Start:
  shadowtpl validate              Validate all template files
  shadowtpl list                  List templates and their slots
  shadowtpl render card           Render one template to stdout
  shadowtpl preview               Start the preview server

Command Aliases (for faster typing):
  validate (v), render (r), list (l), preview (p)`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .shadowtpl.yml)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig initializes the configuration system.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".shadowtpl")
		viper.SetConfigType("yml")
	}

	viper.SetEnvPrefix("SHADOWTPL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; defaults and env vars still apply.
	_ = viper.ReadInConfig()
}

// loadConfig loads the merged configuration and a logger built from it.
func loadConfig() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger := logging.NewLogger(&logging.Config{
		Level:  logging.ParseLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: rootCmd.ErrOrStderr(),
	})

	return cfg, logger, nil
}
