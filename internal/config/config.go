// Package config provides configuration management for shadowtpl using Viper
// for flexible loading from files, environment variables, and command-line
// flags.
//
// Configuration sources, highest priority first: command-line flags, SHADOWTPL_
// prefixed environment variables, and a .shadowtpl.yml file in the working
// directory.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/conneroisu/shadowtpl/internal/errors"
)

type Config struct {
	Templates TemplatesConfig `yaml:"templates"`
	Preview   PreviewConfig   `yaml:"preview"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type TemplatesConfig struct {
	ScanPaths       []string `yaml:"scan_paths"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

type PreviewConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load builds a Config from viper's merged sources and applies defaults for
// anything left unset.
func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, errors.NewConfigError("config_unmarshal", "decoding configuration", err)
	}

	// Workaround for viper slice handling: explicit settings win over the
	// unmarshal result.
	if viper.IsSet("templates.scan_paths") {
		if paths := viper.GetStringSlice("templates.scan_paths"); len(paths) > 0 {
			config.Templates.ScanPaths = paths
		}
	}
	if viper.IsSet("templates.exclude_patterns") {
		if patterns := viper.GetStringSlice("templates.exclude_patterns"); len(patterns) > 0 {
			config.Templates.ExcludePatterns = patterns
		}
	}

	if len(config.Templates.ScanPaths) == 0 {
		config.Templates.ScanPaths = []string{"./templates"}
	}
	if config.Preview.Host == "" {
		config.Preview.Host = "localhost"
	}
	if config.Preview.Port == 0 {
		config.Preview.Port = 8080
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Preview.Port < 1 || c.Preview.Port > 65535 {
		return errors.NewConfigError(
			"invalid_port",
			fmt.Sprintf("preview port %d is outside 1-65535", c.Preview.Port),
			nil,
		)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return errors.NewConfigError(
			"invalid_log_format",
			fmt.Sprintf("logging format %q is not one of text, json", c.Logging.Format),
			nil,
		)
	}

	for _, path := range c.Templates.ScanPaths {
		if path == "" {
			return errors.NewConfigError("invalid_scan_path", "template scan path is empty", nil)
		}
	}

	return nil
}

// PreviewAddr returns the host:port the preview server binds to.
func (c *Config) PreviewAddr() string {
	return fmt.Sprintf("%s:%d", c.Preview.Host, c.Preview.Port)
}
