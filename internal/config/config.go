// Package config loads vipscan settings from defaults, a config file,
// VIPSCAN_* environment variables, and CLI flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for vipscan.
type Config struct {
	// ContentDir is the wp-content root.
	ContentDir string `mapstructure:"content_dir"`

	// LogDir is where per-category reports are stored.
	// Defaults to <content_dir>/uploads/wvc-logs.
	LogDir string `mapstructure:"log_dir"`

	// Concurrency bounds parallel checks. Defaults to the logical CPU count.
	Concurrency int `mapstructure:"concurrency"`

	// Mode is the scan granularity: line or file.
	Mode string `mapstructure:"mode"`

	// ExceptionsFile overlays the embedded exception table.
	ExceptionsFile string `mapstructure:"exceptions_file"`

	// PHPCS is the path of a phpcs binary. Empty disables lint advisories
	// unless phpcs is on PATH and Lint is set.
	PHPCS string `mapstructure:"phpcs"`

	// Lint enables the phpcs advisory pass.
	Lint bool `mapstructure:"lint"`

	// DatabaseDSN enables the database policy check during audits.
	DatabaseDSN string `mapstructure:"database_dsn"`

	// Listen is the serve address.
	Listen string `mapstructure:"listen"`

	// Format is the output format: text, json, or jsonl.
	Format string `mapstructure:"format"`

	// Show selects displayed results in text output: findings or all.
	Show string `mapstructure:"show"`

	Verbose bool `mapstructure:"verbose"`
	Debug   bool `mapstructure:"debug"`
}

// DefaultConfig returns configuration with default values. Concurrency is
// left at zero so the caller can fill it from the host CPU count.
func DefaultConfig() *Config {
	return &Config{
		ContentDir: ".",
		Mode:       "line",
		Listen:     "127.0.0.1:8089",
		Format:     "text",
		Show:       "findings",
	}
}

// Load reads configuration with the following precedence (lowest to highest):
//  1. Default values
//  2. Config file (vipscan.yaml in ., $HOME, or $XDG_CONFIG_HOME/vipscan)
//  3. Environment variables (VIPSCAN_*)
//  4. Flags bound from flags, when non-nil
//
// configPath selects an explicit config file. Validation is left to the
// caller so that concurrency can be defaulted first.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("content_dir", defaults.ContentDir)
	v.SetDefault("log_dir", "")
	v.SetDefault("concurrency", 0)
	v.SetDefault("mode", defaults.Mode)
	v.SetDefault("exceptions_file", "")
	v.SetDefault("phpcs", "")
	v.SetDefault("lint", false)
	v.SetDefault("database_dsn", "")
	v.SetDefault("listen", defaults.Listen)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("show", defaults.Show)
	v.SetDefault("verbose", false)
	v.SetDefault("debug", false)

	v.SetConfigName("vipscan")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "vipscan"))
		}
	}

	v.SetEnvPrefix("VIPSCAN")
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"content-dir": "content_dir",
	"log-dir":     "log_dir",
	"concurrency": "concurrency",
	"mode":        "mode",
	"exceptions":  "exceptions_file",
	"phpcs":       "phpcs",
	"lint":        "lint",
	"database":    "database_dsn",
	"listen":      "listen",
	"format":      "format",
	"show":        "show",
	"verbose":     "verbose",
	"debug":       "debug",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Mode {
	case "line", "file":
	default:
		return fmt.Errorf("invalid mode: %s (must be line or file)", c.Mode)
	}
	switch c.Format {
	case "text", "json", "jsonl":
	default:
		return fmt.Errorf("invalid format: %s (must be text, json, or jsonl)", c.Format)
	}
	switch c.Show {
	case "findings", "all":
	default:
		return fmt.Errorf("invalid show: %s (must be findings or all)", c.Show)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.ContentDir == "" {
		return fmt.Errorf("content_dir cannot be empty")
	}
	return nil
}

// StoreDir returns the report store directory as an absolute path.
func (c *Config) StoreDir() (string, error) {
	dir := c.LogDir
	if dir == "" {
		dir = filepath.Join(c.ContentDir, "uploads", "wvc-logs")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}
	return abs, nil
}

// GenerateSampleConfig returns sample vipscan.yaml content.
func GenerateSampleConfig() string {
	return `# vipscan configuration
# Save as ./vipscan.yaml, ~/vipscan.yaml, or $XDG_CONFIG_HOME/vipscan/vipscan.yaml.
# Every key can also be set as VIPSCAN_<KEY>, e.g. VIPSCAN_CONTENT_DIR.

# WordPress wp-content directory
content_dir: /var/www/html/wp-content

# Report store (default: <content_dir>/uploads/wvc-logs)
# log_dir: /var/log/vipscan

# Parallel checks (default: logical CPUs)
# concurrency: 4

# Scan granularity: line or file
mode: line

# Extra exceptions layered over the built-in table
# exceptions_file: /etc/vipscan/exceptions.yaml

# phpcs advisory pass (never changes verdicts)
# lint: true
# phpcs: /usr/local/bin/phpcs

# Database policy check during audit
# database_dsn: user:pass@tcp(127.0.0.1:3306)/wordpress

# HTTP trigger address for "vipscan serve"
listen: 127.0.0.1:8089

# Output: text, json, or jsonl
format: text
`
}
