package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	// Global settings
	Format  string `mapstructure:"format"`
	Quiet   bool   `mapstructure:"quiet"`
	Verbose bool   `mapstructure:"verbose"`

	Discovery DiscoveryConfig `mapstructure:"discovery"`
}

// DiscoveryConfig holds defaults for the discover command.
type DiscoveryConfig struct {
	Timeout   string   `mapstructure:"timeout"`
	Workers   int      `mapstructure:"workers"`
	CacheFile string   `mapstructure:"cache_file"`
	Include   []string `mapstructure:"include"`
	Exclude   []string `mapstructure:"exclude"`
	Validate  bool     `mapstructure:"validate"`
}

// Default returns a Config with default values. Format is left empty so
// the CLI can pick table on a terminal and json when piped.
func Default() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			Timeout: "300s",
			Workers: 4,
		},
	}
}

// Load loads configuration from files and environment.
// Config file search order (highest precedence first):
// 1. ./.logscout.yaml or ./.logscout.yml
// 2. ~/.logscout.yaml or ~/.logscout.yml
// 3. $XDG_CONFIG_HOME/logscout/config.yaml (or ~/.config/logscout/config.yaml)
// 4. /etc/logscout/config.yaml
func Load() (*Config, error) {
	cfg := Default()

	configFile := findConfigFile()
	if configFile != "" {
		v := viper.New()
		v.SetConfigFile(configFile)

		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigFile returns the path to the config file that would be loaded.
func ConfigFile() string {
	return findConfigFile()
}

// findConfigFile searches for a config file in standard locations.
func findConfigFile() string {
	names := []string{".logscout.yaml", ".logscout.yml", "logscout.yaml", "logscout.yml"}

	home, homeErr := os.UserHomeDir()
	configDir, configDirErr := os.UserConfigDir()

	var searchPaths []string
	if cwd, err := os.Getwd(); err == nil {
		searchPaths = append(searchPaths, cwd)
	}
	if homeErr == nil {
		searchPaths = append(searchPaths, home)
	}
	if configDirErr == nil {
		searchPaths = append(searchPaths, filepath.Join(configDir, "logscout"))
	}
	searchPaths = append(searchPaths, "/etc/logscout")

	for _, dir := range searchPaths {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// applyEnvOverrides applies LOGSCOUT_* environment variables to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOGSCOUT_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("LOGSCOUT_QUIET"); v == "true" || v == "1" {
		cfg.Quiet = true
	}
	if v := os.Getenv("LOGSCOUT_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("LOGSCOUT_TIMEOUT"); v != "" {
		cfg.Discovery.Timeout = v
	}
	if v := os.Getenv("LOGSCOUT_CACHE_FILE"); v != "" {
		cfg.Discovery.CacheFile = v
	}
	if v := os.Getenv("LOGSCOUT_INCLUDE"); v != "" {
		cfg.Discovery.Include = splitList(v)
	}
	if v := os.Getenv("LOGSCOUT_EXCLUDE"); v != "" {
		cfg.Discovery.Exclude = splitList(v)
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
