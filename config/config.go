// Package config manages oc toolchain configuration via Viper.
//
// Configuration is merged in precedence order: defaults, user config
// (~/.config/oc/oc.toml), project config (oc.toml found by walking up
// from the working directory), then OC_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/da0x/oc/errors"
)

// Config holds all toolchain settings.
type Config struct {
	Codegen CodegenConfig `mapstructure:"codegen"`
	Watch   WatchConfig   `mapstructure:"watch"`
}

// CodegenConfig controls the code generator.
type CodegenConfig struct {
	// Dt is the default sample time when a model does not carry one
	Dt float64 `mapstructure:"dt"`
	// MaxDepth bounds subsystem inlining recursion
	MaxDepth int `mapstructure:"max_depth"`
	// Indent is the indentation unit for generated update bodies
	Indent string `mapstructure:"indent"`
}

// WatchConfig controls the `oc watch` command.
type WatchConfig struct {
	// DebounceMs coalesces rapid file-change events
	DebounceMs int `mapstructure:"debounce_ms"`
}

var (
	globalConfig  *Config
	viperInstance *viper.Viper
)

// Load reads the oc configuration using Viper
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	globalConfig = &cfg
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	return initViper()
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", configPath)
	}

	return &cfg, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("codegen.dt", 0.001)      // 1kHz sample time
	v.SetDefault("codegen.max_depth", 10)  // subsystem inlining ceiling
	v.SetDefault("codegen.indent", "        ")
	v.SetDefault("watch.debounce_ms", 500)
}

// initViper initializes Viper with configuration sources and defaults
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix("OC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)
	mergeConfigFiles(v)

	viperInstance = v
	return v
}

// mergeConfigFiles merges user then project config, project winning
func mergeConfigFiles(v *viper.Viper) {
	if userPath := userConfigPath(); userPath != "" {
		mergeFile(v, userPath)
	}
	if projectPath := findProjectConfig(); projectPath != "" {
		mergeFile(v, projectPath)
	}
}

func mergeFile(v *viper.Viper, path string) {
	sub := viper.New()
	sub.SetConfigFile(path)
	sub.SetConfigType("toml")
	if err := sub.ReadInConfig(); err != nil {
		return
	}
	v.MergeConfigMap(sub.AllSettings())
}

func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(home, ".config", "oc", "oc.toml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// findProjectConfig searches for oc.toml by walking up the directory tree.
// Returns the path to the first config file found, or empty string if none found.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		path := filepath.Join(dir, "oc.toml")
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
