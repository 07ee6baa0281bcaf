// Package config loads roadprog configuration.
//
// Configuration comes from roadprog.yaml (searched in the working
// directory, then the data directory), overridden by ROADPROG_* environment
// variables. Every key has a default, so running with no config file works
// out of the box.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds the resolved configuration.
type Config struct {
	// DataDir is where the data files and cache live.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// RosterPath is the GeoJSON suburb allocation export.
	RosterPath string `mapstructure:"roster_path" yaml:"roster_path"`

	// NameColumn and AssignedColumn are the roster attribute names.
	// Shapefile exports differ: some use NAME, others SUBURB.
	NameColumn     string `mapstructure:"name_column" yaml:"name_column"`
	AssignedColumn string `mapstructure:"assigned_column" yaml:"assigned_column"`

	// CompletionFile is the completion log CSV.
	CompletionFile string `mapstructure:"completion_file" yaml:"completion_file"`

	// OverrideFile is the reassignment override CSV.
	OverrideFile string `mapstructure:"override_file" yaml:"override_file"`

	// CacheFile is the sqlite cache for the dashboard.
	CacheFile string `mapstructure:"cache_file" yaml:"cache_file"`

	// PaletteFile optionally overrides editor colors (TOML).
	PaletteFile string `mapstructure:"palette_file" yaml:"palette_file"`

	// Remote is the git remote the sync adapter pushes to.
	// Empty disables remote sync.
	Remote string `mapstructure:"remote" yaml:"remote"`

	// Ref is the branch to push. Empty means the current branch.
	Ref string `mapstructure:"ref" yaml:"ref"`

	// Port is the dashboard HTTP port.
	Port int `mapstructure:"port" yaml:"port"`

	// LogFile, when set, routes serve-mode logs to a rotated file.
	LogFile string `mapstructure:"log_file" yaml:"log_file"`
}

// defaults returns the built-in configuration.
func defaults() Config {
	return Config{
		DataDir:        "data",
		RosterPath:     filepath.Join("data", "suburbs.geojson"),
		NameColumn:     "NAME",
		AssignedColumn: "Assigned",
		CompletionFile: filepath.Join("data", "completions.csv"),
		OverrideFile:   filepath.Join("data", "overrides.csv"),
		CacheFile:      filepath.Join("data", "cache.db"),
		PaletteFile:    filepath.Join("data", "palette.toml"),
		Port:           8080,
	}
}

// Load resolves configuration from file, environment, and defaults.
// An absent config file is fine; a malformed one is an error.
func Load() (Config, error) {
	v := viper.New()

	def := defaults()
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("roster_path", def.RosterPath)
	v.SetDefault("name_column", def.NameColumn)
	v.SetDefault("assigned_column", def.AssignedColumn)
	v.SetDefault("completion_file", def.CompletionFile)
	v.SetDefault("override_file", def.OverrideFile)
	v.SetDefault("cache_file", def.CacheFile)
	v.SetDefault("palette_file", def.PaletteFile)
	v.SetDefault("remote", def.Remote)
	v.SetDefault("ref", def.Ref)
	v.SetDefault("port", def.Port)
	v.SetDefault("log_file", def.LogFile)

	v.SetConfigName("roadprog")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(def.DataDir)

	v.SetEnvPrefix("ROADPROG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	return cfg, nil
}

// Write emits the configuration as YAML at path, for `roadprog init`.
func (c Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	header := "# roadprog configuration. Every key is optional; these are the defaults.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
