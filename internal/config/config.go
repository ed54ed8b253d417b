// Package config loads jucegen settings from an optional config file, the
// environment and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/c74/jucegen/internal/env"
	"github.com/c74/jucegen/internal/hostdict"
	"github.com/c74/jucegen/internal/platform"
	"github.com/c74/jucegen/internal/post"
)

// EnvPrefix prefixes environment overrides, e.g. JUCEGEN_BUILD_TYPE.
const EnvPrefix = "JUCEGEN"

// Config is the resolved configuration.
type Config struct {
	WorkDir  string `mapstructure:"workdir"`
	Platform string `mapstructure:"platform"`
	LogLevel string `mapstructure:"log_level"`

	Build struct {
		SourceDir string `mapstructure:"source_dir"`
		BuildDir  string `mapstructure:"build_dir"`
		Type      string `mapstructure:"type"`
	} `mapstructure:"build"`

	CMake struct {
		MinVersion string   `mapstructure:"min_version"`
		Defines    []string `mapstructure:"defines"`
	} `mapstructure:"cmake"`

	Dict struct {
		File string `mapstructure:"file"`
		Name string `mapstructure:"name"`
	} `mapstructure:"dict"`

	Platforms platform.Table `mapstructure:"platforms"`

	// Tools is the default table merged with Platforms.
	Tools platform.Table `mapstructure:"-"`
}

// Defaults registers default values on v.
func Defaults(v *viper.Viper) {
	v.SetDefault("platform", runtime.GOOS)
	v.SetDefault("log_level", "info")
	v.SetDefault("build.source_dir", filepath.Join("..", "misc"))
	v.SetDefault("build.build_dir", filepath.Join("..", "misc", "build"))
	v.SetDefault("build.type", "Release")
	v.SetDefault("dict.name", hostdict.DefaultName)
}

// New returns a viper instance reading file (when set) or searching for
// jucegen.yaml in the current and user config directories.
func New(file string) *viper.Viper {
	v := viper.New()
	Defaults(v)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("jucegen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := env.ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, and decodes and validates v.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.resolve(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) resolve() error {
	if c.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		c.WorkDir = wd
	}
	abs, err := filepath.Abs(c.WorkDir)
	if err != nil {
		return err
	}
	c.WorkDir = abs

	if _, err := post.ParseLevel(c.LogLevel); err != nil {
		return err
	}

	c.Tools = platform.Default().Merge(c.Platforms)
	if err := c.Tools.Validate(); err != nil {
		return err
	}
	if _, err := c.Tools.Lookup(c.Platform); err != nil {
		return err
	}
	return nil
}

// Level returns the configured post level.
func (c *Config) Level() post.Level {
	lvl, _ := post.ParseLevel(c.LogLevel)
	return lvl
}

// Abs resolves p against the work directory.
func (c *Config) Abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.WorkDir, p)
}
