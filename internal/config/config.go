// Package config loads the configuration of the packager and the bootstrap runtime.
//
// Precedence (highest to lowest): flags > env vars > config file > defaults.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Environment variable prefixes.
const (
	PackagerEnvPrefix = "STARGLUE_"
	RuntimeEnvPrefix  = "STARRUN_"
)

// DefaultConfigFile is read by the packager if it exists and no other file was given.
const DefaultConfigFile = "starglue.yaml"

// Default configuration values.
const (
	DefaultChunkSize = 32 * 1024
	DefaultLogLevel  = "warn"
)

// Packager holds the options of the packaging tool.
type Packager struct {
	Verbose     bool `koanf:"verbose"`
	KeepPartial bool `koanf:"keep_partial"`
	ChunkSize   int  `koanf:"chunk_size"`

	// ConfigFile is the config file that was read, if any.
	ConfigFile string `koanf:"-"`
}

// Runtime holds the options of the bootstrap runtime.
// Glued programs are configured via environment variables only.
type Runtime struct {
	LogLevel string `koanf:"log_level"`
	MaxSteps uint64 `koanf:"max_steps"` // 0 = unlimited
}

// LoadPackager loads the packager configuration.
// cfgFile is optional; if empty, DefaultConfigFile is used if present.
// Only flags that were explicitly set override other sources.
func LoadPackager(cfgFile string, flags *pflag.FlagSet) (*Packager, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"verbose":      false,
		"keep_partial": false,
		"chunk_size":   DefaultChunkSize,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if cfgFile == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			cfgFile = DefaultConfigFile
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment variables
	// Transform: STARGLUE_KEEP_PARTIAL -> keep_partial
	if err := k.Load(envProvider(PackagerEnvPrefix), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Packager
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigFile = cfgFile

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Packager) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	return nil
}

// LogLevel returns the level for the packager's progress output.
func (c *Packager) LogLevel() slog.Level {
	if c.Verbose {
		return slog.LevelInfo
	}
	return slog.LevelWarn
}

// LoadRuntime loads the bootstrap configuration from the environment.
func LoadRuntime() (*Runtime, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"log_level": DefaultLogLevel,
		"max_steps": 0,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(envProvider(RuntimeEnvPrefix), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Runtime
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envProvider(prefix string) *env.Env {
	return env.Provider(prefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, prefix))
	})
}

// ParseLevel parses a log level name such as "debug" or "warn".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// NewLogger returns a text logger writing to w.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
