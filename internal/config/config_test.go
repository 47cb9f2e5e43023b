package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func packagerFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.BoolP("verbose", "v", false, "")
	flags.Bool("keep-partial", false, "")
	flags.Int("chunk-size", 0, "")
	return flags
}

func TestLoadPackager_defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadPackager("", packagerFlags())
	require.NoError(t, err)
	assert.False(t, cfg.Verbose)
	assert.False(t, cfg.KeepPartial)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.Empty(t, cfg.ConfigFile)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel())
}

func TestLoadPackager_precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(DefaultConfigFile, []byte("keep_partial: true\nchunk_size: 100\nverbose: true\n"), 0644))

	t.Run("config file", func(t *testing.T) {
		cfg, err := LoadPackager("", packagerFlags())
		require.NoError(t, err)
		assert.Equal(t, DefaultConfigFile, cfg.ConfigFile)
		assert.True(t, cfg.KeepPartial)
		assert.True(t, cfg.Verbose)
		assert.Equal(t, 100, cfg.ChunkSize)
		assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("STARGLUE_CHUNK_SIZE", "200")
		cfg, err := LoadPackager("", packagerFlags())
		require.NoError(t, err)
		assert.Equal(t, 200, cfg.ChunkSize)
		assert.True(t, cfg.KeepPartial)
	})

	t.Run("flags override env", func(t *testing.T) {
		t.Setenv("STARGLUE_CHUNK_SIZE", "200")
		flags := packagerFlags()
		require.NoError(t, flags.Parse([]string{"--chunk-size", "300"}))

		cfg, err := LoadPackager("", flags)
		require.NoError(t, err)
		assert.Equal(t, 300, cfg.ChunkSize)
	})

	t.Run("unset flags do not override", func(t *testing.T) {
		flags := packagerFlags()
		require.NoError(t, flags.Parse(nil))

		cfg, err := LoadPackager("", flags)
		require.NoError(t, err)
		assert.True(t, cfg.KeepPartial)
	})
}

func TestLoadPackager_explicitFile(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_size: 42\n"), 0644))

	cfg, err := LoadPackager(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, 42, cfg.ChunkSize)
}

func TestLoadPackager_missingFile(t *testing.T) {
	_, err := LoadPackager(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadPackager_invalidChunkSize(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STARGLUE_CHUNK_SIZE", "0")

	_, err := LoadPackager("", nil)
	assert.EqualError(t, err, "chunk_size must be positive, got 0")
}

func TestLoadRuntime(t *testing.T) {
	cfg, err := LoadRuntime()
	require.NoError(t, err)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Zero(t, cfg.MaxSteps)

	t.Setenv("STARRUN_LOG_LEVEL", "debug")
	t.Setenv("STARRUN_MAX_STEPS", "1000")
	cfg, err = LoadRuntime()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, uint64(1000), cfg.MaxSteps)
}

func TestLoadRuntime_invalidLevel(t *testing.T) {
	t.Setenv("STARRUN_LOG_LEVEL", "loud")
	_, err := LoadRuntime()
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	_, err = ParseLevel("")
	assert.Error(t, err)
}
