package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quant-engine/internal/analysis/execution"
	"quant-engine/internal/analysis/meanreversion"
	"quant-engine/internal/analysis/momentum"
	"quant-engine/internal/analysis/risk"
	"quant-engine/internal/analysis/statarb"
	"quant-engine/internal/analysis/synthesis"
	apperrors "quant-engine/internal/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvDBPath, "")
	t.Setenv(EnvWorkers, "")
}

func TestDefaultConfigMatchesAnalyzers(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, meanreversion.DefaultConfig(), cfg.MeanReversion)
	assert.Equal(t, momentum.DefaultConfig(), cfg.Momentum)
	assert.Equal(t, statarb.DefaultConfig(), cfg.StatArb)
	assert.Equal(t, risk.DefaultConfig(), cfg.Risk)
	assert.Equal(t, execution.DefaultConfig(), cfg.Execution)
	assert.Equal(t, synthesis.DefaultConfig(), cfg.Synthesis)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Portfolio.Workers)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileWritesTemplate(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Template(), string(data))

	want := DefaultConfig()
	want.Store.Path = DefaultDBPath()
	assert.Equal(t, want, cfg)
}

func TestTemplateMatchesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, WriteTemplate(path))

	cfg, err := Load(path)
	require.NoError(t, err)

	want := DefaultConfig()
	want.Store.Path = DefaultDBPath()
	assert.Equal(t, want, cfg)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[portfolio]
workers = 8

[synthesis]
signal_threshold = 0.2

[store]
path = "/tmp/quant-test.db"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Portfolio.Workers)
	assert.Equal(t, 0.2, cfg.Synthesis.SignalThreshold)
	assert.Equal(t, 0.35, cfg.Synthesis.Weights.MeanReversion)
	assert.Equal(t, "/tmp/quant-test.db", cfg.Store.Path)
	assert.Equal(t, 60, cfg.MeanReversion.LookbackLong)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, WriteTemplate(path))

	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvDBPath, "/data/prices.db")
	t.Setenv(EnvWorkers, "12")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/data/prices.db", cfg.Store.Path)
	assert.Equal(t, 12, cfg.Portfolio.Workers)
}

func TestEnvOverrideInvalidWorkers(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, WriteTemplate(path))
	t.Setenv(EnvWorkers, "many")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConfigInvalid))
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Portfolio.Workers = 0
	assert.True(t, apperrors.Is(cfg.Validate(), apperrors.ErrConfigInvalid))

	cfg = DefaultConfig()
	cfg.MeanReversion.LookbackShort = 80
	assert.Error(t, cfg.Validate(), "short lookback longer than long lookback")

	cfg = DefaultConfig()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Synthesis.Weights = synthesis.Weights{}
	assert.True(t, apperrors.Is(cfg.Validate(), apperrors.ErrConfigInvalid))
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[risk]\newma_lambda = 1.5\n"), 0644))

	_, err := Load(path)
	assert.True(t, apperrors.Is(err, apperrors.ErrConfigInvalid))
}
