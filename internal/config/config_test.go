package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chidi150c/swapbacktest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeYAML(t, `
run:
  product: BTC-USD
  bar_file: bars.json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, cfg.Engine.InitialMargin)
	assert.Equal(t, 10, cfg.Engine.Lever)
	assert.Equal(t, 0.004, cfg.Engine.Maintenance)
	assert.Equal(t, "1m", cfg.Run.BarLevel)
	assert.Equal(t, "1m", cfg.Run.StrategyLevel)
	assert.Equal(t, ":9090", cfg.Run.MetricsAddr)
	assert.Equal(t, "BTC-USD", cfg.Run.Product)
}

func TestLoadKeepsExplicitYAMLValues(t *testing.T) {
	path := writeYAML(t, `
engine:
  initial_margin: 5000
  lever: 20
  open_fee: 0.0004
  close_fee: 0.0004
  maintenance: 0.005
run:
  product: ETH-USD
  bar_file: eth.json
  bar_level: 1h
  strategy_level: 4h
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, cfg.Engine.InitialMargin)
	assert.Equal(t, 20, cfg.Engine.Lever)
	assert.Equal(t, 0.005, cfg.Engine.Maintenance)
	assert.Equal(t, "1h", cfg.Run.BarLevel)
	assert.Equal(t, "4h", cfg.Run.StrategyLevel)
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	path := writeYAML(t, `
engine:
  initial_margin: 5000
  lever: 20
run:
  product: ETH-USD
  bar_file: eth.json
`)
	t.Setenv("LEVER", "7")
	t.Setenv("PRODUCT", "BTC-USD")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Engine.Lever)
	assert.Equal(t, "BTC-USD", cfg.Run.Product)
	assert.Equal(t, 5000.0, cfg.Engine.InitialMargin)
}

func TestLoadErrorsOnMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("1h")
	require.NoError(t, err)
	assert.Equal(t, model.Hour1, l)

	_, err = ParseLevel("bogus")
	assert.Error(t, err)
}
