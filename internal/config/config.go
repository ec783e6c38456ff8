// Package config loads the backtester's run configuration from a YAML file
// overlaid with a .env file and process environment variables, the way
// the teacher's env.go getEnv helpers and AlejandroRuiz99-polybot's
// config.Load combine a structured file with env overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chidi150c/swapbacktest/internal/engine"
	"github.com/chidi150c/swapbacktest/internal/model"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full run configuration: the engine's trading knobs plus
// the replay-level settings (which product, which bar file, at what
// cadence).
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Run    RunConfig    `yaml:"run"`
}

// EngineConfig mirrors engine.Config in YAML-friendly form.
type EngineConfig struct {
	InitialMargin float64 `yaml:"initial_margin"`
	Lever         int     `yaml:"lever"`
	OpenFee       float64 `yaml:"open_fee"`
	CloseFee      float64 `yaml:"close_fee"`
	Deviation     float64 `yaml:"deviation"`
	Maintenance   float64 `yaml:"maintenance"`
	// DefaultQuantityCoins/DefaultMarginRatio fill in a strategy order's
	// Quantity/Margin when it leaves them unset (model.Unit{Kind: UnitIgnore}).
	DefaultQuantityCoins float64 `yaml:"default_quantity_coins"`
	DefaultMarginRatio   float64 `yaml:"default_margin_ratio"`
}

// ToEngineConfig builds the engine.Config consumed by engine.New.
func (c EngineConfig) ToEngineConfig() engine.Config {
	cfg := engine.Config{
		InitialMargin: c.InitialMargin,
		Lever:         c.Lever,
		OpenFee:       c.OpenFee,
		CloseFee:      c.CloseFee,
		Deviation:     c.Deviation,
		Maintenance:   c.Maintenance,
	}
	if c.DefaultQuantityCoins > 0 {
		cfg.DefaultQuantity = model.Quantity(c.DefaultQuantityCoins)
	}
	if c.DefaultMarginRatio > 0 {
		cfg.DefaultMargin = model.Proportion(c.DefaultMarginRatio)
	}
	return cfg
}

// RunConfig describes one replay invocation.
type RunConfig struct {
	Product       string  `yaml:"product"`
	BarFile       string  `yaml:"bar_file"`
	MinSize       float64 `yaml:"min_size"`
	MinNotional   float64 `yaml:"min_notional"`
	BarLevel      string  `yaml:"bar_level"`
	StrategyLevel string  `yaml:"strategy_level"`
	MetricsAddr   string  `yaml:"metrics_addr"`
}

// Load reads path's YAML, overlays a .env file (if present) and process
// environment variables, and fills in defaults for anything still unset.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Engine.InitialMargin = getEnvFloat("INITIAL_MARGIN", cfg.Engine.InitialMargin)
	cfg.Engine.Lever = getEnvInt("LEVER", cfg.Engine.Lever)
	cfg.Engine.OpenFee = getEnvFloat("OPEN_FEE", cfg.Engine.OpenFee)
	cfg.Engine.CloseFee = getEnvFloat("CLOSE_FEE", cfg.Engine.CloseFee)
	cfg.Engine.Deviation = getEnvFloat("DEVIATION", cfg.Engine.Deviation)
	cfg.Engine.Maintenance = getEnvFloat("MAINTENANCE", cfg.Engine.Maintenance)
	cfg.Engine.DefaultQuantityCoins = getEnvFloat("DEFAULT_QUANTITY_COINS", cfg.Engine.DefaultQuantityCoins)
	cfg.Engine.DefaultMarginRatio = getEnvFloat("DEFAULT_MARGIN_RATIO", cfg.Engine.DefaultMarginRatio)

	cfg.Run.Product = getEnv("PRODUCT", cfg.Run.Product)
	cfg.Run.BarFile = getEnv("BAR_FILE", cfg.Run.BarFile)
	cfg.Run.MinSize = getEnvFloat("MIN_SIZE", cfg.Run.MinSize)
	cfg.Run.MinNotional = getEnvFloat("MIN_NOTIONAL", cfg.Run.MinNotional)
	cfg.Run.BarLevel = getEnv("BAR_LEVEL", cfg.Run.BarLevel)
	cfg.Run.StrategyLevel = getEnv("STRATEGY_LEVEL", cfg.Run.StrategyLevel)
	cfg.Run.MetricsAddr = getEnv("METRICS_ADDR", cfg.Run.MetricsAddr)
}

func setDefaults(cfg *Config) {
	if cfg.Engine.InitialMargin <= 0 {
		cfg.Engine.InitialMargin = 10000
	}
	if cfg.Engine.Lever <= 0 {
		cfg.Engine.Lever = 10
	}
	if cfg.Engine.Maintenance <= 0 {
		cfg.Engine.Maintenance = 0.004
	}
	if cfg.Run.BarLevel == "" {
		cfg.Run.BarLevel = "1m"
	}
	if cfg.Run.StrategyLevel == "" {
		cfg.Run.StrategyLevel = cfg.Run.BarLevel
	}
	if cfg.Run.MetricsAddr == "" {
		cfg.Run.MetricsAddr = ":9090"
	}
}

var levelsByName = map[string]model.Level{
	"1m": model.Minute1, "3m": model.Minute3, "5m": model.Minute5,
	"15m": model.Minute15, "30m": model.Minute30,
	"1h": model.Hour1, "2h": model.Hour2, "4h": model.Hour4, "6h": model.Hour6, "12h": model.Hour12,
	"1d": model.Day1, "3d": model.Day3, "1w": model.Week1, "1M": model.Month1,
}

// ParseLevel resolves a config string like "1h" to a model.Level.
func ParseLevel(s string) (model.Level, error) {
	if l, ok := levelsByName[s]; ok {
		return l, nil
	}
	return 0, fmt.Errorf("config: unknown level %q", s)
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
