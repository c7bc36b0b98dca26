// Package config loads the YAML configuration shared by every binary.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"clmm-backtest/internal/domain"
	"clmm-backtest/internal/forecast"
	"clmm-backtest/internal/normalization"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultVolatilityResetRatio applies when strategy.volatility_reset_ratio is omitted.
const DefaultVolatilityResetRatio = 0.5

// Storage backends.
const (
	BackendNone       = "none"
	BackendMemory     = "memory"
	BackendPostgres   = "postgres"
	BackendClickHouse = "clickhouse"
	BackendSQLite     = "sqlite"
)

// Forecast models.
const (
	ModelARGARCH = "argarch"
	ModelStatic  = "static"
)

// Config is the full configuration of a backtest deployment.
type Config struct {
	Pool      PoolConfig      `yaml:"pool"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Inventory InventoryConfig `yaml:"inventory"`
	Data      DataConfig      `yaml:"data"`
	Forecast  ForecastConfig  `yaml:"forecast"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Sweep     SweepConfig     `yaml:"sweep"`
	Server    ServerConfig    `yaml:"server"`
}

// PoolConfig identifies the pool and its static properties.
type PoolConfig struct {
	ID             string  `yaml:"id"`
	FeeRate        float64 `yaml:"fee_rate"` // 0.003 = 30 bps
	Token0Decimals int     `yaml:"token0_decimals"`
	Token1Decimals int     `yaml:"token1_decimals"`
}

// StrategyConfig holds the tunable strategy parameters.
type StrategyConfig struct {
	Alpha                float64       `yaml:"alpha"`
	Tau                  float64       `yaml:"tau"`
	LimitRatioThreshold  float64       `yaml:"limit_ratio_threshold"`
	VolatilityResetRatio *float64      `yaml:"volatility_reset_ratio"` // omitted: 0.5; 0 disables the decay trigger
	VolCheckInterval     time.Duration `yaml:"vol_check_interval"`
}

// InventoryConfig is the starting token inventory, in human units.
type InventoryConfig struct {
	Token0 float64 `yaml:"token0"`
	Token1 float64 `yaml:"token1"`
}

// DataConfig selects the simulated window and input files.
type DataConfig struct {
	Start       time.Time     `yaml:"start"`
	End         time.Time     `yaml:"end"`
	Warmup      time.Duration `yaml:"warmup"`   // price history before start used by the forecaster
	Interval    time.Duration `yaml:"interval"` // aggregation grid
	ChangeLimit float64       `yaml:"change_limit"`
	PricesCSV   string        `yaml:"prices_csv"`
	SwapsCSV    string        `yaml:"swaps_csv"`
}

// ForecastConfig selects the volatility model.
type ForecastConfig struct {
	Model           string  `yaml:"model"` // argarch | static
	MinObservations int     `yaml:"min_observations"`
	MaxIterations   int     `yaml:"max_iterations"`
	StaticMean      float64 `yaml:"static_mean"`
	StaticStdDev    float64 `yaml:"static_stddev"`
}

// StorageConfig picks a backend per store.
type StorageConfig struct {
	Swaps         string `yaml:"swaps"`  // memory | postgres
	Prices        string `yaml:"prices"` // memory | clickhouse
	Steps         string `yaml:"steps"`  // none | memory | postgres | clickhouse
	Runs          string `yaml:"runs"`   // none | memory | postgres | sqlite
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
	SQLitePath    string `yaml:"sqlite_path"`
}

// LogConfig controls log format and level.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
}

// SweepConfig is the parameter grid for cmd/sweep.
type SweepConfig struct {
	Alphas           []float64 `yaml:"alphas"`
	Taus             []float64 `yaml:"taus"`
	LimitRatios      []float64 `yaml:"limit_ratios"`
	VolatilityRatios []float64 `yaml:"volatility_ratios"`
	Concurrency      int       `yaml:"concurrency"`
	Persist          bool      `yaml:"persist"`
}

// ServerConfig controls the results API.
type ServerConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Load reads the YAML file at path, applies .env and environment overrides,
// fills defaults and validates. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUnchecked is Load without validation.
func LoadUnchecked(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg, nil
}

// applyEnvOverrides replaces values with environment variables when set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CLMM_POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLMM_CLICKHOUSE_DSN"); v != "" {
		cfg.Storage.ClickHouseDSN = v
	}
	if v := os.Getenv("CLMM_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("CLMM_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
		cfg.Metrics.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults fills zero values.
func setDefaults(cfg *Config) {
	if cfg.Pool.FeeRate == 0 {
		cfg.Pool.FeeRate = 0.003
	}
	if cfg.Strategy.Alpha == 0 {
		cfg.Strategy.Alpha = 0.5
	}
	if cfg.Strategy.Tau == 0 {
		cfg.Strategy.Tau = 0.95
	}
	if cfg.Strategy.LimitRatioThreshold == 0 {
		cfg.Strategy.LimitRatioThreshold = 0.5
	}
	if cfg.Strategy.VolatilityResetRatio == nil {
		ratio := DefaultVolatilityResetRatio
		cfg.Strategy.VolatilityResetRatio = &ratio
	}
	if cfg.Strategy.VolCheckInterval == 0 {
		cfg.Strategy.VolCheckInterval = time.Duration(domain.DefaultVolCheckIntervalMs) * time.Millisecond
	}
	if cfg.Data.Interval == 0 {
		cfg.Data.Interval = time.Minute
	}
	if cfg.Data.ChangeLimit == 0 {
		cfg.Data.ChangeLimit = normalization.DefaultChangeLimit
	}
	if cfg.Forecast.Model == "" {
		cfg.Forecast.Model = ModelARGARCH
	}
	if cfg.Forecast.MinObservations == 0 {
		cfg.Forecast.MinObservations = forecast.DefaultMinObservations
	}
	if cfg.Forecast.MaxIterations == 0 {
		cfg.Forecast.MaxIterations = forecast.DefaultMaxIterations
	}
	if cfg.Data.Warmup == 0 {
		cfg.Data.Warmup = time.Duration(2*cfg.Forecast.MinObservations) * cfg.Data.Interval
	}
	if cfg.Storage.Swaps == "" {
		cfg.Storage.Swaps = BackendMemory
	}
	if cfg.Storage.Prices == "" {
		cfg.Storage.Prices = BackendMemory
	}
	if cfg.Storage.Steps == "" {
		cfg.Storage.Steps = BackendNone
	}
	if cfg.Storage.Runs == "" {
		cfg.Storage.Runs = BackendNone
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "clmm-backtest.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9090"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "clmm_backtest"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
}

// Validate checks cross-field constraints. Strategy ranges are checked by
// domain.StrategyParams.Validate.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if err := c.Params().Validate(); err != nil {
		add("%v", err)
	}
	if c.Inventory.Token0 < 0 || c.Inventory.Token1 < 0 {
		add("inventory must be non-negative")
	}
	if !c.Data.Start.IsZero() && !c.Data.End.IsZero() && c.Data.End.Before(c.Data.Start) {
		add("data.end before data.start")
	}
	if c.Data.Interval < time.Millisecond {
		add("data.interval must be at least 1ms")
	}
	if c.Data.Warmup < 0 {
		add("data.warmup must be non-negative")
	}
	switch c.Forecast.Model {
	case ModelARGARCH:
	case ModelStatic:
		if !(c.Forecast.StaticStdDev > 0) {
			add("forecast.static_stddev must be positive")
		}
	default:
		add("forecast.model %q not one of argarch|static", c.Forecast.Model)
	}

	checkBackend := func(field, value string, allowed ...string) {
		for _, a := range allowed {
			if value == a {
				return
			}
		}
		add("storage.%s %q not one of %s", field, value, strings.Join(allowed, "|"))
	}
	checkBackend("swaps", c.Storage.Swaps, BackendMemory, BackendPostgres)
	checkBackend("prices", c.Storage.Prices, BackendMemory, BackendClickHouse)
	checkBackend("steps", c.Storage.Steps, BackendNone, BackendMemory, BackendPostgres, BackendClickHouse)
	checkBackend("runs", c.Storage.Runs, BackendNone, BackendMemory, BackendPostgres, BackendSQLite)

	if c.uses(BackendPostgres) && c.Storage.PostgresDSN == "" {
		add("storage.postgres_dsn required by postgres backend")
	}
	if c.uses(BackendClickHouse) && c.Storage.ClickHouseDSN == "" {
		add("storage.clickhouse_dsn required by clickhouse backend")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("log.level %q not one of debug|info|warn|error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		add("log.format %q not one of text|json", c.Log.Format)
	}
	if c.Sweep.Concurrency < 0 {
		add("sweep.concurrency must be non-negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) uses(backend string) bool {
	s := c.Storage
	return s.Swaps == backend || s.Prices == backend || s.Steps == backend || s.Runs == backend
}

// Params returns the strategy parameters for a single run.
func (c *Config) Params() domain.StrategyParams {
	return domain.StrategyParams{
		Alpha:                c.Strategy.Alpha,
		Tau:                  c.Strategy.Tau,
		LimitRatioThreshold:  c.Strategy.LimitRatioThreshold,
		VolatilityResetRatio: c.volatilityResetRatio(),
		FeeRate:              c.Pool.FeeRate,
		Token0Decimals:       c.Pool.Token0Decimals,
		Token1Decimals:       c.Pool.Token1Decimals,
		VolCheckIntervalMs:   c.Strategy.VolCheckInterval.Milliseconds(),
	}
}

func (c *Config) volatilityResetRatio() float64 {
	if c.Strategy.VolatilityResetRatio == nil {
		return DefaultVolatilityResetRatio
	}
	return *c.Strategy.VolatilityResetRatio
}

// NewForecaster builds the configured volatility model.
func (c *Config) NewForecaster() forecast.Forecaster {
	if c.Forecast.Model == ModelStatic {
		return forecast.Static{Mean: c.Forecast.StaticMean, StdDev: c.Forecast.StaticStdDev}
	}
	return forecast.NewARGARCH(forecast.ARGARCHOptions{
		MinObservations: c.Forecast.MinObservations,
		MaxIterations:   c.Forecast.MaxIterations,
	})
}
