// Package config provides configuration management for the backtesting application.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Backtest BacktestConfig `mapstructure:"backtest"`
	Data     DataConfig     `mapstructure:"data"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	UI       UIConfig       `mapstructure:"ui"`
}

// BacktestConfig holds default backtest run parameters. Individual runs
// may override any of these through CLI flags or strategy params.
type BacktestConfig struct {
	InitialBalance      float64 `mapstructure:"initial_balance"`
	Strategy            string  `mapstructure:"strategy"`
	RiskPct             float64 `mapstructure:"risk_pct"`
	ATRStopMultiplier   float64 `mapstructure:"atr_stop_multiplier"`
	ATRTargetMultiplier float64 `mapstructure:"atr_target_multiplier"`
}

// DataConfig holds data source configuration.
type DataConfig struct {
	Dir       string `mapstructure:"dir"`        // directory with bar CSV files
	ResultsDB string `mapstructure:"results_db"` // SQLite database for run results
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	TimeFormat   string `mapstructure:"time_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/llm-ea"
	}
	return filepath.Join(home, ".config", "llm-ea")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
// A missing config file is not an error; defaults apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("backtest.initial_balance", 10000.0)
	v.SetDefault("backtest.strategy", "multi_setup")
	v.SetDefault("backtest.risk_pct", 2.0)
	v.SetDefault("backtest.atr_stop_multiplier", 1.5)
	v.SetDefault("backtest.atr_target_multiplier", 3.0)

	v.SetDefault("data.dir", filepath.Join(configDir, "data"))
	v.SetDefault("data.results_db", filepath.Join(configDir, "backtests.db"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.time_format", "2006-01-02 15:04")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Backtest.InitialBalance <= 0 {
		return fmt.Errorf("backtest.initial_balance must be positive")
	}
	if c.Backtest.RiskPct <= 0 || c.Backtest.RiskPct > 100 {
		return fmt.Errorf("backtest.risk_pct must be in (0, 100]")
	}
	if c.Backtest.ATRStopMultiplier <= 0 {
		return fmt.Errorf("backtest.atr_stop_multiplier must be positive")
	}
	if c.Backtest.ATRTargetMultiplier <= 0 {
		return fmt.Errorf("backtest.atr_target_multiplier must be positive")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	return nil
}
