package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jeden-/LLM-EA-sub001/internal/config"
	"github.com/jeden-/LLM-EA-sub001/internal/logging"
	"github.com/jeden-/LLM-EA-sub001/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-06-01"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.RunStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	runStore, err := store.NewSQLiteStore(cfg.Data.ResultsDB)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize run store, results will not be saved")
	} else {
		app.Store = runStore
		logger.Debug().Str("db", cfg.Data.ResultsDB).Msg("Run store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "llm-ea",
		Short: "LLM-EA backtester - strategy simulation CLI",
		Long: `LLM-EA backtester simulates trading strategies bar by bar over
historical OHLCV data with ATR-scaled stops and risk-based sizing.

Use 'llm-ea backtest run' to simulate a strategy over a CSV bar file,
'llm-ea backtest compare' to race strategies against each other, and
'llm-ea backtest runs' to browse saved results.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/llm-ea)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newBacktestCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("LLM-EA backtester v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Backtest Defaults")
	output.Printf("  Strategy:         %s\n", cfg.Backtest.Strategy)
	output.Printf("  Initial Balance:  %s\n", FormatCurrency(cfg.Backtest.InitialBalance))
	output.Printf("  Risk %%:           %.1f%%\n", cfg.Backtest.RiskPct)
	output.Printf("  ATR Stop Mult:    %.1f\n", cfg.Backtest.ATRStopMultiplier)
	output.Printf("  ATR Target Mult:  %.1f\n", cfg.Backtest.ATRTargetMultiplier)
	output.Println()

	output.Bold("Data")
	output.Printf("  Bar Directory:    %s\n", cfg.Data.Dir)
	output.Printf("  Results DB:       %s\n", cfg.Data.ResultsDB)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:            %s\n", cfg.Logging.Level)
	output.Printf("  Console:          %v\n", cfg.Logging.Console)
	output.Printf("  File:             %v\n", cfg.Logging.File)

	return nil
}
