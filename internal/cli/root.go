// Package cli provides the command-line interface for the quant engine.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quant-engine/internal/config"
	"quant-engine/internal/engine"
	"quant-engine/internal/logging"
	"quant-engine/internal/metrics"
	"quant-engine/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-19"
)

// skipSetup marks commands that run without loading configuration.
const skipSetup = "skip-setup"

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Engine  *engine.Engine
	Metrics *metrics.Recorder

	store store.DataStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "quant",
		Short: "Quant Engine - statistical signal, risk and execution analysis",
		Long: `Quant Engine scores tickers with mean reversion, momentum and statistical
arbitrage signals, measures their risk and execution cost, and combines them
into a sized trade decision.

Prices come from a local SQLite store (see 'quant import') or a CSV file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipSetup] == "true" {
				return nil
			}
			return app.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default: ~/.config/quant-engine/config.toml)")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("yaml", false, "output in YAML format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newPortfolioCmd(app))
	addDataCommands(rootCmd, app)

	return rootCmd
}

func (app *App) setup(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if dbPath, _ := cmd.Flags().GetString("db"); dbPath != "" {
		cfg.Store.Path = dbPath
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Logging.Level = "debug"
	}

	app.Config = cfg
	app.Logger = logging.NewLogger(cfg.Logging)
	app.Metrics = metrics.NewRecorder()
	app.Engine = engine.New(cfg, app.Logger, app.Metrics)

	app.Logger.Debug().
		Str("db", cfg.Store.Path).
		Int("workers", cfg.Portfolio.Workers).
		Msg("Configuration loaded")
	return nil
}

// Store opens the SQLite store on first use.
func (app *App) Store() (store.DataStore, error) {
	if app.store != nil {
		return app.store, nil
	}

	s, err := store.NewSQLiteStore(app.Config.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", app.Config.Store.Path, err)
	}
	app.store = s
	app.Logger.Debug().Str("path", app.Config.Store.Path).Msg("SQLite store initialized")
	return s, nil
}

// Close releases the store if it was opened.
func (app *App) Close() error {
	if app.store == nil {
		return nil
	}
	err := app.store.Close()
	app.store = nil
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsStructured() {
				return output.Structured(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Quant Engine v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "Create and view the engine configuration.",
	}

	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the default configuration file",
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.DefaultConfigPath()
			}
			force, _ := cmd.Flags().GetBool("force")

			if _, err := os.Stat(path); err == nil && !force {
				output.Warning("Configuration already exists at %s (use --force to overwrite)", path)
				return nil
			}
			if err := config.WriteTemplate(path); err != nil {
				return err
			}
			output.Success("✓ Wrote configuration to %s", path)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsStructured() {
				return output.Structured(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:         "path",
		Short:       "Show configuration file path",
		Annotations: map[string]string{skipSetup: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			output.Println(config.DefaultConfigPath())
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Engine")
	output.Printf("  Database:          %s\n", cfg.Store.Path)
	output.Printf("  Log level:         %s\n", cfg.Logging.Level)
	output.Printf("  Workers:           %d\n", cfg.Portfolio.Workers)
	output.Printf("  Lookback:          %d prices\n", cfg.Portfolio.Lookback)
	output.Printf("  Benchmark:         %s\n", cfg.Portfolio.Benchmark)
	output.Println()

	output.Bold("Signals")
	output.Printf("  Mean reversion:    short %d, long %d\n", cfg.MeanReversion.LookbackShort, cfg.MeanReversion.LookbackLong)
	output.Printf("  Momentum weights:  price %.2f, trend %.2f, accel %.2f, fundamental %.2f\n",
		cfg.Momentum.Weights.Price, cfg.Momentum.Weights.Trend, cfg.Momentum.Weights.Acceleration, cfg.Momentum.Weights.Fundamental)
	output.Printf("  Pairs thresholds:  entry %.2f, exit %.2f\n", cfg.StatArb.EntryThreshold, cfg.StatArb.ExitThreshold)
	output.Println()

	output.Bold("Risk & Sizing")
	output.Printf("  Risk-free rate:    %.2f%%\n", cfg.Risk.RiskFreeRate*100)
	output.Printf("  Max position:      %.1f%%\n", cfg.Risk.MaxPositionPct)
	output.Printf("  Max Kelly:         %.2f\n", cfg.Risk.MaxKellyFraction)
	output.Printf("  Max leverage:      %.1fx\n", cfg.Synthesis.MaxLeverage)
	output.Printf("  Signal threshold:  ±%.2f\n", cfg.Synthesis.SignalThreshold)
	output.Printf("  Weights:           MR %.2f, MOM %.2f, SA %.2f\n",
		cfg.Synthesis.Weights.MeanReversion, cfg.Synthesis.Weights.Momentum, cfg.Synthesis.Weights.StatArb)
}
