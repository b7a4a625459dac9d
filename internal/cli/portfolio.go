package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"quant-engine/internal/engine"
	"quant-engine/internal/logging"
	"quant-engine/internal/models"
)

// PortfolioRun is the structured result of a portfolio command.
type PortfolioRun struct {
	RunID     string            `json:"run_id" yaml:"run_id"`
	StartedAt time.Time         `json:"started_at" yaml:"started_at"`
	Elapsed   string            `json:"elapsed" yaml:"elapsed"`
	Decisions []models.Decision `json:"decisions" yaml:"decisions"`
}

func newPortfolioCmd(app *App) *cobra.Command {
	var opts requestOptions
	var workers int
	var metricsFile string

	cmd := &cobra.Command{
		Use:   "portfolio <symbol>...",
		Short: "Analyze several tickers concurrently",
		Long: `Analyze every symbol with a bounded worker pool. A ticker whose data is
missing or invalid gets a neutral decision without affecting the others.`,
		Example: `  quant portfolio AAPL MSFT GOOG --workers 8
  quant portfolio KO PEP --metrics-file /var/lib/node_exporter/quant.prom`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			output := NewOutput(cmd)

			if workers > 0 {
				app.Config.Portfolio.Workers = workers
				app.Engine = engine.New(app.Config, app.Logger, app.Metrics)
			}
			if metricsFile == "" {
				metricsFile = app.Config.Portfolio.MetricsFile
			}

			run := PortfolioRun{RunID: uuid.NewString(), StartedAt: time.Now()}
			logger := logging.WithRunID(app.Logger, run.RunID)
			ctx = logging.WithLogger(ctx, logger)

			reqs := make([]engine.TickerRequest, 0, len(args))
			for _, symbol := range args {
				req, err := app.buildRequest(ctx, symbol, opts)
				if err != nil {
					return err
				}
				reqs = append(reqs, req)
			}

			run.Decisions = app.Engine.AnalyzePortfolio(ctx, reqs)
			run.Elapsed = time.Since(run.StartedAt).Round(time.Millisecond).String()

			if metricsFile != "" {
				if err := app.Metrics.WriteTextfile(metricsFile); err != nil {
					logger.Warn().Err(err).Str("path", metricsFile).Msg("Failed to write metrics")
				}
			}

			if output.IsStructured() {
				return output.Structured(run)
			}
			printPortfolio(output, run)
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent analyses (default from config)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
	cmd.Flags().StringVar(&opts.Benchmark, "benchmark", "", "market series for beta and relative strength (default from config)")
	cmd.Flags().Float64Var(&opts.TradeValue, "trade-value", 0, "notional trade value per ticker (default from config)")
	cmd.Flags().Float64Var(&opts.SignalDecayHours, "decay-hours", 0, "hours before signals decay")

	return cmd
}

func printPortfolio(output *Output, run PortfolioRun) {
	output.Bold("Portfolio run %s", run.RunID)
	output.Dim("%d tickers in %s", len(run.Decisions), run.Elapsed)
	output.Println()

	t := NewTable(output, "Ticker", "Signal", "Confidence", "Edge", "Size", "Risk", "Notes")
	for _, d := range run.Decisions {
		notes := ""
		switch {
		case d.Confidence == 0 && len(d.Risks) > 0:
			notes = d.Risks[0]
		case len(d.KeyFactors) > 0:
			notes = d.KeyFactors[0]
		}
		t.AddRow(
			d.Ticker,
			signalLabel(output, d.Signal),
			fmt.Sprintf("%.1f%%", d.Confidence),
			fmt.Sprintf("%.1f", d.StatisticalEdge),
			fmt.Sprintf("%.2f%%", d.PositionSizing.RecommendedSizePct),
			fmt.Sprintf("%.1f", d.RiskScore),
			notes,
		)
	}
	t.Render()
}
