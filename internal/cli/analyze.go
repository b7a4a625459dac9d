package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"quant-engine/internal/engine"
	apperrors "quant-engine/internal/errors"
	"quant-engine/internal/logging"
	"quant-engine/internal/models"
	"quant-engine/internal/store"
	"quant-engine/pkg/utils"
)

// requestOptions are the per-ticker inputs not held in the store.
type requestOptions struct {
	Benchmark        string
	Pair             string
	TradeValue       float64
	ExpectedEdgeBps  float64
	SignalDecayHours float64
	FairValues       []float64
	File             string
}

func newAnalyzeCmd(app *App) *cobra.Command {
	var opts requestOptions
	var detail bool

	cmd := &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Analyze a ticker and print the trade decision",
		Long: `Run mean reversion, momentum, statistical arbitrage, risk and execution
analysis for one ticker and combine them into a decision.

Prices are read from the store unless --file names a CSV with columns
symbol,date,close,volume.`,
		Example: `  quant analyze AAPL
  quant analyze KO --pair PEP --fair-value 64 --fair-value 66.5
  quant analyze ACME --file acme.csv --trade-value 2500000 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			output := NewOutput(cmd)

			req, err := app.buildRequest(ctx, args[0], opts)
			if err != nil {
				return err
			}

			report := app.Engine.Evaluate(ctx, req)
			if output.IsStructured() {
				if detail {
					return output.Structured(report)
				}
				return output.Structured(report.Decision)
			}

			printDecision(output, report.Decision)
			if detail {
				printReport(output, report)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Benchmark, "benchmark", "", "market series for beta and relative strength (default from config)")
	cmd.Flags().StringVar(&opts.Pair, "pair", "", "second leg for pairs analysis")
	cmd.Flags().Float64Var(&opts.TradeValue, "trade-value", 0, "notional trade value (default from config)")
	cmd.Flags().Float64Var(&opts.ExpectedEdgeBps, "edge-bps", 0, "expected edge in basis points (default: statistical arbitrage estimate)")
	cmd.Flags().Float64Var(&opts.SignalDecayHours, "decay-hours", 0, "hours before the signal decays")
	cmd.Flags().Float64SliceVar(&opts.FairValues, "fair-value", nil, "fair value estimate (repeatable)")
	cmd.Flags().StringVar(&opts.File, "file", "", "read prices from a CSV file instead of the store")
	cmd.Flags().BoolVar(&detail, "detail", false, "include every analyzer's output")

	return cmd
}

// buildRequest assembles a ticker request from the store, an optional CSV
// file and command options. Missing series are left empty so the engine
// reports them as insufficient data.
func (app *App) buildRequest(ctx context.Context, symbol string, opts requestOptions) (engine.TickerRequest, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	log := logging.WithSymbol(logging.WithOperation(app.Logger, "load"), symbol)

	req := engine.TickerRequest{
		Ticker:           symbol,
		FairValues:       opts.FairValues,
		TradeValue:       opts.TradeValue,
		ExpectedEdgeBps:  opts.ExpectedEdgeBps,
		SignalDecayHours: opts.SignalDecayHours,
	}
	if req.TradeValue == 0 {
		req.TradeValue = app.Config.Portfolio.TradeValue
	}

	st, err := app.Store()
	if err != nil {
		return req, err
	}

	if opts.File != "" {
		prices, err := loadFilePrices(opts.File, symbol)
		if err != nil {
			return req, err
		}
		req.Prices = prices
	} else {
		req.Prices = app.loadPrices(ctx, log, st, symbol)
	}

	benchmark := opts.Benchmark
	if benchmark == "" {
		benchmark = app.Config.Portfolio.Benchmark
	}
	if benchmark = strings.ToUpper(benchmark); benchmark != "" && benchmark != symbol {
		req.Benchmark = app.loadPrices(ctx, log, st, benchmark)
	}
	if opts.Pair != "" {
		req.Pair = app.loadPrices(ctx, log, st, strings.ToUpper(opts.Pair))
	}

	req.Revenue = loadOptional(ctx, log, st, symbol, store.KindRevenue)
	req.Earnings = loadOptional(ctx, log, st, symbol, store.KindEarnings)

	inst, err := st.GetInstrument(ctx, symbol)
	switch {
	case err == nil:
		req.MarketCap = inst.MarketCap
		req.AvgDailyVolume = inst.AvgDailyVolume
	case !apperrors.Is(err, apperrors.ErrDataNotFound):
		log.Warn().Err(err).Msg("Instrument lookup failed")
	}

	return req, nil
}

// loadPrices reads a series with retry. Absent or unreadable series come back
// empty and are logged.
func (app *App) loadPrices(ctx context.Context, log zerolog.Logger, st store.DataStore, symbol string) models.PriceSeries {
	start := time.Now()
	retry := utils.DefaultRetryConfig()
	retry.PermanentErrors = []error{apperrors.ErrDataNotFound, context.Canceled, context.DeadlineExceeded}

	prices, err := utils.RetryWithResult(ctx, retry, func() (models.PriceSeries, error) {
		return st.GetPrices(ctx, symbol, app.Config.Portfolio.Lookback)
	})
	logging.LogSeriesLoad(log, symbol, len(prices), time.Since(start), err)

	if err != nil && !apperrors.Is(err, apperrors.ErrDataNotFound) {
		log.Warn().Err(apperrors.Wrap(apperrors.ErrUpstreamFetch, err.Error())).Str("series", symbol).Msg("Price load failed")
	}
	return prices
}

func loadOptional(ctx context.Context, log zerolog.Logger, st store.DataStore, symbol string, kind store.FundamentalKind) []float64 {
	values, err := st.GetFundamentals(ctx, symbol, kind)
	if err != nil && !apperrors.Is(err, apperrors.ErrDataNotFound) {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("Fundamentals lookup failed")
	}
	return values
}

func loadFilePrices(path, symbol string) (models.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening price file: %w", err)
	}
	defer f.Close()

	bars, err := store.ParsePriceSeriesCSV(f, symbol)
	if err != nil {
		return nil, err
	}
	return store.Closes(bars), nil
}

func printDecision(output *Output, d models.Decision) {
	output.Bold("%s  %s  (confidence %.1f%%)", d.Ticker, signalLabel(output, d.Signal), d.Confidence)
	output.Println(d.Reasoning)
	output.Println()

	t := NewTable(output, "Score", "Value")
	t.AddRow("Signal", fmt.Sprintf("%.1f / 10", d.SignalScore))
	t.AddRow("Risk", fmt.Sprintf("%.1f / 10", d.RiskScore))
	t.AddRow("Execution", fmt.Sprintf("%.1f / 10", d.ExecutionScore))
	t.AddRow("Arbitrage", fmt.Sprintf("%.1f / 10", d.ArbitrageScore))
	t.AddRow("Statistical edge", utils.FormatBps(d.StatisticalEdge))
	t.Render()
	output.Println()

	p := d.PositionSizing
	output.Bold("Position sizing")
	output.Printf("  Recommended: %.2f%% (max %.1f%%)\n", p.RecommendedSizePct, p.MaxPositionSizePct)
	output.Printf("  Kelly:       %.3f\n", p.KellyFraction)
	output.Printf("  Leverage:    %.2fx\n", p.LeverageRecommendation)

	if len(d.KeyFactors) > 0 {
		output.Println()
		output.Bold("Key factors")
		for _, f := range d.KeyFactors {
			output.Printf("  • %s\n", f)
		}
	}
	if len(d.Risks) > 0 {
		output.Println()
		output.Bold("Risks")
		for _, r := range d.Risks {
			output.Warning("  ! %s", r)
		}
	}
}

func printReport(output *Output, r engine.Report) {
	output.Println()
	output.Bold("Mean reversion")
	output.Printf("  z-score %.2f, hurst %.2f, half-life %s, significance %.2f\n",
		r.MeanReversion.ZScore, r.MeanReversion.Hurst, utils.FormatOptional(r.MeanReversion.HalfLife), r.MeanReversion.StatisticalSignificance)

	output.Bold("Momentum")
	output.Printf("  strength %+.2f over %d bars, trend R² %.2f, relative strength %s\n",
		r.Momentum.SignalStrength, r.Momentum.OptimalLookback, r.Momentum.TrendStrength, utils.FormatOptional(r.Momentum.RelativeStrength))

	output.Bold("Statistical arbitrage")
	output.Printf("  %s regime (%.2f), score %.1f, edge %s\n",
		r.StatArb.Regime, r.StatArb.RegimeConfidence, r.StatArb.ArbitrageScore, utils.FormatBps(r.StatArb.EdgeEstimateBps))
	if p := r.StatArb.Pairs; p != nil {
		output.Printf("  pairs %s, spread z %.2f, hedge ratio %.3f\n", p.Signal, p.SpreadZScore, p.HedgeRatio)
	}

	output.Bold("Risk")
	output.Printf("  volatility %.1f%% (%s), VaR95 %.1f%%, max drawdown %.1f%%\n",
		r.Risk.VolatilityAnnualized*100, r.Risk.VolatilityRegime, r.Risk.VaR95*100, r.Risk.MaxDrawdown*100)
	output.Printf("  sharpe %s, sortino %s, beta %.2f\n",
		utils.FormatOptional(r.Risk.SharpeRatio), utils.FormatOptional(r.Risk.SortinoRatio), r.Risk.Beta)

	output.Bold("Execution")
	output.Printf("  total %s (%s), %s, %.0f minutes\n",
		utils.FormatBps(r.Execution.TotalCostBps), utils.FormatCurrency(r.Execution.TotalCostValue),
		r.Execution.Urgency, r.Execution.ExecutionTimeMinutes)
}

func signalLabel(output *Output, s models.DecisionSignal) string {
	label := strings.ToUpper(string(s))
	switch s {
	case models.SignalBullish:
		return output.Green(label)
	case models.SignalBearish:
		return output.Red(label)
	default:
		return output.Yellow(label)
	}
}
