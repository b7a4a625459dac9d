// Package engine runs every analyzer for a ticker and synthesizes the results
// into a decision, for one ticker or a whole portfolio.
package engine

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"quant-engine/internal/analysis/execution"
	"quant-engine/internal/analysis/meanreversion"
	"quant-engine/internal/analysis/momentum"
	"quant-engine/internal/analysis/risk"
	"quant-engine/internal/analysis/statarb"
	"quant-engine/internal/analysis/stats"
	"quant-engine/internal/analysis/synthesis"
	"quant-engine/internal/config"
	apperrors "quant-engine/internal/errors"
	"quant-engine/internal/logging"
	"quant-engine/internal/metrics"
	"quant-engine/internal/models"
)

// Report is a decision together with the analyzer outputs it was built from.
// Component results are zero when the request was rejected or an analyzer failed.
type Report struct {
	Decision      models.Decision            `json:"decision" yaml:"decision"`
	MeanReversion models.MeanReversionResult `json:"mean_reversion" yaml:"mean_reversion"`
	Momentum      models.MomentumResult      `json:"momentum" yaml:"momentum"`
	StatArb       models.StatArbResult       `json:"stat_arb" yaml:"stat_arb"`
	Risk          models.RiskMetrics         `json:"risk" yaml:"risk"`
	Execution     models.ExecutionAnalysis   `json:"execution" yaml:"execution"`
}

// Engine is safe for concurrent use; analyzers hold no mutable state.
type Engine struct {
	meanReversion *meanreversion.Analyzer
	momentum      *momentum.Analyzer
	statArb       *statarb.Analyzer
	risk          *risk.Analyzer
	execution     *execution.Analyzer
	synthesizer   *synthesis.Synthesizer

	workers int
	logger  zerolog.Logger
	metrics *metrics.Recorder
}

// New creates an engine from configuration. recorder may be nil.
func New(cfg *config.Config, logger zerolog.Logger, recorder *metrics.Recorder) *Engine {
	riskAnalyzer := risk.NewAnalyzer(cfg.Risk)
	workers := cfg.Portfolio.Workers
	if workers < 1 {
		workers = 1
	}

	return &Engine{
		meanReversion: meanreversion.NewAnalyzer(cfg.MeanReversion),
		momentum:      momentum.NewAnalyzer(cfg.Momentum),
		statArb:       statarb.NewAnalyzer(cfg.StatArb),
		risk:          riskAnalyzer,
		execution:     execution.NewAnalyzer(cfg.Execution),
		synthesizer:   synthesis.NewSynthesizer(cfg.Synthesis, riskAnalyzer),
		workers:       workers,
		logger:        logger,
		metrics:       recorder,
	}
}

// Analyze returns the decision for one ticker. It never fails: invalid input,
// missing data and analyzer panics all yield a zero-confidence neutral decision.
func (e *Engine) Analyze(ctx context.Context, req TickerRequest) models.Decision {
	return e.Evaluate(ctx, req).Decision
}

// Evaluate is Analyze with the analyzer outputs attached.
func (e *Engine) Evaluate(ctx context.Context, req TickerRequest) (report Report) {
	log := logging.WithSymbol(logging.WithOperation(e.loggerFor(ctx), "analyze"), req.Ticker)
	start := time.Now()
	done := e.metrics.Start()
	outcome := metrics.OutcomeComputed

	stage := "validation"
	defer func() {
		if r := recover(); r != nil {
			err := apperrors.NewAnalyzerError(stage, req.Ticker, fmt.Errorf("%w: %v", apperrors.ErrAnalyzerPanic, r))
			logging.LogAnalyzerFailure(log, req.Ticker, err)
			report = Report{Decision: models.NeutralDecision(req.Ticker, err.Error())}
			outcome = metrics.OutcomeFailed
		} else if report.Decision.Signal == models.SignalNeutral && report.Decision.Confidence == 0 {
			outcome = metrics.OutcomeNeutral
		}
		done(outcome)
		e.metrics.ObserveDecision(string(report.Decision.Signal))
	}()

	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Msg("Analysis cancelled")
		return Report{Decision: models.NeutralDecision(req.Ticker, "analysis cancelled: "+err.Error())}
	}

	if err := req.Validate(); err != nil {
		log.Warn().Err(err).Msg("Rejected ticker request")
		return Report{Decision: models.NeutralDecision(req.Ticker, err.Error())}
	}

	stage = "mean_reversion"
	report.MeanReversion = e.meanReversion.Analyze(req.Prices)

	stage = "momentum"
	report.Momentum = e.momentum.Analyze(momentum.Input{
		Prices:       req.Prices,
		Revenue:      req.Revenue,
		Earnings:     req.Earnings,
		Benchmark:    req.Benchmark,
		PeerMomentum: req.PeerMomentum,
	})

	stage = "stat_arb"
	report.StatArb = e.statArb.Analyze(statarb.Input{
		Prices:                  req.Prices,
		Pair:                    req.Pair,
		FairValues:              req.FairValues,
		SignalStrength:          report.MeanReversion.SignalStrength,
		StatisticalSignificance: report.MeanReversion.StatisticalSignificance,
	})

	stage = "risk"
	report.Risk = e.risk.Analyze(risk.Input{
		Prices:         req.Prices,
		Market:         req.Benchmark,
		MarketCap:      req.MarketCap,
		AvgDailyVolume: req.AvgDailyVolume,
	})

	edge := req.ExpectedEdgeBps
	if edge == 0 {
		edge = report.StatArb.EdgeEstimateBps
	}

	stage = "execution"
	report.Execution = e.execution.Analyze(execution.Input{
		TradeValue:       req.TradeValue,
		MarketCap:        req.MarketCap,
		AvgDailyVolume:   req.AvgDailyVolume,
		Volatility:       report.Risk.VolatilityAnnualized / math.Sqrt(stats.TradingDaysPerYear),
		ExpectedEdgeBps:  edge,
		SignalDecayHours: req.SignalDecayHours,
	})

	stage = "synthesis"
	report.Decision = e.synthesizer.Synthesize(synthesis.Input{
		Ticker:        req.Ticker,
		MeanReversion: report.MeanReversion,
		Momentum:      report.Momentum,
		StatArb:       report.StatArb,
		Risk:          report.Risk,
		Execution:     report.Execution,
	})

	if report.Decision.Confidence == 0 {
		err := apperrors.NewDataError("series", req.Ticker, strings.Join(report.Decision.Risks, "; "), apperrors.ErrInsufficientData)
		log.Warn().Err(err).Msg("Insufficient data for a decision")
	}
	logging.LogDecision(log, req.Ticker, string(report.Decision.Signal), report.Decision.Confidence,
		report.Decision.StatisticalEdge, time.Since(start))
	return report
}

// AnalyzePortfolio analyzes every request with at most the configured number
// of workers and returns the decisions in request order.
func (e *Engine) AnalyzePortfolio(ctx context.Context, reqs []TickerRequest) []models.Decision {
	reports := e.EvaluatePortfolio(ctx, reqs)
	decisions := make([]models.Decision, len(reports))
	for i, r := range reports {
		decisions[i] = r.Decision
	}
	return decisions
}

// EvaluatePortfolio is AnalyzePortfolio with the analyzer outputs attached.
func (e *Engine) EvaluatePortfolio(ctx context.Context, reqs []TickerRequest) []Report {
	type indexed struct {
		index  int
		report Report
	}

	log := logging.WithOperation(e.loggerFor(ctx), "portfolio")
	start := time.Now()

	results := make(chan indexed, len(reqs))
	var g errgroup.Group
	g.SetLimit(e.workers)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			results <- indexed{index: i, report: e.Evaluate(ctx, req)}
			return nil
		})
	}
	// Workers never return errors; a failed ticker becomes a neutral decision.
	_ = g.Wait()
	close(results)

	reports := make([]Report, len(reqs))
	for r := range results {
		reports[r.index] = r.report
	}

	log.Info().
		Int("tickers", len(reqs)).
		Int("workers", e.workers).
		Dur("elapsed", time.Since(start)).
		Msg("Portfolio analysis complete")
	return reports
}

func (e *Engine) loggerFor(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(logging.LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return e.logger
}
