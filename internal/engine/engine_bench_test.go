package engine

import (
	"context"
	"fmt"
	"testing"
)

func benchmarkRequests(n, length int) []TickerRequest {
	reqs := make([]TickerRequest, n)
	for i := range reqs {
		reqs[i] = TickerRequest{
			Ticker:         fmt.Sprintf("SYM%02d", i),
			Prices:         walk(int64(i+1), length, 0.0003, 0.015),
			Benchmark:      walk(999, length, 0.0002, 0.01),
			Pair:           walk(int64(i+500), length, 0.0003, 0.015),
			FairValues:     []float64{95, 100, 105},
			MarketCap:      20e9,
			AvgDailyVolume: 100e6,
			TradeValue:     1_000_000,
		}
	}
	return reqs
}

// BenchmarkAnalyze benchmarks a single ticker across series lengths.
func BenchmarkAnalyze(b *testing.B) {
	ctx := context.Background()
	e := newEngine(1, nil)

	for _, length := range []int{60, 252, 1260} {
		req := benchmarkRequests(1, length)[0]
		b.Run(fmt.Sprintf("prices=%d", length), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				e.Analyze(ctx, req)
			}
		})
	}
}

// BenchmarkConcurrentSymbolProcessing compares sequential analysis with the
// bounded portfolio fan-out.
func BenchmarkConcurrentSymbolProcessing(b *testing.B) {
	ctx := context.Background()
	reqs := benchmarkRequests(10, 500)

	b.Run("Sequential", func(b *testing.B) {
		e := newEngine(1, nil)
		for i := 0; i < b.N; i++ {
			for _, req := range reqs {
				e.Analyze(ctx, req)
			}
		}
	})

	for _, workers := range []int{1, 4, 8} {
		b.Run(fmt.Sprintf("Portfolio/workers=%d", workers), func(b *testing.B) {
			e := newEngine(workers, nil)
			for i := 0; i < b.N; i++ {
				e.AnalyzePortfolio(ctx, reqs)
			}
		})
	}
}
