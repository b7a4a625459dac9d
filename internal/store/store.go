// Package store provides persistence for the series the engine analyzes.
package store

import (
	"context"
	"io"
	"time"

	"quant-engine/internal/models"
)

// FundamentalKind names a fundamental series.
type FundamentalKind string

// Fundamental series kinds.
const (
	KindRevenue  FundamentalKind = "revenue"
	KindEarnings FundamentalKind = "earnings"
)

// PriceBar is one daily close.
type PriceBar struct {
	Date   time.Time
	Close  float64
	Volume float64
}

// FundamentalPoint is one reported value for a period.
type FundamentalPoint struct {
	Period time.Time
	Value  float64
}

// Instrument holds the size and liquidity figures used for risk and execution.
type Instrument struct {
	Symbol         string
	MarketCap      float64
	AvgDailyVolume float64 // dollars
	UpdatedAt      time.Time
}

// DataStore defines the interface for series persistence. Series are returned
// newest first; a symbol with no rows yields ErrDataNotFound.
type DataStore interface {
	// Prices
	SavePrices(ctx context.Context, symbol string, bars []PriceBar) error
	GetPrices(ctx context.Context, symbol string, limit int) (models.PriceSeries, error)
	ImportCSV(ctx context.Context, r io.Reader) (int, error)

	// Fundamentals
	SaveFundamentals(ctx context.Context, symbol string, kind FundamentalKind, points []FundamentalPoint) error
	GetFundamentals(ctx context.Context, symbol string, kind FundamentalKind) ([]float64, error)

	// Instruments
	SaveInstrument(ctx context.Context, inst Instrument) error
	GetInstrument(ctx context.Context, symbol string) (*Instrument, error)

	// Lifecycle
	Close() error
}
