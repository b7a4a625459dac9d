package store

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "quant-engine/internal/errors"
	"quant-engine/internal/models"
)

// csvDateLayouts are the accepted date formats, tried in order.
var csvDateLayouts = []string{"2006-01-02", time.RFC3339, "2006/01/02", "01/02/2006"}

// priceRow is one line of a price CSV with header symbol,date,close,volume.
type priceRow struct {
	Symbol string  `csv:"symbol"`
	Date   string  `csv:"date"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

// ImportCSV loads daily closes from CSV and stores them in one transaction.
// It returns the number of rows imported.
func (s *SQLiteStore) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	bySymbol, err := ParsePriceCSV(r)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrDatabaseError, fmt.Sprintf("failed to begin transaction: %v", err))
	}
	defer tx.Rollback()

	symbols := make([]string, 0, len(bySymbol))
	for symbol := range bySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	count := 0
	for _, symbol := range symbols {
		if err := insertPrices(ctx, tx, symbol, bySymbol[symbol]); err != nil {
			return 0, err
		}
		count += len(bySymbol[symbol])
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrDatabaseError, fmt.Sprintf("failed to commit transaction: %v", err))
	}

	return count, nil
}

// ParsePriceCSV decodes a price CSV into bars grouped by upper-cased symbol.
// Rows without a symbol, or with an unparseable date, are rejected.
func ParsePriceCSV(r io.Reader) (map[string][]PriceBar, error) {
	var rows []*priceRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("decoding price csv: %v", err))
	}

	bySymbol := make(map[string][]PriceBar)
	for i, row := range rows {
		line := i + 2 // header is line 1
		symbol := normalizeSymbol(row.Symbol)
		if symbol == "" {
			return nil, apperrors.NewValidationError("symbol", row.Symbol, fmt.Sprintf("line %d: symbol is required", line))
		}
		date, err := parseCSVDate(row.Date)
		if err != nil {
			return nil, apperrors.NewValidationError("date", row.Date, fmt.Sprintf("line %d: unrecognized date", line))
		}
		bySymbol[symbol] = append(bySymbol[symbol], PriceBar{Date: date, Close: row.Close, Volume: row.Volume})
	}

	return bySymbol, nil
}

// ParsePriceSeriesCSV decodes the bars of one symbol from a price CSV,
// newest first.
func ParsePriceSeriesCSV(r io.Reader, symbol string) ([]PriceBar, error) {
	bySymbol, err := ParsePriceCSV(r)
	if err != nil {
		return nil, err
	}

	symbol = normalizeSymbol(symbol)
	bars := bySymbol[symbol]
	if len(bars) == 0 {
		return nil, apperrors.NewDataError("prices", symbol, "symbol not in csv", apperrors.ErrDataNotFound)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.After(bars[j].Date) })
	return bars, nil
}

// Closes extracts the close prices of bars in their current order.
func Closes(bars []PriceBar) models.PriceSeries {
	series := make(models.PriceSeries, len(bars))
	for i, b := range bars {
		series[i] = b.Close
	}
	return series
}

func parseCSVDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
