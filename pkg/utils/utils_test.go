package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$0.00", FormatCurrency(decimal.Zero))
	assert.Equal(t, "$999.50", FormatCurrency(decimal.RequireFromString("999.5")))
	assert.Equal(t, "$1,234.57", FormatCurrency(decimal.RequireFromString("1234.567")))
	assert.Equal(t, "-$12,345,678.00", FormatCurrency(decimal.NewFromInt(-12345678)))
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "+1.50%", FormatPercent(1.5))
	assert.Equal(t, "-0.25%", FormatPercent(-0.25))
	assert.Equal(t, "12.3 bps", FormatBps(12.34))
	assert.Equal(t, "50.00B", FormatCompact(50e9))
	assert.Equal(t, "-2.50M", FormatCompact(-2.5e6))
	assert.Equal(t, "12.00", FormatCompact(12))
	assert.Equal(t, "n/a", FormatOptional(nil))
	v := 1.234
	assert.Equal(t, "1.23", FormatOptional(&v))
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}
}

func TestRetryEventuallySucceeds(t *testing.T) {
	calls := 0
	got, err := RetryWithResult(context.Background(), fastRetry(), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("busy")
		}
		return 7, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("not found")
	cfg := fastRetry()
	cfg.PermanentErrors = []error{permanent}

	calls := 0
	err := Retry(context.Background(), cfg, func() error {
		calls++
		return errors.Join(errors.New("lookup"), permanent)
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetryReturnsLastError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastRetry(), func() error {
		calls++
		return errors.New("busy")
	})
	assert.EqualError(t, err, "busy")
	assert.Equal(t, 3, calls)
}

func TestRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := fastRetry()
	cfg.InitialDelay = time.Hour
	cfg.MaxDelay = time.Hour
	err := Retry(ctx, cfg, func() error { return errors.New("busy") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, CalculateBackoff(0, 100*time.Millisecond, time.Second, 2))
	assert.Equal(t, 400*time.Millisecond, CalculateBackoff(2, 100*time.Millisecond, time.Second, 2))
	assert.Equal(t, time.Second, CalculateBackoff(10, 100*time.Millisecond, time.Second, 2))
}
