package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceSeriesReturns(t *testing.T) {
	r := PriceSeries{110, 100, 0, 50}.Returns()
	require.Len(t, r, 3)
	assert.InDelta(t, 0.1, r[0], 1e-12)
	assert.Equal(t, 0.0, r[1], "zero denominator yields zero return")
	assert.InDelta(t, -1.0, r[2], 1e-12)

	assert.Empty(t, PriceSeries{100}.Returns())
	assert.Empty(t, PriceSeries(nil).Returns())
}

func TestPriceSeriesCurrent(t *testing.T) {
	assert.Equal(t, 101.5, PriceSeries{101.5, 99}.Current())
	assert.Equal(t, 0.0, PriceSeries(nil).Current())
	assert.Equal(t, 2, PriceSeries{1, 2}.Len())
}
