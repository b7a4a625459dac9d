package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARNING "))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "quant.log")
	logger := NewLogger(LogConfig{Level: "debug", File: true, FilePath: path, MaxSize: 1})

	tagged := WithOperation(WithSymbol(logger, "ACME"), "analyze")
	tagged.Info().Msg("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "ACME", entry["symbol"])
	assert.Equal(t, "analyze", entry["operation"])
	assert.Equal(t, "hello", entry["message"])
}

func TestConsoleLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(LogConfig{Level: "warn", Console: true}, &buf)

	logger.Info().Msg("quiet")
	logger.Warn().Msg("loud")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
}

func TestNoWritersDiscards(t *testing.T) {
	logger := NewLogger(LogConfig{Level: "info"})
	logger.Info().Msg("dropped")
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	assert.Equal(t, zerolog.Disabled, FromContext(context.Background()).GetLevel())

	ctx := WithLogger(context.Background(), WithRunID(logger, "run-1"))
	fromCtx := FromContext(ctx)
	fromCtx.Info().Msg("x")
	assert.Contains(t, buf.String(), `"run_id":"run-1"`)
}

func TestEventHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	LogDecision(logger, "ACME", "bullish", 72.5, 14, 3*time.Millisecond)
	LogAnalyzerFailure(logger, "ACME", errors.New("boom"))
	LogSeriesLoad(logger, "ACME", 120, time.Millisecond, nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var decision map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &decision))
	assert.Equal(t, "decision", decision["event"])
	assert.Equal(t, "bullish", decision["signal"])
	assert.Equal(t, 72.5, decision["confidence"])

	assert.Contains(t, lines[1], `"error":"boom"`)
	assert.Contains(t, lines[2], `"points":120`)
}
