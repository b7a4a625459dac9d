package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"quant-engine/internal/models"
)

type testEnv struct {
	t      *testing.T
	dir    string
	config string
	db     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("QUANT_LOG_LEVEL", "error")
	t.Setenv("QUANT_DB_PATH", "")
	t.Setenv("QUANT_WORKERS", "")
	return &testEnv{
		t:      t,
		dir:    dir,
		config: filepath.Join(dir, "config.toml"),
		db:     filepath.Join(dir, "quant.db"),
	}
}

func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.config, "--db", e.db}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// writePrices writes a CSV of n daily closes per symbol.
func (e *testEnv) writePrices(n int, symbols ...string) string {
	e.t.Helper()
	var b strings.Builder
	b.WriteString("symbol,date,close,volume\n")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for s, symbol := range symbols {
		rng := rand.New(rand.NewSource(int64(s + 1)))
		price := 100.0
		for i := 0; i < n; i++ {
			price *= math.Exp(0.0004 + 0.015*rng.NormFloat64())
			fmt.Fprintf(&b, "%s,%s,%.4f,%d\n", symbol, start.AddDate(0, 0, i).Format("2006-01-02"), price, 1000+i)
		}
	}
	path := filepath.Join(e.dir, "prices.csv")
	require.NoError(e.t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("version")
	require.NoError(t, err)
	assert.Contains(t, out, "Quant Engine v"+Version)

	out, err = env.run("version", "--json")
	require.NoError(t, err)
	var v map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, Version, v["version"])
}

func TestConfigInitAndShow(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote configuration")
	_, err = os.Stat(env.config)
	require.NoError(t, err)

	out, err = env.run("config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	out, err = env.run("config", "show", "--yaml")
	require.NoError(t, err)
	var cfg map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Contains(t, cfg, "portfolio")

	out, err = env.run("config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, env.db)
}

func TestImportAndAnalyze(t *testing.T) {
	env := newTestEnv(t)
	csv := env.writePrices(150, "ACME", "SPY")

	out, err := env.run("import", csv)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 300 prices")

	_, err = env.run("instrument", "set", "ACME", "--market-cap", "5e10", "--adv", "2e8")
	require.NoError(t, err)
	_, err = env.run("fundamentals", "add", "ACME", "revenue", "2023-12-31=100", "2024-03-31=104", "2024-06-30=109")
	require.NoError(t, err)

	out, err = env.run("analyze", "acme", "--json")
	require.NoError(t, err)

	var d models.Decision
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, "ACME", d.Ticker)
	assert.GreaterOrEqual(t, d.Confidence, 50.0)
	assert.LessOrEqual(t, d.Confidence, 100.0)
	assert.Equal(t, 10.0, d.PositionSizing.MaxPositionSizePct)

	out, err = env.run("analyze", "ACME", "--detail")
	require.NoError(t, err)
	assert.Contains(t, out, "Mean reversion")
	assert.Contains(t, out, "Position sizing")
}

func TestAnalyzeFromFile(t *testing.T) {
	env := newTestEnv(t)
	csv := env.writePrices(120, "FILE")

	out, err := env.run("analyze", "FILE", "--file", csv, "--yaml")
	require.NoError(t, err)

	var d models.Decision
	require.NoError(t, yaml.Unmarshal([]byte(out), &d))
	assert.Equal(t, "FILE", d.Ticker)
	assert.NotZero(t, d.Confidence)

	_, err = env.run("analyze", "OTHER", "--file", csv)
	assert.Error(t, err)
}

func TestAnalyzeMissingSymbolIsNeutral(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("analyze", "GHOST", "--json")
	require.NoError(t, err)

	var d models.Decision
	require.NoError(t, json.Unmarshal([]byte(out), &d))
	assert.Equal(t, models.SignalNeutral, d.Signal)
	assert.Equal(t, 0.0, d.Confidence)
	assert.NotEmpty(t, d.Risks)
}

func TestPortfolio(t *testing.T) {
	env := newTestEnv(t)
	csv := env.writePrices(150, "AAA", "CCC", "SPY")
	_, err := env.run("import", csv)
	require.NoError(t, err)

	metricsPath := filepath.Join(env.dir, "quant.prom")
	out, err := env.run("portfolio", "AAA", "EMPTY", "CCC", "--workers", "2", "--metrics-file", metricsPath, "--json")
	require.NoError(t, err)

	var run PortfolioRun
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.NotEmpty(t, run.RunID)
	require.Len(t, run.Decisions, 3)
	assert.Equal(t, []string{"AAA", "EMPTY", "CCC"}, []string{run.Decisions[0].Ticker, run.Decisions[1].Ticker, run.Decisions[2].Ticker})
	assert.Equal(t, 0.0, run.Decisions[1].Confidence)
	assert.GreaterOrEqual(t, run.Decisions[0].Confidence, 50.0)
	assert.GreaterOrEqual(t, run.Decisions[2].Confidence, 50.0)

	metrics, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), `quant_engine_analyses_total{outcome="neutral"} 1`)

	out, err = env.run("portfolio", "AAA", "CCC")
	require.NoError(t, err)
	assert.Contains(t, out, "Portfolio run")
	assert.Contains(t, out, "AAA")
}

func TestFundamentalsValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("fundamentals", "add", "ACME", "dividends", "2024-01-01=1")
	assert.Error(t, err)

	_, err = env.run("fundamentals", "add", "ACME", "revenue", "2024-01-01")
	assert.Error(t, err)

	_, err = env.run("fundamentals", "add", "ACME", "revenue", "2024-01-01=1.5", "2024-04-01=2")
	require.NoError(t, err)

	out, err := env.run("fundamentals", "show", "ACME", "revenue", "--json")
	require.NoError(t, err)
	var values []float64
	require.NoError(t, json.Unmarshal([]byte(out), &values))
	assert.Equal(t, []float64{2, 1.5}, values)
}

func TestTableAlignsColoredCells(t *testing.T) {
	var buf bytes.Buffer
	output := newOutput(&buf, FormatText)
	table := NewTable(output, "A", "B")
	table.AddRow("\x1b[32mxx\x1b[0m", "1")
	table.AddRow("yyyy", "2")
	table.Render()

	assert.Equal(t, 2, visibleLen("\x1b[32mxx\x1b[0m"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "yyyy  2", stripEscapes(lines[3]))
}

func stripEscapes(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
