package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Quant Engine Configuration

[logging]
# Level: debug, info, warn, error
level = "info"
console = true
# Rotating file log, defaults to ~/.config/quant-engine/logs/quant.log
file = false
file_path = ""
max_size = 50
max_backups = 5
max_age = 30

[store]
# SQLite database, defaults to ~/.config/quant-engine/quant.db
path = ""

[portfolio]
# Concurrent ticker analyses
workers = 4
# Prices loaded per ticker
lookback = 252
# Notional trade value used for execution costs
trade_value = 100000.0
# Market series used for beta and relative strength
benchmark = "SPY"
# Prometheus textfile written after each portfolio run
metrics_file = ""

[mean_reversion]
lookback_short = 20
lookback_long = 60

[momentum]
min_data_points = 21

[momentum.weights]
price = 0.6
trend = 0.2
acceleration = 0.1
fundamental = 0.1

[stat_arb]
regime_window = 60
# Pairs spread z-score thresholds
entry_threshold = 2.0
exit_threshold = 0.5
# Fair value dispersion z-score needed to flag a mispricing
mispricing_threshold = 1.5
transaction_costs_bps = 10.0

[risk]
min_data_points = 21
min_ratio_samples = 20
drawdown_window = 20
ewma_lambda = 0.94
risk_free_rate = 0.02
# Position caps
max_position_pct = 10.0
max_kelly_fraction = 0.25

[execution]
impact_coefficient = 0.1
target_impact_bps = 10.0
trading_minutes = 390.0
# Estimated dollar ADV as a fraction of market cap
adv_fraction = 0.007

[synthesis]
signal_threshold = 0.15
win_loss_ratio = 1.5
max_leverage = 2.0

[synthesis.weights]
mean_reversion = 0.35
momentum = 0.35
stat_arb = 0.30
`

// Template returns the annotated default configuration file.
func Template() string {
	return configTemplate
}

// WriteTemplate writes the default configuration file to path.
func WriteTemplate(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
