package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"quant-engine/internal/store"
	"quant-engine/pkg/utils"
)

// addDataCommands adds commands that load data into the store.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newImportCmd(app))
	rootCmd.AddCommand(newInstrumentCmd(app))
	rootCmd.AddCommand(newFundamentalsCmd(app))
}

func newImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import daily closes from CSV",
		Long:  "Import a CSV with header symbol,date,close,volume into the store. Existing days are replaced.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			st, err := app.Store()
			if err != nil {
				return err
			}

			n, err := st.ImportCSV(commandContext(cmd), f)
			if err != nil {
				return err
			}
			app.Logger.Info().Str("file", args[0]).Int("rows", n).Msg("Prices imported")

			if output.IsStructured() {
				return output.Structured(map[string]interface{}{"file": args[0], "rows": n})
			}
			output.Success("✓ Imported %d prices from %s", n, args[0])
			return nil
		},
	}
}

func newInstrumentCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instrument",
		Short: "Manage market cap and volume figures",
	}

	var marketCap, adv float64
	setCmd := &cobra.Command{
		Use:   "set <symbol>",
		Short: "Store market cap and average daily dollar volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.Store()
			if err != nil {
				return err
			}
			inst := store.Instrument{Symbol: args[0], MarketCap: marketCap, AvgDailyVolume: adv}
			if err := st.SaveInstrument(commandContext(cmd), inst); err != nil {
				return err
			}
			NewOutput(cmd).Success("✓ Saved %s: market cap %s, ADV %s",
				strings.ToUpper(args[0]), utils.FormatCompact(marketCap), utils.FormatCompact(adv))
			return nil
		},
	}
	setCmd.Flags().Float64Var(&marketCap, "market-cap", 0, "market capitalization")
	setCmd.Flags().Float64Var(&adv, "adv", 0, "average daily dollar volume")
	_ = setCmd.MarkFlagRequired("market-cap")

	showCmd := &cobra.Command{
		Use:   "show <symbol>",
		Short: "Show stored figures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			st, err := app.Store()
			if err != nil {
				return err
			}
			inst, err := st.GetInstrument(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			if output.IsStructured() {
				return output.Structured(inst)
			}
			output.Bold("%s", inst.Symbol)
			output.Printf("  Market cap: %s\n", utils.FormatCompact(inst.MarketCap))
			output.Printf("  ADV:        %s\n", utils.FormatCompact(inst.AvgDailyVolume))
			output.Dim("  Updated %s", inst.UpdatedAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.AddCommand(setCmd, showCmd)
	return cmd
}

func newFundamentalsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fundamentals",
		Short: "Manage revenue and earnings series",
	}

	addCmd := &cobra.Command{
		Use:   "add <symbol> <revenue|earnings> <period=value>...",
		Short: "Store reported values, e.g. 2024-03-31=1250000",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[1])
			if err != nil {
				return err
			}
			points, err := parsePoints(args[2:])
			if err != nil {
				return err
			}

			st, err := app.Store()
			if err != nil {
				return err
			}
			if err := st.SaveFundamentals(commandContext(cmd), args[0], kind, points); err != nil {
				return err
			}
			NewOutput(cmd).Success("✓ Saved %d %s values for %s", len(points), kind, strings.ToUpper(args[0]))
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <symbol> <revenue|earnings>",
		Short: "Show stored values, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			kind, err := parseKind(args[1])
			if err != nil {
				return err
			}
			st, err := app.Store()
			if err != nil {
				return err
			}
			values, err := st.GetFundamentals(commandContext(cmd), args[0], kind)
			if err != nil {
				return err
			}
			if output.IsStructured() {
				return output.Structured(values)
			}
			for _, v := range values {
				output.Printf("  %s\n", utils.FormatCompact(v))
			}
			return nil
		},
	}

	cmd.AddCommand(addCmd, showCmd)
	return cmd
}

func parseKind(s string) (store.FundamentalKind, error) {
	switch kind := store.FundamentalKind(strings.ToLower(s)); kind {
	case store.KindRevenue, store.KindEarnings:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown fundamental kind %q (want revenue or earnings)", s)
	}
}

func parsePoints(args []string) ([]store.FundamentalPoint, error) {
	points := make([]store.FundamentalPoint, 0, len(args))
	for _, arg := range args {
		period, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected period=value, got %q", arg)
		}
		t, err := time.Parse("2006-01-02", period)
		if err != nil {
			return nil, fmt.Errorf("invalid period %q: %w", period, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", value, err)
		}
		points = append(points, store.FundamentalPoint{Period: t, Value: v})
	}
	return points, nil
}
