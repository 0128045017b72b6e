package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/quotewell/placement-cli/internal/store"
)

var (
	marketState string
	marketLine  string
)

var marketCmd = &cobra.Command{
	Use:   "market",
	Short: "Show the market overview for a state and line",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		engine, err := initEngine(st)
		if err != nil {
			return err
		}

		mi, err := engine.MarketOverview(ctx, marketState, marketLine)
		if err != nil {
			return eris.Wrap(err, "market overview")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if mi == nil {
			return enc.Encode(map[string]any{
				"state": marketState,
				"line":  marketLine,
				"data":  nil,
			})
		}
		return enc.Encode(mi)
	},
}

var (
	signalsCarrier string
	signalsState   string
	signalsLine    string
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "Show recent appetite signals for a carrier",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		carrierID, err := parseCarrierID(signalsCarrier)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		lookback := cfg.Match.SignalLookbackDays
		if lookback <= 0 {
			lookback = store.DefaultSignalLookbackDays
		}
		signals, err := st.LoadRecentSignals(ctx, carrierID, signalsState, signalsLine, lookback)
		if err != nil {
			return eris.Wrap(err, "load signals")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(signals)
	},
}

func init() {
	marketCmd.Flags().StringVar(&marketState, "state", "", "state code (required)")
	marketCmd.Flags().StringVar(&marketLine, "line", "", "line of business (required)")
	_ = marketCmd.MarkFlagRequired("state")
	_ = marketCmd.MarkFlagRequired("line")

	signalsCmd.Flags().StringVar(&signalsCarrier, "carrier", "", "carrier UUID (required)")
	signalsCmd.Flags().StringVar(&signalsState, "state", "", "state code (required)")
	signalsCmd.Flags().StringVar(&signalsLine, "line", "", "line of business (required)")
	_ = signalsCmd.MarkFlagRequired("carrier")
	_ = signalsCmd.MarkFlagRequired("state")
	_ = signalsCmd.MarkFlagRequired("line")

	rootCmd.AddCommand(marketCmd)
	rootCmd.AddCommand(signalsCmd)
}
