package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quotewell/placement-cli/internal/model"
)

var (
	matchRiskFile string
	matchState    string
	matchLines    []string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match a risk profile against carriers",
	Long:  "Reads a risk profile from a JSON file, evaluates every active carrier for the requested state and lines, and prints ranked matches to stdout.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(matchRiskFile)
		if err != nil {
			return eris.Wrapf(err, "read risk profile %s", matchRiskFile)
		}
		var risk model.RiskProfile
		if err := json.Unmarshal(data, &risk); err != nil {
			return eris.Wrap(err, "parse risk profile")
		}

		state := matchState
		if state == "" {
			state = risk.State
		}
		lines := matchLines
		if len(lines) == 0 {
			lines = risk.Lines
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		engine, err := initEngine(st)
		if err != nil {
			return err
		}

		matches, err := engine.Match(ctx, &risk, state, lines)
		if err != nil {
			return eris.Wrap(err, "match")
		}

		zap.L().Info("match complete",
			zap.String("entity", risk.EntityName),
			zap.String("state", state),
			zap.Strings("lines", lines),
			zap.Int("carriers_matched", len(matches)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(matches)
	},
}

func init() {
	matchCmd.Flags().StringVar(&matchRiskFile, "risk", "", "path to risk profile JSON (required)")
	matchCmd.Flags().StringVar(&matchState, "state", "", "state code override (default from risk profile)")
	matchCmd.Flags().StringSliceVar(&matchLines, "lines", nil, "lines of business override (default from risk profile)")
	_ = matchCmd.MarkFlagRequired("risk")
	rootCmd.AddCommand(matchCmd)
}
