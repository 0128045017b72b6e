package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/quotewell/placement-cli/internal/model"
)

var (
	carriersState string
	carriersLine  string
)

var carriersCmd = &cobra.Command{
	Use:   "carriers",
	Short: "List carriers with a current appetite profile for a state and line",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		carriers, err := st.FindActiveCarriers(ctx, carriersState, carriersLine)
		if err != nil {
			return eris.Wrap(err, "find carriers")
		}
		if carriers == nil {
			carriers = []model.Carrier{}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(carriers)
	},
}

func init() {
	carriersCmd.Flags().StringVar(&carriersState, "state", "", "state code (required)")
	carriersCmd.Flags().StringVar(&carriersLine, "line", "", "line of business (required)")
	_ = carriersCmd.MarkFlagRequired("state")
	_ = carriersCmd.MarkFlagRequired("line")
	rootCmd.AddCommand(carriersCmd)
}
