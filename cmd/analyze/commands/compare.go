package commands

import (
	"github.com/spf13/cobra"

	"report_analysis/pkg/core/pipeline"
)

var compareCmd = &cobra.Command{
	Use:   "compare <stock_code> <current_year> <previous_year> <report_type>",
	Short: "Compare two periods of the same report type",
	Args:  cobra.ExactArgs(4),
	RunE:  runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	cur, err := keyArgs(args[0], args[1], args[3])
	if err != nil {
		return err
	}
	prev, err := keyArgs(args[0], args[2], args[3])
	if err != nil {
		return err
	}

	out, err := comps.Orchestrator.Trends(cmd.Context(), pipeline.TrendRequest{
		StockCode:    cur.StockCode,
		CurrentYear:  cur.Year,
		PreviousYear: prev.Year,
		ReportType:   cur.ReportType,
	})
	if err != nil {
		return err
	}

	if format == "json" {
		err = writeJSON(cmd.OutOrStdout(), out)
	} else if out.Narrative != "" {
		err = writeText(cmd.OutOrStdout(), out.Narrative)
	}
	if err != nil {
		return err
	}
	return statusError(out.Status, out.Message)
}
