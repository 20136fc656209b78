package commands

import (
	"github.com/spf13/cobra"
)

var risksCmd = &cobra.Command{
	Use:   "risks <stock_code> <year> <report_type>",
	Short: "Classify the financial risk factors of one report",
	Args:  cobra.ExactArgs(3),
	RunE:  runRisks,
}

func init() {
	rootCmd.AddCommand(risksCmd)
}

func runRisks(cmd *cobra.Command, args []string) error {
	key, err := keyArgs(args[0], args[1], args[2])
	if err != nil {
		return err
	}

	out, err := comps.Orchestrator.Risks(cmd.Context(), key)
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
