package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"report_analysis/pkg/core/summary"
	"report_analysis/pkg/models"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <stock_code> <year> <report_type>",
	Short: "Extract the financial record of one report",
	Long: `Runs the metric extraction on one report and stores the result.

With --format markdown the rendered summary is printed; with --format json
the full analysis including report_info.`,
	Args: cobra.ExactArgs(3),
	RunE: runAnalyze,
}

var summaryHTML bool

var summaryCmd = &cobra.Command{
	Use:   "summary <stock_code> <year> <report_type>",
	Short: "Print the analysis summary, reusing a stored analysis",
	Args:  cobra.ExactArgs(3),
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().BoolVar(&summaryHTML, "html", false, "render the summary as HTML")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	key, err := keyArgs(args[0], args[1], args[2])
	if err != nil {
		return err
	}

	rep, err := comps.Orchestrator.Analyze(cmd.Context(), key)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		err = writeJSON(out, rep)
	} else {
		err = writeText(out, rep.Summary)
	}
	if err != nil {
		return err
	}
	return statusError(rep.Result.Status, rep.Result.Message)
}

func runSummary(cmd *cobra.Command, args []string) error {
	key, err := keyArgs(args[0], args[1], args[2])
	if err != nil {
		return err
	}

	rep, err := comps.Orchestrator.Summary(cmd.Context(), key)
	if err != nil {
		return err
	}
	if err := statusError(rep.Result.Status, rep.Result.Message); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case summaryHTML:
		html, err := summary.HTML(rep.Summary)
		if err != nil {
			return err
		}
		return writeText(out, html)
	case format == "json":
		return writeJSON(out, map[string]interface{}{"summary": rep.Summary, "cached": rep.Cached})
	default:
		return writeText(out, rep.Summary)
	}
}

// statusError turns an error outcome into a non-zero exit.
func statusError(status models.Status, message string) error {
	if status == models.StatusError {
		return fmt.Errorf("analysis failed: %s", message)
	}
	return nil
}
