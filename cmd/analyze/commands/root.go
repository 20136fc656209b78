package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"report_analysis/pkg/core/config"
	"report_analysis/pkg/core/ingest"
	"report_analysis/pkg/core/logging"
	"report_analysis/pkg/core/pipeline"
)

var (
	// Global flags
	configFile string
	dataDir    string
	cacheDir   string
	format     string
	useLLM     bool
	verbose    bool

	comps *pipeline.Components
)

var rootCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse A-share periodic reports from the local data directory",
	Long: `Report analysis CLI

Reads <data-dir>/<stock_code>/<year>/<stock_code>_<year>_<type>.txt and its
metadata file, extracts the key financial metrics and renders Chinese
summaries.

Examples:
  go run ./cmd/analyze analyze 600000 2023 年度报告
  go run ./cmd/analyze summary 600000 2023 年度报告 --html
  go run ./cmd/analyze compare 600000 2023 2022 年度报告
  go run ./cmd/analyze risks 600000 2023 年度报告 --format json`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if comps != nil {
			comps.Close()
			comps = nil
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default "+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "report data directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "analysis cache directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "markdown", "output format (markdown|json)")
	rootCmd.PersistentFlags().BoolVar(&useLLM, "llm", false, "enable secondary extraction through the configured LLM provider")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
}

func setup(cmd *cobra.Command, args []string) error {
	if format != "markdown" && format != "json" {
		return fmt.Errorf("--format must be markdown or json")
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}
	if cmd.Flags().Changed("llm") {
		cfg.UseLLM = useLLM
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log := logging.New(level, "console", cmd.ErrOrStderr())

	comps, err = pipeline.Wire(context.Background(), cfg, log)
	return err
}

// keyArgs parses "<stock_code> <year> <report_type>".
func keyArgs(stockCode, year, reportType string) (ingest.Key, error) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return ingest.Key{}, fmt.Errorf("year must be an integer: %q", year)
	}
	return ingest.NewKey(stockCode, y, reportType)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeText(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
