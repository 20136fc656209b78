package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"report_analysis/pkg/api"
	analysisapi "report_analysis/pkg/api/analysis"
	configapi "report_analysis/pkg/api/config"
	"report_analysis/pkg/core/config"
	"report_analysis/pkg/core/logging"
	"report_analysis/pkg/core/pipeline"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "api",
	Short: "Serve the report analysis HTTP API",
	Long: `Serves analysis, summary, trend and risk endpoints over the reports in
the configured data directory.

Example:
  go run ./cmd/api --config config/app.yaml`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(configPath)
	},
}

func main() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to the YAML config (default "+config.DefaultPath+")")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stdout)

	ctx := context.Background()
	comps, err := pipeline.Wire(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("wire components: %w", err)
	}
	defer comps.Close()

	router := api.NewRouter(log,
		analysisapi.NewHandler(comps.Orchestrator, log),
		configapi.NewHandler(comps.Agents, cfg.UseLLM, log),
	)
	server := api.NewServer(cfg.Server.Addr, router, log)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	log.Info().
		Str("addr", cfg.Server.Addr).
		Str("data_dir", cfg.DataDir).
		Bool("use_llm", cfg.UseLLM).
		Strs("endpoints", []string{
			"GET  /health",
			"POST /api/analysis/basic",
			"GET  /api/analysis/summary/{stock_code}/{year}/{report_type}",
			"GET  /api/analysis/json/{stock_code}/{year}/{report_type}",
			"POST /api/analysis/trends",
			"POST /api/analysis/risks",
			"GET  /api/config",
			"POST /api/config/switch",
		}).
		Msg("API server ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
