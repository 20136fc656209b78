package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"report_analysis/pkg/core/agent"
	"report_analysis/pkg/core/analysis"
	"report_analysis/pkg/core/config"
	"report_analysis/pkg/core/ingest"
	"report_analysis/pkg/core/prompt"
	"report_analysis/pkg/core/secondary"
	"report_analysis/pkg/core/store"
)

// Components is everything a binary needs to serve the analysis operations.
type Components struct {
	Orchestrator *Orchestrator
	Agents       *agent.Manager
	close        func()
}

// Close releases the database pool, if any.
func (c *Components) Close() {
	if c.close != nil {
		c.close()
	}
}

// Wire builds the components described by cfg. A database that cannot be
// reached is logged and replaced by the file cache.
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Components, error) {
	orch := NewOrchestrator(ingest.NewDirSource(cfg.DataDir, log), analysis.NewService(nil, nil, log), log)
	agents := agent.NewManager(cfg.LLM, log)
	c := &Components{Orchestrator: orch, Agents: agents}

	if cfg.UseLLM {
		prompts, err := prompt.Default()
		if err != nil {
			return nil, err
		}
		if cfg.PromptDir != "" {
			if err := prompts.LoadDirectory(cfg.PromptDir); err != nil {
				return nil, err
			}
		}
		ex := secondary.NewExtractor(agents, prompts, secondary.Config{
			RateLimit: cfg.RateLimit.PerSecond(),
			Burst:     cfg.RateLimit.Burst,
		}, log)
		orch.SetSecondary(ex)
		orch.SetAnalyst(ex)
		log.Info().Str("provider", agents.GetActiveProvider()).Msg("secondary extraction enabled")
	}

	if cfg.Database.URL != "" {
		pool, err := store.InitDB(ctx, cfg.Database.URL)
		if err != nil {
			log.Warn().Err(err).Msg("database unavailable, using file cache")
		} else {
			c.close = pool.Close
			orch.SetRepository(store.NewAnalysisRepo(pool, "", log))
			return c, nil
		}
	}
	orch.SetRepository(store.NewAnalysisRepo(nil, cfg.CacheDir, log))
	return c, nil
}
