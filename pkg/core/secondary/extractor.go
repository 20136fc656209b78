// Package secondary produces the model-derived extraction that the
// reconciler merges with rule-derived metrics.
package secondary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"report_analysis/pkg/core/agent"
	"report_analysis/pkg/core/extract"
	"report_analysis/pkg/core/logging"
	"report_analysis/pkg/core/prompt"
	"report_analysis/pkg/core/utils"
	"report_analysis/pkg/models"
)

const (
	// MaxContentChars bounds the report text sent in one prompt.
	MaxContentChars = 50000
	// MaxTrendChars bounds each of the two reports sent for trend analysis.
	MaxTrendChars = 30000
	// MaxRiskChars bounds the report text sent for risk analysis.
	MaxRiskChars = 40000

	defaultRateLimit = 30.0 / 60.0
	defaultBurst     = 2
)

// Executor sends a prompt for a named task. *agent.Manager satisfies it.
type Executor interface {
	ExecutePrompt(ctx context.Context, task, prompt, systemPrompt string, options map[string]interface{}) (string, error)
}

type Config struct {
	// RateLimit is requests per second; zero selects the default.
	RateLimit float64
	Burst     int
}

type Extractor struct {
	exec    Executor
	prompts *prompt.Registry
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewExtractor(exec Executor, prompts *prompt.Registry, cfg Config, log zerolog.Logger) *Extractor {
	limit, burst := cfg.RateLimit, cfg.Burst
	if limit <= 0 {
		limit = defaultRateLimit
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return &Extractor{
		exec:    exec,
		prompts: prompts,
		limiter: rate.NewLimiter(rate.Limit(limit), burst),
		log:     logging.For(log, "secondary"),
	}
}

type reportReply struct {
	Summary       interface{}            `json:"summary"`
	FinancialData map[string]interface{} `json:"financial_data"`
}

// Extract asks the model for the financial data taxonomy and a summary, then
// for basic indicators. A failed indicator call is logged and leaves
// BasicIndicators empty; a failed report call fails the extraction.
func (e *Extractor) Extract(ctx context.Context, text string, meta models.DocumentMetadata) (*models.SecondaryExtraction, error) {
	content := extract.Prefix(text, MaxContentChars)

	var report reportReply
	err := e.run(ctx, agent.TaskFinancialData, prompt.IDFinancialReport, map[string]interface{}{
		"CompanyName":  meta.CompanyName,
		"StockCode":    meta.StockCode,
		"ReportPeriod": meta.ReportPeriod,
		"Content":      content,
	}, &report)
	if err != nil {
		return nil, err
	}

	out := &models.SecondaryExtraction{
		Summary:       summaryText(report.Summary),
		FinancialData: report.FinancialData,
	}

	var indicators map[string]interface{}
	if err := e.run(ctx, agent.TaskBasicIndicators, prompt.IDKeyMetrics, map[string]interface{}{"Content": content}, &indicators); err != nil {
		e.log.Warn().Err(err).Str("stock_code", meta.StockCode).Msg("basic indicator extraction failed")
	} else {
		out.BasicIndicators = indicators
	}

	e.log.Info().
		Str("stock_code", meta.StockCode).
		Int("financial_keys", len(out.FinancialData)).
		Int("indicator_keys", len(out.BasicIndicators)).
		Msg("secondary extraction complete")
	return out, nil
}

// TrendAnalysis is the model's comparison of two periods.
type TrendAnalysis struct {
	Summary string
	Data    map[string]interface{}
}

// RiskAnalysis is the model's reading of a report's risk factors.
type RiskAnalysis struct {
	Summary string
	Factors []models.RiskFactor
}

type trendReply struct {
	Summary interface{}            `json:"trend_summary"`
	Data    map[string]interface{} `json:"trend_data"`
}

type riskReply struct {
	Summary interface{}         `json:"risk_summary"`
	Factors []models.RiskFactor `json:"risk_factors"`
}

var errEmptyAnalysis = errors.New("model returned no summary")

// Trends asks the model to compare the current report with the previous
// one. A reply that is not JSON is kept whole as the summary.
func (e *Extractor) Trends(ctx context.Context, current, previous, company string) (*TrendAnalysis, error) {
	var reply trendReply
	raw, err := e.ask(ctx, agent.TaskTrendAnalysis, prompt.IDTrendAnalysis, map[string]interface{}{
		"CompanyName": company,
		"Current":     extract.Prefix(current, MaxTrendChars),
		"Previous":    extract.Prefix(previous, MaxTrendChars),
	}, &reply)
	if err != nil {
		return nil, err
	}
	out := &TrendAnalysis{Summary: raw}
	if raw == "" {
		out = &TrendAnalysis{Summary: summaryText(reply.Summary), Data: reply.Data}
	}
	if strings.TrimSpace(out.Summary) == "" {
		return nil, fmt.Errorf("SECONDARY_%s_EMPTY: %w", agent.TaskTrendAnalysis, errEmptyAnalysis)
	}
	e.log.Info().Str("company", company).Int("trend_keys", len(out.Data)).Msg("model trend analysis complete")
	return out, nil
}

// Risks asks the model for the risk factors of one report. A reply that is
// not JSON is kept whole as the summary.
func (e *Extractor) Risks(ctx context.Context, text, company string) (*RiskAnalysis, error) {
	var reply riskReply
	raw, err := e.ask(ctx, agent.TaskRiskAnalysis, prompt.IDRiskAnalysis, map[string]interface{}{
		"CompanyName": company,
		"Content":     extract.Prefix(text, MaxRiskChars),
	}, &reply)
	if err != nil {
		return nil, err
	}
	out := &RiskAnalysis{Summary: raw}
	if raw == "" {
		out = &RiskAnalysis{Summary: summaryText(reply.Summary), Factors: reply.Factors}
	}
	if out.Factors == nil {
		out.Factors = []models.RiskFactor{}
	}
	if strings.TrimSpace(out.Summary) == "" {
		return nil, fmt.Errorf("SECONDARY_%s_EMPTY: %w", agent.TaskRiskAnalysis, errEmptyAnalysis)
	}
	e.log.Info().Str("company", company).Int("factors", len(out.Factors)).Msg("model risk analysis complete")
	return out, nil
}

// ask decodes the reply into out. A reply that cannot be decoded is returned
// as raw text with a nil error.
func (e *Extractor) ask(ctx context.Context, task, promptID string, vars map[string]interface{}, out interface{}) (string, error) {
	reply, err := e.send(ctx, task, promptID, vars)
	if err != nil {
		return "", err
	}
	if _, err := utils.SmartParse(reply, out); err != nil {
		e.log.Warn().Err(err).Str("task", task).Msg("analysis reply is not JSON, using raw text")
		return strings.TrimSpace(reply), nil
	}
	return "", nil
}

func (e *Extractor) send(ctx context.Context, task, promptID string, vars map[string]interface{}) (string, error) {
	pt, err := e.prompts.GetPrompt(promptID)
	if err != nil {
		return "", err
	}
	user, err := pt.RenderUser(vars)
	if err != nil {
		return "", err
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("SECONDARY_RATE_LIMIT: %w", err)
	}
	reply, err := e.exec.ExecutePrompt(ctx, task, user, pt.SystemPrompt, map[string]interface{}{"json": true})
	if err != nil {
		return "", fmt.Errorf("SECONDARY_%s_FAILED: %w", task, err)
	}
	return reply, nil
}

func (e *Extractor) run(ctx context.Context, task, promptID string, vars map[string]interface{}, out interface{}) error {
	reply, err := e.send(ctx, task, promptID, vars)
	if err != nil {
		return err
	}
	if _, err := utils.SmartParse(reply, out); err != nil {
		return fmt.Errorf("SECONDARY_%s_UNPARSEABLE: %w", task, err)
	}
	return nil
}

func summaryText(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return ""
		}
		return string(b)
	}
}
