// Package pipeline runs the analysis operations against reports stored on
// disk: load the document, optionally ask the secondary source, analyse,
// then persist the result.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"report_analysis/pkg/core/analysis"
	"report_analysis/pkg/core/extract"
	"report_analysis/pkg/core/ingest"
	"report_analysis/pkg/core/logging"
	"report_analysis/pkg/core/secondary"
	"report_analysis/pkg/core/store"
	"report_analysis/pkg/models"
)

// PreviewLength is the number of characters of report text echoed back with
// an analysis.
const PreviewLength = 500

// DocumentSource loads a report by key. ingest.ErrNotFound marks a missing
// text or metadata file.
type DocumentSource interface {
	Load(k ingest.Key) (*ingest.Document, error)
}

// Repository persists analyses. Get returns store.ErrNoAnalysis for unknown keys.
type Repository interface {
	Save(ctx context.Context, key ingest.Key, result models.AnalysisResult, summary string) (*store.Entry, error)
	Get(ctx context.Context, key ingest.Key) (*store.Entry, error)
}

// ReportInfo describes the text an analysis was run on.
type ReportInfo struct {
	StockCode  string `json:"stock_code"`
	Year       int    `json:"year"`
	ReportType string `json:"report_type"`
	TextLength int    `json:"text_length"`
	Preview    string `json:"preview"`
}

// Report is an analysis together with its rendered summary.
type Report struct {
	ID      string                `json:"id,omitempty"`
	Key     ingest.Key            `json:"key"`
	Result  models.AnalysisResult `json:"result"`
	Summary string                `json:"summary"`
	Info    *ReportInfo           `json:"report_info,omitempty"`
	Cached  bool                  `json:"cached"`
}

// TrendRequest names two reports of the same type for one company.
type TrendRequest struct {
	StockCode    string `json:"stock_code"`
	CurrentYear  int    `json:"current_year"`
	PreviousYear int    `json:"previous_year"`
	ReportType   string `json:"report_type"`
}

func (r TrendRequest) keys() (current, previous ingest.Key) {
	return ingest.Key{StockCode: r.StockCode, Year: r.CurrentYear, ReportType: r.ReportType},
		ingest.Key{StockCode: r.StockCode, Year: r.PreviousYear, ReportType: r.ReportType}
}

// Analyst produces model-written trend and risk analyses.
// *secondary.Extractor satisfies it.
type Analyst interface {
	Trends(ctx context.Context, current, previous, company string) (*secondary.TrendAnalysis, error)
	Risks(ctx context.Context, text, company string) (*secondary.RiskAnalysis, error)
}

// Orchestrator wires a document source, the analysis service and the
// optional secondary source, analyst and repository.
type Orchestrator struct {
	source    DocumentSource
	service   *analysis.Service
	secondary analysis.SecondarySource
	analyst   Analyst
	repo      Repository
	log       zerolog.Logger
}

// NewOrchestrator creates an orchestrator without secondary source or
// repository. A nil service is replaced by the default one.
func NewOrchestrator(source DocumentSource, service *analysis.Service, log zerolog.Logger) *Orchestrator {
	if service == nil {
		service = analysis.NewService(nil, nil, log)
	}
	return &Orchestrator{
		source:  source,
		service: service,
		log:     logging.For(log, "pipeline"),
	}
}

// SetSecondary enables model-assisted extraction.
func (o *Orchestrator) SetSecondary(src analysis.SecondarySource) {
	o.secondary = src
}

// SetAnalyst makes Trends and Risks try the model first. On any model
// failure they fall back to the rule-based path.
func (o *Orchestrator) SetAnalyst(a Analyst) {
	o.analyst = a
}

// SetRepository enables persistence of analyses.
func (o *Orchestrator) SetRepository(repo Repository) {
	o.repo = repo
}

// Service exposes the underlying analysis service.
func (o *Orchestrator) Service() *analysis.Service {
	return o.service
}

// load maps a missing document onto a MissingInput result. Other I/O
// failures are returned as errors.
func (o *Orchestrator) load(key ingest.Key) (*ingest.Document, *models.AnalysisResult, error) {
	doc, err := o.source.Load(key)
	if err == nil {
		return doc, nil, nil
	}
	if errors.Is(err, ingest.ErrNotFound) {
		// Let the service produce the canonical MissingInput result.
		res := o.service.AnalyzeReport("", nil, nil)
		res.Message = fmt.Sprintf("%s: %s", res.Message, key)
		return nil, &res, nil
	}
	return nil, nil, err
}

// Analyze runs AnalyzeReport on the stored report and persists the outcome.
// A repository failure is logged and does not fail the analysis.
func (o *Orchestrator) Analyze(ctx context.Context, key ingest.Key) (*Report, error) {
	doc, missing, err := o.load(key)
	if err != nil {
		return nil, err
	}
	if missing != nil {
		return &Report{Key: key, Result: *missing, Summary: o.service.GenerateSummary(*missing)}, nil
	}

	res := o.service.AnalyzeWithSource(ctx, doc.Text, &doc.Metadata, o.secondary)
	rep := &Report{
		Key:     key,
		Result:  res,
		Summary: o.service.GenerateSummary(res),
		Info:    reportInfo(doc),
	}

	o.log.Info().
		Str("report", key.String()).
		Str("status", string(res.Status)).
		Int("text_length", rep.Info.TextLength).
		Msg("report analyzed")

	if o.repo != nil {
		entry, err := o.repo.Save(ctx, key, res, rep.Summary)
		if err != nil {
			o.log.Warn().Err(err).Str("report", key.String()).Msg("failed to persist analysis")
		} else {
			rep.ID = entry.ID
		}
	}
	return rep, nil
}

// Summary returns the stored analysis for key when one exists and did not
// fail, otherwise a fresh one.
func (o *Orchestrator) Summary(ctx context.Context, key ingest.Key) (*Report, error) {
	if o.repo != nil {
		entry, err := o.repo.Get(ctx, key)
		switch {
		case err == nil && entry.Result.Status != models.StatusError:
			return &Report{ID: entry.ID, Key: key, Result: entry.Result, Summary: entry.Summary, Cached: true}, nil
		case err != nil && !errors.Is(err, store.ErrNoAnalysis):
			o.log.Warn().Err(err).Str("report", key.String()).Msg("failed to read stored analysis")
		}
	}
	return o.Analyze(ctx, key)
}

// Trends analyses both periods and compares them. Unless both analyses
// succeed the outcome is an error. With an analyst set, the model's
// comparison of the two texts is preferred.
func (o *Orchestrator) Trends(ctx context.Context, req TrendRequest) (models.ComparisonOutcome, error) {
	curKey, prevKey := req.keys()

	if out, ok := o.modelTrends(ctx, curKey, prevKey); ok {
		return out, nil
	}

	cur, err := o.Analyze(ctx, curKey)
	if err != nil {
		return models.ComparisonOutcome{}, err
	}
	prev, err := o.Analyze(ctx, prevKey)
	if err != nil {
		return models.ComparisonOutcome{}, err
	}

	out := o.service.CompareRecords(successRecord(cur.Result), successRecord(prev.Result))
	if out.Status != models.StatusSuccess {
		o.log.Warn().
			Str("current", string(cur.Result.Status)).
			Str("previous", string(prev.Result.Status)).
			Str("stock_code", req.StockCode).
			Msg("trend comparison skipped")
		return out, nil
	}
	out.Source = models.SourceRules
	return out, nil
}

func (o *Orchestrator) modelTrends(ctx context.Context, curKey, prevKey ingest.Key) (models.ComparisonOutcome, bool) {
	if o.analyst == nil {
		return models.ComparisonOutcome{}, false
	}
	cur, err := o.source.Load(curKey)
	if err != nil {
		return models.ComparisonOutcome{}, false
	}
	prev, err := o.source.Load(prevKey)
	if err != nil {
		return models.ComparisonOutcome{}, false
	}

	a, err := o.analyst.Trends(ctx, cur.Text, prev.Text, cur.Metadata.CompanyName)
	if err != nil {
		o.log.Error().Err(err).Str("current", curKey.String()).Str("previous", prevKey.String()).
			Msg("model trend analysis failed, falling back to rules")
		return models.ComparisonOutcome{}, false
	}
	return models.ComparisonOutcome{
		Status:    models.StatusSuccess,
		Message:   analysis.MsgTrendDone,
		Source:    models.SourceModel,
		Narrative: a.Summary,
		ModelData: a.Data,
	}, true
}

// Risks classifies the risks of one report. A supplementary document yields
// no metric-driven factors but still reports the disclosed risk section.
func (o *Orchestrator) Risks(ctx context.Context, key ingest.Key) (models.RiskOutcome, error) {
	doc, missing, err := o.load(key)
	if err != nil {
		return models.RiskOutcome{}, err
	}
	if missing != nil {
		return o.service.ClassifyRisks(nil, ""), nil
	}

	if o.analyst != nil {
		a, err := o.analyst.Risks(ctx, doc.Text, doc.Metadata.CompanyName)
		if err == nil {
			return models.RiskOutcome{
				Status:    models.StatusSuccess,
				Message:   analysis.MsgRiskDone,
				Source:    models.SourceModel,
				Narrative: a.Summary,
				Factors:   a.Factors,
			}, nil
		}
		o.log.Error().Err(err).Str("report", key.String()).Msg("model risk analysis failed, falling back to rules")
	}

	res := o.service.AnalyzeWithSource(ctx, doc.Text, &doc.Metadata, o.secondary)
	record := successRecord(res)
	if record == nil && res.Status == models.StatusPartial {
		record = models.NewFinancialRecord(doc.Metadata.BasicInfo())
	}
	out := o.service.ClassifyRisks(record, doc.Text)
	if out.Status == models.StatusSuccess {
		out.Source = models.SourceRules
	}
	return out, nil
}

func successRecord(res models.AnalysisResult) *models.FinancialRecord {
	if res.Status != models.StatusSuccess {
		return nil
	}
	return res.Record
}

func reportInfo(doc *ingest.Document) *ReportInfo {
	return &ReportInfo{
		StockCode:  doc.Key.StockCode,
		Year:       doc.Key.Year,
		ReportType: doc.Key.ReportType,
		TextLength: utf8.RuneCountInString(doc.Text),
		Preview:    extract.Truncate(doc.Text, PreviewLength),
	}
}
