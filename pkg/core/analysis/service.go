// Package analysis exposes the report operations: analysis of one report,
// summary rendering, period comparison and risk classification.
package analysis

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"report_analysis/pkg/core/extract"
	"report_analysis/pkg/core/logging"
	"report_analysis/pkg/core/reconcile"
	"report_analysis/pkg/core/risk"
	"report_analysis/pkg/core/summary"
	"report_analysis/pkg/core/trend"
	"report_analysis/pkg/models"
)

// RiskSectionLimit bounds the risk disclosure attached to a RiskOutcome.
const RiskSectionLimit = 2000

const (
	msgNoText        = "无法获取报告文本"
	msgNoMetadata    = "无法获取报告元数据"
	msgSupplementary = "检测到补充公告，非完整财务报告"
	msgAnalyzed      = "分析完成"
	msgIncomplete    = "无法完成对比分析，报告分析不完整"
	msgNoRecord      = "无法获取报告数据"
)

// Success messages shared with model-produced outcomes.
const (
	MsgTrendDone = "趋势分析完成"
	MsgRiskDone  = "风险分析完成"
)

// SecondarySource produces the model-derived view of a report.
type SecondarySource interface {
	Extract(ctx context.Context, text string, meta models.DocumentMetadata) (*models.SecondaryExtraction, error)
}

// Service wires the extractor and reconciler. It keeps no per-call state.
type Service struct {
	extractor  *extract.Extractor
	reconciler *reconcile.Reconciler
	log        zerolog.Logger
}

// NewService builds a Service. Nil collaborators are replaced by defaults
// sharing log.
func NewService(extractor *extract.Extractor, reconciler *reconcile.Reconciler, log zerolog.Logger) *Service {
	if extractor == nil {
		extractor = extract.NewExtractor(nil, log)
	}
	if reconciler == nil {
		reconciler = reconcile.NewReconciler(log)
	}
	return &Service{
		extractor:  extractor,
		reconciler: reconciler,
		log:        logging.For(log, "analysis"),
	}
}

// AnalyzeReport extracts a record from text and reconciles it with the
// optional secondary extraction. A nil meta is treated as missing input.
func (s *Service) AnalyzeReport(text string, meta *models.DocumentMetadata, secondary *models.SecondaryExtraction) models.AnalysisResult {
	if strings.TrimSpace(text) == "" {
		return errorResult(models.KindMissingInput, msgNoText)
	}
	if meta == nil {
		return errorResult(models.KindMissingInput, msgNoMetadata)
	}

	rule, supp := s.extractor.Extract(text, meta.BasicInfo())
	if supp != nil {
		return models.AnalysisResult{
			Status:        models.StatusPartial,
			Kind:          models.KindSupplementaryDocument,
			Message:       msgSupplementary,
			Supplementary: supp,
		}
	}

	record, report := s.reconciler.Merge(rule, secondary)
	res := models.AnalysisResult{
		Status:  models.StatusSuccess,
		Message: msgAnalyzed,
		Record:  record,
	}
	if len(report.CoercionFailures) > 0 {
		res.Warnings = append(res.Warnings, models.KindCoercionFailure)
	}
	s.log.Info().
		Str("stock_code", meta.StockCode).
		Str("period", meta.ReportPeriod).
		Int("secondary_adopted", len(report.Adopted)).
		Msg("report analyzed")
	return res
}

// AnalyzeWithSource asks src for a secondary extraction before analysing. A
// failing source is logged and the analysis proceeds on rule data alone.
func (s *Service) AnalyzeWithSource(ctx context.Context, text string, meta *models.DocumentMetadata, src SecondarySource) models.AnalysisResult {
	if src == nil || meta == nil || strings.TrimSpace(text) == "" || extract.IsSupplementary(text) {
		return s.AnalyzeReport(text, meta, nil)
	}

	secondary, err := src.Extract(ctx, text, *meta)
	if err != nil {
		s.log.Warn().Err(err).Str("stock_code", meta.StockCode).Msg("secondary extraction failed, using rule-derived data only")
		res := s.AnalyzeReport(text, meta, nil)
		if res.Status == models.StatusSuccess {
			res.Warnings = append(res.Warnings, models.KindSecondarySourceFailure)
		}
		return res
	}
	return s.AnalyzeReport(text, meta, secondary)
}

// GenerateSummary renders the Markdown summary of an analysis result.
func (s *Service) GenerateSummary(res models.AnalysisResult) string {
	return summary.Record(res)
}

// CompareRecords diffs two reconciled records of consecutive periods.
func (s *Service) CompareRecords(current, previous *models.FinancialRecord) models.ComparisonOutcome {
	if current == nil || previous == nil {
		return models.ComparisonOutcome{
			Status:  models.StatusError,
			Kind:    models.KindMissingInput,
			Message: msgIncomplete,
		}
	}

	cmp := trend.Compare(current, previous)
	deltas := cmp.Deltas
	s.log.Debug().Str("verdict", string(cmp.Verdict)).Msg("records compared")
	return models.ComparisonOutcome{
		Status:    models.StatusSuccess,
		Message:   MsgTrendDone,
		Narrative: summary.Comparison(current.BasicInfo, previous.BasicInfo, cmp),
		Deltas:    &deltas,
		Verdict:   cmp.Verdict,
	}
}

// ClassifyRisks derives risk factors from record. When text is non-empty the
// company's own risk disclosure is located and attached.
func (s *Service) ClassifyRisks(record *models.FinancialRecord, text string) models.RiskOutcome {
	if record == nil {
		return models.RiskOutcome{
			Status:  models.StatusError,
			Kind:    models.KindMissingInput,
			Message: msgNoRecord,
			Factors: []models.RiskFactor{},
		}
	}

	factors := risk.Classify(record)
	var section *string
	if text != "" {
		section = s.extractor.RiskSection(text)
	}

	out := models.RiskOutcome{
		Status:    models.StatusSuccess,
		Message:   MsgRiskDone,
		Narrative: summary.Risks(record.BasicInfo, factors, section),
		Factors:   factors,
	}
	if section != nil {
		trimmed := extract.Prefix(*section, RiskSectionLimit)
		out.RiskSection = &trimmed
	}
	return out
}

func errorResult(kind models.ErrorKind, msg string) models.AnalysisResult {
	return models.AnalysisResult{Status: models.StatusError, Kind: kind, Message: msg}
}
