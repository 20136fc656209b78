// Package extract turns raw report text into a FinancialRecord by walking the
// ordered pattern tables of a Registry.
package extract

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"report_analysis/pkg/core/logging"
	"report_analysis/pkg/models"
)

const (
	// SupplementaryMarker identifies filings that amend an earlier report.
	SupplementaryMarker = "补充公告"
	// SupplementaryWindow is how many leading characters are searched for the marker.
	SupplementaryWindow = 500
	// PreviewLength bounds the report_content of a supplementary disclosure.
	PreviewLength = 1000
)

// Extractor applies a Registry to report text. It holds no mutable state and
// is safe for concurrent use.
type Extractor struct {
	registry *Registry
	log      zerolog.Logger
}

// NewExtractor builds an extractor. A nil registry selects Default().
func NewExtractor(registry *Registry, log zerolog.Logger) *Extractor {
	if registry == nil {
		registry = Default()
	}
	return &Extractor{registry: registry, log: logging.For(log, "extract")}
}

// Registry returns the pattern table in use.
func (e *Extractor) Registry() *Registry { return e.registry }

// Extract returns either a rule-derived record or, for supplementary
// disclosures, a content preview. Exactly one of the results is non-nil.
func (e *Extractor) Extract(text string, info models.BasicInfo) (*models.FinancialRecord, *models.SupplementaryDisclosure) {
	if IsSupplementary(text) {
		e.log.Info().Str("stock_code", info.StockCode).Str("period", info.ReportPeriod).Msg("supplementary disclosure detected, skipping metric extraction")
		return nil, &models.SupplementaryDisclosure{
			BasicInfo:     info,
			ReportType:    models.SupplementaryReportType,
			ReportContent: Truncate(text, PreviewLength),
		}
	}
	return e.ExtractRecord(text, info), nil
}

// ExtractRecord runs every metric family over the text. Leaves that cannot be
// found stay nil.
func (e *Extractor) ExtractRecord(text string, info models.BasicInfo) *models.FinancialRecord {
	rec := models.NewFinancialRecord(info)
	fd := &rec.FinancialData

	fd.NetProfit, fd.NetProfitYoY = e.Pair(text, MetricNetProfit, MetricNetProfitYoY)
	fd.Revenue, fd.RevenueYoY = e.Pair(text, MetricRevenue, MetricRevenueYoY)

	fd.CashFlow = models.CashFlow{
		Operating: e.Scalar(text, MetricOperatingCashFlow),
		Investing: e.Scalar(text, MetricInvestingCashFlow),
		Financing: e.Scalar(text, MetricFinancingCashFlow),
	}
	fd.Profitability = models.Profitability{
		ROE:         e.Scalar(text, MetricROE),
		ROA:         e.Scalar(text, MetricROA),
		GrossMargin: e.Scalar(text, MetricGrossMargin),
		NetMargin:   e.Scalar(text, MetricNetMargin),
	}
	fd.ExpenseRatios = models.ExpenseRatios{
		Sales:     e.Scalar(text, MetricSalesExpenseRatio),
		Admin:     e.Scalar(text, MetricAdminExpenseRatio),
		RD:        e.Scalar(text, MetricRDExpenseRatio),
		Financial: e.Scalar(text, MetricFinancialExpenseRatio),
	}
	fd.AssetStructure = models.AssetStructure{
		AccountsReceivableRatio:     e.Scalar(text, MetricReceivableRatio),
		InventoryRatio:              e.Scalar(text, MetricInventoryRatio),
		ConstructionInProgressRatio: e.Scalar(text, MetricConstructionRatio),
	}
	fd.CapitalStructure = models.CapitalStructure{
		NetAssets: e.Scalar(text, MetricNetAssets),
		DebtRatio: e.Scalar(text, MetricDebtRatio),
	}
	fd.MajorShareholderChanges = e.ShareholderChanges(text)

	rec.ValuationData = models.ValuationData{
		PE: e.Scalar(text, MetricPE),
		PB: e.Scalar(text, MetricPB),
	}
	rec.OperationData.MainBusiness = e.MainBusiness(text)
	return rec
}

// Pair extracts a base metric and its year-over-year twin.
func (e *Extractor) Pair(text, base, yoy string) (*float64, *float64) {
	return e.Scalar(text, base), e.Scalar(text, yoy)
}

// Scalar returns the value of one metric family. The first pattern in the
// family's list that matches anywhere wins, even if a later pattern matches
// earlier in the text. A match that fails to parse yields nil.
func (e *Extractor) Scalar(text, metric string) *float64 {
	fam, ok := e.registry.Family(metric)
	if !ok {
		e.log.Warn().Str("metric", metric).Msg("unknown metric family")
		return nil
	}
	for i, p := range fam.Patterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := parseNumber(m[1])
		if err != nil {
			e.log.Warn().Err(err).Str("metric", metric).Int("pattern", i).Str("raw", m[1]).Msg("matched value is not a number")
			return nil
		}
		if fam.Kind == KindMonetary {
			return Normalize(&v, m[2])
		}
		return &v
	}
	e.log.Debug().Str("metric", metric).Msg("no pattern matched")
	return nil
}

// ShareholderChanges returns one entry per match of the shareholder pattern.
func (e *Extractor) ShareholderChanges(text string) []models.ShareholderChange {
	out := []models.ShareholderChange{}
	lf, ok := e.registry.List(ListShareholderChanges)
	if !ok {
		return out
	}
	for _, m := range lf.Pattern.FindAllStringSubmatch(text, -1) {
		prev := e.optionalNumber(ListShareholderChanges, "previous_holding", m[2])
		curr := e.optionalNumber(ListShareholderChanges, "current_holding", m[3])
		var change *float64
		if prev != nil && curr != nil {
			c := round2(*curr - *prev)
			change = &c
		}
		out = append(out, models.ShareholderChange{
			Shareholder:     m[1],
			PreviousHolding: prev,
			CurrentHolding:  curr,
			Change:          change,
		})
	}
	return out
}

// MainBusiness returns one segment per match of the segment pattern.
func (e *Extractor) MainBusiness(text string) []models.BusinessSegment {
	out := []models.BusinessSegment{}
	lf, ok := e.registry.List(ListMainBusiness)
	if !ok {
		return out
	}
	for _, m := range lf.Pattern.FindAllStringSubmatch(text, -1) {
		out = append(out, models.BusinessSegment{
			Segment:    m[1],
			Revenue:    Normalize(e.optionalNumber(ListMainBusiness, "revenue", m[2]), m[3]),
			Proportion: e.optionalNumber(ListMainBusiness, "proportion", m[4]),
			YoY:        e.optionalNumber(ListMainBusiness, "yoy", m[5]),
		})
	}
	return out
}

// RiskSection returns the body of the first heading pattern that matches, or
// nil when the document has no recognisable risk disclosure.
func (e *Extractor) RiskSection(text string) *string {
	for _, p := range e.registry.RiskSectionPatterns() {
		if m := p.FindStringSubmatch(text); m != nil {
			s := strings.TrimSpace(m[1])
			return &s
		}
	}
	return nil
}

func (e *Extractor) optionalNumber(list, field, raw string) *float64 {
	v, err := parseNumber(raw)
	if err != nil {
		e.log.Warn().Err(err).Str("list", list).Str("field", field).Str("raw", raw).Msg("list field is not a number")
		return nil
	}
	return &v
}

// IsSupplementary reports whether the marker appears in the leading window.
func IsSupplementary(text string) bool {
	return strings.Contains(Prefix(text, SupplementaryWindow), SupplementaryMarker)
}

// Prefix returns the first n characters (runes) of s.
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Truncate cuts s to n characters and appends "..." when anything was removed.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return Prefix(s, n) + "..."
}

func parseNumber(raw string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
