package models

// Status is the top-level outcome tag carried by every operation result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
)

// ErrorKind classifies why an operation did not produce a full result.
type ErrorKind string

const (
	KindNone                   ErrorKind = ""
	KindMissingInput           ErrorKind = "missing_input"
	KindSupplementaryDocument  ErrorKind = "supplementary_document"
	KindMetricExtractionGap    ErrorKind = "metric_extraction_gap"
	KindSecondarySourceFailure ErrorKind = "secondary_source_failure"
	KindCoercionFailure        ErrorKind = "coercion_failure"
)

// SupplementaryReportType is the report_type attached to short-circuited results.
const SupplementaryReportType = "补充公告"

// DocumentMetadata describes the report a text was taken from.
type DocumentMetadata struct {
	CompanyName  string `json:"company_name"`
	StockCode    string `json:"stock_code"`
	ReportType   string `json:"report_type"`
	ReportPeriod string `json:"report_period"`
}

// BasicInfo projects the metadata onto a record header.
func (m DocumentMetadata) BasicInfo() BasicInfo {
	return BasicInfo{
		CompanyName:  m.CompanyName,
		StockCode:    m.StockCode,
		ReportPeriod: m.ReportPeriod,
	}
}

// SupplementaryDisclosure is returned instead of a FinancialRecord when the
// document amends an earlier filing.
type SupplementaryDisclosure struct {
	BasicInfo     BasicInfo `json:"basic_info"`
	ReportType    string    `json:"report_type"`
	ReportContent string    `json:"report_content"`
}

// SecondaryExtraction is the model-derived view of a report. FinancialData
// uses the same keys as FinancialRecord.FinancialData; values may be numbers
// or strings such as "1,234.5" and "12%".
type SecondaryExtraction struct {
	Summary         string                 `json:"summary,omitempty"`
	FinancialData   map[string]interface{} `json:"financial_data,omitempty"`
	BasicIndicators map[string]interface{} `json:"basic_indicators,omitempty"`
}

// AnalysisResult is the tagged result of AnalyzeReport. Exactly one of Record
// (success) or Supplementary (partial) is set unless Status is error.
type AnalysisResult struct {
	Status        Status                   `json:"status"`
	Kind          ErrorKind                `json:"kind,omitempty"`
	Message       string                   `json:"message"`
	Record        *FinancialRecord         `json:"record,omitempty"`
	Supplementary *SupplementaryDisclosure `json:"supplementary,omitempty"`
	// Warnings lists non-fatal conditions such as a failed secondary source.
	Warnings []ErrorKind `json:"warnings,omitempty"`
}

// Direction of a period-over-period change.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// ComparisonResult is the delta of one metric between two periods.
type ComparisonResult struct {
	Current       *float64  `json:"current"`
	Previous      *float64  `json:"previous"`
	Change        *float64  `json:"change"`
	ChangePercent *float64  `json:"change_percent"`
	Direction     Direction `json:"direction"`
}

// TrendVerdict is the aggregate reading over net profit, revenue and ROE.
type TrendVerdict string

const (
	VerdictImproving TrendVerdict = "improving"
	VerdictDeclining TrendVerdict = "declining"
	VerdictStable    TrendVerdict = "stable"
)

// TrendData holds the per-metric deltas in narrative order.
type TrendData struct {
	NetProfit         ComparisonResult `json:"net_profit_change"`
	Revenue           ComparisonResult `json:"revenue_change"`
	ROE               ComparisonResult `json:"roe_change"`
	DebtRatio         ComparisonResult `json:"debt_ratio_change"`
	OperatingCashFlow ComparisonResult `json:"operating_cash_flow_change"`
}

// Comparison is the pure output of the trend comparator.
type Comparison struct {
	Deltas  TrendData    `json:"trend_data"`
	Verdict TrendVerdict `json:"verdict"`
}

// Source names what produced an outcome's narrative.
type Source string

const (
	SourceRules Source = "rules"
	SourceModel Source = "model"
)

// ComparisonOutcome is the tagged result of CompareRecords, or of the model
// trend analysis when one is configured. A model outcome carries ModelData
// instead of Deltas and Verdict.
type ComparisonOutcome struct {
	Status    Status                 `json:"status"`
	Kind      ErrorKind              `json:"kind,omitempty"`
	Message   string                 `json:"message"`
	Source    Source                 `json:"source,omitempty"`
	Narrative string                 `json:"trend_summary,omitempty"`
	Deltas    *TrendData             `json:"trend_data,omitempty"`
	ModelData map[string]interface{} `json:"model_trend_data,omitempty"`
	Verdict   TrendVerdict           `json:"verdict,omitempty"`
}

// Severity tier of a risk factor.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

type RiskFactor struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Evidence    string   `json:"evidence"`
	Suggestion  string   `json:"suggestion"`
}

// RiskOutcome is the tagged result of ClassifyRisks.
type RiskOutcome struct {
	Status      Status       `json:"status"`
	Kind        ErrorKind    `json:"kind,omitempty"`
	Message     string       `json:"message"`
	Source      Source       `json:"source,omitempty"`
	Narrative   string       `json:"risk_summary,omitempty"`
	Factors     []RiskFactor `json:"risk_factors"`
	RiskSection *string      `json:"risk_section"`
}
