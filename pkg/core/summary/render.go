// Package summary renders records, comparisons and risk lists as Markdown.
// Output depends only on the input values.
package summary

import (
	"fmt"
	"math"
	"strings"

	"report_analysis/pkg/core/extract"
	"report_analysis/pkg/core/risk"
	"report_analysis/pkg/core/utils"
	"report_analysis/pkg/models"
)

const (
	UnknownCompany = "未知公司"
	UnknownPeriod  = "未知期间"

	// ErrorSummary is rendered for results that carry no data.
	ErrorSummary = "无法生成分析摘要，分析结果不完整。"
	// NoRiskLine is used when no risk factor was triggered.
	NoRiskLine = "- 未发现明显财务风险\n"

	supplementaryPreview = 500
	riskExcerptLength    = 1000
)

// DirectionLabel maps a direction onto its display word.
func DirectionLabel(d models.Direction) string {
	switch d {
	case models.DirectionUp:
		return "上升"
	case models.DirectionDown:
		return "下降"
	default:
		return "持平"
	}
}

// SeverityIcon marks a severity tier in lists.
func SeverityIcon(s models.Severity) string {
	switch s {
	case models.SeverityHigh:
		return "🔴"
	case models.SeverityMedium:
		return "🟠"
	default:
		return "🟡"
	}
}

// Record renders an analysis result. Sections: overview, performance,
// financial health, business segments, risk alerts.
func Record(res models.AnalysisResult) string {
	switch {
	case res.Status == models.StatusError:
		return ErrorSummary
	case res.Status == models.StatusPartial && res.Supplementary != nil:
		return supplementary(res.Supplementary)
	case res.Record == nil:
		return ErrorSummary
	}

	rec := res.Record
	if rec.SecondarySummary != "" {
		return utils.CleanMarkdown(rec.SecondarySummary)
	}

	company, period := names(rec.BasicInfo)
	fd := rec.FinancialData
	var b strings.Builder

	fmt.Fprintf(&b, "## %s %s 财务分析摘要\n\n", company, period)

	b.WriteString("### 报告概览\n\n")
	fmt.Fprintf(&b, "- 公司名称: %s\n", company)
	if rec.BasicInfo.StockCode != "" {
		fmt.Fprintf(&b, "- 股票代码: %s\n", rec.BasicInfo.StockCode)
	}
	fmt.Fprintf(&b, "- 报告期间: %s\n", period)

	b.WriteString("\n### 业绩概览\n\n")
	writeAmountWithYoY(&b, "归母净利润", fd.NetProfit, fd.NetProfitYoY)
	writeAmountWithYoY(&b, "营业总收入", fd.Revenue, fd.RevenueYoY)
	if v := fd.Profitability.ROE; v != nil {
		fmt.Fprintf(&b, "- 净资产收益率(ROE): %.2f%%\n", *v)
	}
	if v := fd.CashFlow.Operating; v != nil {
		sign := "正"
		if *v <= 0 {
			sign = "负"
		}
		fmt.Fprintf(&b, "- 经营活动现金流: %.2f亿元，呈%s向\n", *v, sign)
	}

	b.WriteString("\n### 财务健康状况\n\n")
	if v := fd.CapitalStructure.DebtRatio; v != nil {
		fmt.Fprintf(&b, "- 资产负债率: %.2f%%，负债水平%s\n", *v, debtLevel(*v))
	}
	if v := fd.CapitalStructure.NetAssets; v != nil {
		fmt.Fprintf(&b, "- 净资产: %.2f亿元\n", *v)
	}

	if segs := rec.OperationData.MainBusiness; len(segs) > 0 {
		b.WriteString("\n### 主营业务分析\n\n")
		for _, s := range segs {
			if s.Proportion == nil {
				continue
			}
			fmt.Fprintf(&b, "- %s: 占比 %.2f%%", segmentName(s.Segment), *s.Proportion)
			if s.YoY != nil {
				fmt.Fprintf(&b, "，同比%s %.2f%%", changeWord(*s.YoY), math.Abs(*s.YoY))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n### 风险提示\n\n")
	factors := risk.Classify(rec)
	if len(factors) == 0 {
		b.WriteString(NoRiskLine)
	}
	for _, f := range factors {
		fmt.Fprintf(&b, "- %s [%s] %s\n", SeverityIcon(f.Severity), f.Severity, f.Description)
	}
	return b.String()
}

func supplementary(s *models.SupplementaryDisclosure) string {
	company, period := names(s.BasicInfo)
	var b strings.Builder
	fmt.Fprintf(&b, "## %s %s 补充公告\n\n", company, period)
	b.WriteString("### 公告内容摘要\n\n")
	fmt.Fprintf(&b, "%s...\n\n", extract.Prefix(s.ReportContent, supplementaryPreview))
	b.WriteString("### 注意事项\n\n")
	b.WriteString("- 这是一份补充公告，不是完整的财务报告\n")
	b.WriteString("- 补充公告通常用于更正或补充已发布的财务报告中的特定信息\n")
	b.WriteString("- 请参考完整的财务报告以获取全面的财务信息\n")
	return b.String()
}

// Comparison renders the trend narrative: performance, financial condition,
// cash flow, then the aggregate verdict.
func Comparison(current, previous models.BasicInfo, cmp models.Comparison) string {
	company, curPeriod := names(current)
	_, prevPeriod := names(previous)
	d := cmp.Deltas
	var b strings.Builder

	fmt.Fprintf(&b, "## %s %s vs %s 趋势分析\n\n", company, curPeriod, prevPeriod)

	b.WriteString("### 业绩变化\n\n")
	writePercentChange(&b, "净利润", d.NetProfit)
	writePercentChange(&b, "营业收入", d.Revenue)
	writePointChange(&b, "净资产收益率(ROE)", d.ROE)

	b.WriteString("\n### 财务状况变化\n\n")
	writePointChange(&b, "资产负债率", d.DebtRatio)

	b.WriteString("\n### 现金流变化\n\n")
	writePercentChange(&b, "经营活动现金流", d.OperatingCashFlow)

	b.WriteString("\n### 趋势总结\n\n")
	switch cmp.Verdict {
	case models.VerdictImproving:
		b.WriteString("- 整体趋势: 向好 ⬆️\n")
		b.WriteString("- 公司主要财务指标呈现上升趋势，业绩表现良好\n")
	case models.VerdictDeclining:
		b.WriteString("- 整体趋势: 下滑 ⬇️\n")
		b.WriteString("- 公司主要财务指标呈现下降趋势，业绩表现不佳\n")
	default:
		b.WriteString("- 整体趋势: 稳定 ↔️\n")
		b.WriteString("- 公司主要财务指标变化不大，业绩表现稳定\n")
	}
	return b.String()
}

// Risks renders the factor list and, when present, an excerpt of the
// company's own risk disclosure.
func Risks(info models.BasicInfo, factors []models.RiskFactor, riskSection *string) string {
	company, period := names(info)
	var b strings.Builder

	fmt.Fprintf(&b, "## %s %s 风险分析\n\n", company, period)
	b.WriteString("### 风险因素概述\n\n")
	if len(factors) == 0 {
		b.WriteString(NoRiskLine)
	}
	for _, f := range factors {
		fmt.Fprintf(&b, "- %s **%s**: %s\n", SeverityIcon(f.Severity), f.Category, f.Description)
	}

	if len(factors) > 0 {
		b.WriteString("\n### 风险详情\n\n")
		for i, f := range factors {
			fmt.Fprintf(&b, "#### %d. %s\n\n", i+1, f.Category)
			fmt.Fprintf(&b, "- **描述**: %s\n", f.Description)
			fmt.Fprintf(&b, "- **严重程度**: %s\n", f.Severity)
			fmt.Fprintf(&b, "- **证据**: %s\n", f.Evidence)
			fmt.Fprintf(&b, "- **建议**: %s\n\n", f.Suggestion)
		}
	}

	if riskSection != nil && *riskSection != "" {
		b.WriteString("\n### 公司风险提示摘录\n\n")
		b.WriteString(extract.Truncate(*riskSection, riskExcerptLength))
		b.WriteString("\n")
	}
	return b.String()
}

func writeAmountWithYoY(b *strings.Builder, label string, amount, yoy *float64) {
	if amount == nil {
		return
	}
	fmt.Fprintf(b, "- %s: %.2f亿元", label, *amount)
	if yoy != nil {
		fmt.Fprintf(b, "，同比%s %.2f%%", changeWord(*yoy), math.Abs(*yoy))
	}
	b.WriteString("\n")
}

func writePercentChange(b *strings.Builder, label string, c models.ComparisonResult) {
	if c.ChangePercent == nil {
		return
	}
	unit := "亿元"
	fmt.Fprintf(b, "- %s: %s %.2f%%，从 %.2f%s 变为 %.2f%s\n",
		label, DirectionLabel(c.Direction), math.Abs(*c.ChangePercent), *c.Previous, unit, *c.Current, unit)
}

func writePointChange(b *strings.Builder, label string, c models.ComparisonResult) {
	if c.Change == nil {
		return
	}
	fmt.Fprintf(b, "- %s: %s %.2f个百分点，从 %.2f%% 变为 %.2f%%\n",
		label, DirectionLabel(c.Direction), math.Abs(*c.Change), *c.Previous, *c.Current)
}

func changeWord(v float64) string {
	switch {
	case v > 0:
		return "增长"
	case v < 0:
		return "下降"
	default:
		return "持平"
	}
}

func debtLevel(v float64) string {
	switch {
	case v > 60:
		return "较高"
	case v > 40:
		return "适中"
	default:
		return "较低"
	}
}

func names(info models.BasicInfo) (string, string) {
	company, period := info.CompanyName, info.ReportPeriod
	if company == "" {
		company = UnknownCompany
	}
	if period == "" {
		period = UnknownPeriod
	}
	return company, period
}

func segmentName(s string) string {
	if s == "" {
		return "未知业务"
	}
	return s
}
