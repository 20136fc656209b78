// Package risk derives severity-tagged risk factors from a reconciled record.
package risk

import (
	"fmt"
	"math"

	"report_analysis/pkg/models"
)

// Categories, in the order factors are emitted.
const (
	CategoryProfitability = "盈利能力风险"
	CategoryRevenue       = "营收风险"
	CategoryCashFlow      = "现金流风险"
	CategoryLeverage      = "负债风险"
)

// Thresholds. YoY values and debt ratio are percentages.
const (
	NetProfitHighBelow   = -20.0
	NetProfitMediumBelow = -10.0
	RevenueHighBelow     = -15.0
	RevenueMediumBelow   = -5.0
	DebtRatioHighAbove   = 80.0
	DebtRatioMediumAbove = 70.0
)

var suggestions = map[string]string{
	CategoryProfitability: "关注成本控制和收入增长策略",
	CategoryRevenue:       "关注市场份额和产品竞争力",
	CategoryCashFlow:      "关注应收账款管理和存货周转",
	CategoryLeverage:      "关注债务结构和偿债能力",
}

// Suggestion returns the fixed remediation text of a category.
func Suggestion(category string) string { return suggestions[category] }

// Classify returns the risk factors triggered by the record. Absent and
// non-negative metrics produce nothing; the result is never nil.
func Classify(record *models.FinancialRecord) []models.RiskFactor {
	factors := []models.RiskFactor{}
	if record == nil {
		return factors
	}
	fd := record.FinancialData

	if v := fd.NetProfitYoY; v != nil && *v < 0 {
		factors = append(factors, models.RiskFactor{
			Category:    CategoryProfitability,
			Description: fmt.Sprintf("净利润同比下降 %.2f%%", math.Abs(*v)),
			Severity:    tier(*v, NetProfitHighBelow, NetProfitMediumBelow),
			Evidence:    fmt.Sprintf("财务数据显示净利润同比变化为 %.2f%%", *v),
			Suggestion:  suggestions[CategoryProfitability],
		})
	}

	if v := fd.RevenueYoY; v != nil && *v < 0 {
		factors = append(factors, models.RiskFactor{
			Category:    CategoryRevenue,
			Description: fmt.Sprintf("营业收入同比下降 %.2f%%", math.Abs(*v)),
			Severity:    tier(*v, RevenueHighBelow, RevenueMediumBelow),
			Evidence:    fmt.Sprintf("财务数据显示营业收入同比变化为 %.2f%%", *v),
			Suggestion:  suggestions[CategoryRevenue],
		})
	}

	if v := fd.CashFlow.Operating; v != nil && *v < 0 {
		factors = append(factors, models.RiskFactor{
			Category:    CategoryCashFlow,
			Description: "经营活动现金流为负",
			Severity:    models.SeverityHigh,
			Evidence:    fmt.Sprintf("财务数据显示经营活动现金流为 %.2f亿元", *v),
			Suggestion:  suggestions[CategoryCashFlow],
		})
	}

	if v := fd.CapitalStructure.DebtRatio; v != nil && *v > DebtRatioMediumAbove {
		sev := models.SeverityMedium
		if *v > DebtRatioHighAbove {
			sev = models.SeverityHigh
		}
		factors = append(factors, models.RiskFactor{
			Category:    CategoryLeverage,
			Description: fmt.Sprintf("资产负债率较高 (%.2f%%)", *v),
			Severity:    sev,
			Evidence:    fmt.Sprintf("财务数据显示资产负债率为 %.2f%%", *v),
			Suggestion:  suggestions[CategoryLeverage],
		})
	}

	return factors
}

// tier maps a negative change onto high/medium/low.
func tier(v, highBelow, mediumBelow float64) models.Severity {
	switch {
	case v < highBelow:
		return models.SeverityHigh
	case v < mediumBelow:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
