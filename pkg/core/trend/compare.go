// Package trend diffs two reconciled records across periods.
package trend

import "report_analysis/pkg/models"

// Change computes the delta between two optional values. ChangePercent is nil
// whenever previous is nil or zero, or current is nil.
func Change(current, previous *float64) models.ComparisonResult {
	res := models.ComparisonResult{
		Current:   copyPtr(current),
		Previous:  copyPtr(previous),
		Direction: models.DirectionFlat,
	}
	if current == nil || previous == nil {
		return res
	}
	change := *current - *previous
	res.Change = &change
	if *previous != 0 {
		pct := change / *previous * 100
		res.ChangePercent = &pct
	}
	switch {
	case change > 0:
		res.Direction = models.DirectionUp
	case change < 0:
		res.Direction = models.DirectionDown
	}
	return res
}

// Compare diffs the tracked metrics of two records.
func Compare(current, previous *models.FinancialRecord) models.Comparison {
	cur := financials(current)
	prev := financials(previous)

	deltas := models.TrendData{
		NetProfit:         Change(cur.NetProfit, prev.NetProfit),
		Revenue:           Change(cur.Revenue, prev.Revenue),
		ROE:               Change(cur.Profitability.ROE, prev.Profitability.ROE),
		DebtRatio:         Change(cur.CapitalStructure.DebtRatio, prev.CapitalStructure.DebtRatio),
		OperatingCashFlow: Change(cur.CashFlow.Operating, prev.CashFlow.Operating),
	}
	return models.Comparison{Deltas: deltas, Verdict: Verdict(deltas)}
}

// Verdict counts up against down among net profit, revenue and ROE only.
func Verdict(d models.TrendData) models.TrendVerdict {
	up, down := 0, 0
	for _, c := range []models.ComparisonResult{d.NetProfit, d.Revenue, d.ROE} {
		switch c.Direction {
		case models.DirectionUp:
			up++
		case models.DirectionDown:
			down++
		}
	}
	switch {
	case up > down:
		return models.VerdictImproving
	case down > up:
		return models.VerdictDeclining
	default:
		return models.VerdictStable
	}
}

func financials(r *models.FinancialRecord) models.FinancialData {
	if r == nil {
		return models.FinancialData{}
	}
	return r.FinancialData
}

func copyPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
