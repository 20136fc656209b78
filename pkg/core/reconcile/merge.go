// Package reconcile merges the rule-derived record with a secondary
// (model-derived) extraction. Rule values always win; secondary values only
// fill gaps.
package reconcile

import (
	"github.com/rs/zerolog"

	"report_analysis/pkg/core/logging"
	"report_analysis/pkg/models"
)

// Report describes what a merge did.
type Report struct {
	// Adopted lists leaves filled from the secondary source, as "group.key".
	Adopted []string `json:"adopted"`
	// CoercionFailures lists secondary leaves that could not be converted.
	CoercionFailures []string `json:"coercion_failures"`
}

type leaf struct {
	group string // "" for top-level keys of financial_data
	key   string
	field func(*models.FinancialData) **float64
}

// leaves is the reconciled taxonomy, in merge order.
var leaves = []leaf{
	{"", "net_profit", func(d *models.FinancialData) **float64 { return &d.NetProfit }},
	{"", "net_profit_yoy", func(d *models.FinancialData) **float64 { return &d.NetProfitYoY }},
	{"", "revenue", func(d *models.FinancialData) **float64 { return &d.Revenue }},
	{"", "revenue_yoy", func(d *models.FinancialData) **float64 { return &d.RevenueYoY }},

	{"profitability", "roe", func(d *models.FinancialData) **float64 { return &d.Profitability.ROE }},
	{"profitability", "roa", func(d *models.FinancialData) **float64 { return &d.Profitability.ROA }},
	{"profitability", "gross_margin", func(d *models.FinancialData) **float64 { return &d.Profitability.GrossMargin }},
	{"profitability", "net_margin", func(d *models.FinancialData) **float64 { return &d.Profitability.NetMargin }},

	{"cash_flow", "operating", func(d *models.FinancialData) **float64 { return &d.CashFlow.Operating }},
	{"cash_flow", "investing", func(d *models.FinancialData) **float64 { return &d.CashFlow.Investing }},
	{"cash_flow", "financing", func(d *models.FinancialData) **float64 { return &d.CashFlow.Financing }},

	{"capital_structure", "net_assets", func(d *models.FinancialData) **float64 { return &d.CapitalStructure.NetAssets }},
	{"capital_structure", "debt_ratio", func(d *models.FinancialData) **float64 { return &d.CapitalStructure.DebtRatio }},

	{"expense_ratios", "sales_expense_ratio", func(d *models.FinancialData) **float64 { return &d.ExpenseRatios.Sales }},
	{"expense_ratios", "admin_expense_ratio", func(d *models.FinancialData) **float64 { return &d.ExpenseRatios.Admin }},
	{"expense_ratios", "rd_expense_ratio", func(d *models.FinancialData) **float64 { return &d.ExpenseRatios.RD }},
	{"expense_ratios", "financial_expense_ratio", func(d *models.FinancialData) **float64 { return &d.ExpenseRatios.Financial }},

	{"asset_structure", "accounts_receivable_ratio", func(d *models.FinancialData) **float64 { return &d.AssetStructure.AccountsReceivableRatio }},
	{"asset_structure", "inventory_ratio", func(d *models.FinancialData) **float64 { return &d.AssetStructure.InventoryRatio }},
	{"asset_structure", "construction_in_progress_ratio", func(d *models.FinancialData) **float64 { return &d.AssetStructure.ConstructionInProgressRatio }},
}

// reconciledIndicators are basic indicators already handled as leaves.
var reconciledIndicators = map[string]bool{"revenue": true, "net_profit": true}

type Reconciler struct {
	log zerolog.Logger
}

func NewReconciler(log zerolog.Logger) *Reconciler {
	return &Reconciler{log: logging.For(log, "reconcile")}
}

// Merge returns a new record combining rule and secondary. Neither input is
// modified. A nil secondary yields a copy of rule.
func (r *Reconciler) Merge(rule *models.FinancialRecord, secondary *models.SecondaryExtraction) (*models.FinancialRecord, Report) {
	report := Report{Adopted: []string{}, CoercionFailures: []string{}}
	out := rule.Clone()
	if out == nil || secondary == nil {
		return out, report
	}

	for _, l := range leaves {
		target := l.field(&out.FinancialData)
		if *target != nil {
			continue
		}
		raw, ok := r.lookup(secondary.FinancialData, l.group, l.key)
		if !ok || raw == nil {
			continue
		}
		v, err := Coerce(raw)
		if err != nil {
			r.log.Warn().Err(err).Str("leaf", l.path()).Msg("secondary value not adopted")
			report.CoercionFailures = append(report.CoercionFailures, l.path())
			continue
		}
		*target = v
		report.Adopted = append(report.Adopted, l.path())
	}

	for key, value := range secondary.BasicIndicators {
		if value == nil || reconciledIndicators[key] {
			continue
		}
		if out.SupplementaryMetrics == nil {
			out.SupplementaryMetrics = make(map[string]interface{})
		}
		out.SupplementaryMetrics[key] = value
	}

	if secondary.Summary != "" {
		out.SecondarySummary = secondary.Summary
	}

	r.log.Debug().Int("adopted", len(report.Adopted)).Int("coercion_failures", len(report.CoercionFailures)).Msg("merge complete")
	return out, report
}

func (r *Reconciler) lookup(data map[string]interface{}, group, key string) (interface{}, bool) {
	if data == nil {
		return nil, false
	}
	if group == "" {
		v, ok := data[key]
		return v, ok
	}
	rawGroup, ok := data[group]
	if !ok || rawGroup == nil {
		return nil, false
	}
	m, ok := rawGroup.(map[string]interface{})
	if !ok {
		r.log.Warn().Str("group", group).Msgf("secondary group has type %T, expected object", rawGroup)
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

func (l leaf) path() string {
	if l.group == "" {
		return l.key
	}
	return l.group + "." + l.key
}
