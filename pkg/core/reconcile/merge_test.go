package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report_analysis/pkg/models"
)

func ruleRecord() *models.FinancialRecord {
	rec := models.NewFinancialRecord(models.BasicInfo{CompanyName: "示例股份", StockCode: "600000", ReportPeriod: "2023年年度报告"})
	rec.FinancialData.NetProfit = models.Float(5)
	rec.FinancialData.Profitability.ROE = models.Float(12.5)
	return rec
}

func TestMerge_RuleValueWins(t *testing.T) {
	sec := &models.SecondaryExtraction{FinancialData: map[string]interface{}{
		"net_profit":    7.0,
		"profitability": map[string]interface{}{"roe": "20%"},
	}}
	out, report := NewReconciler(zerolog.Nop()).Merge(ruleRecord(), sec)

	assert.Equal(t, 5.0, *out.FinancialData.NetProfit)
	assert.Equal(t, 12.5, *out.FinancialData.Profitability.ROE)
	assert.Empty(t, report.Adopted)
}

func TestMerge_SecondaryFillsGapWithCoercion(t *testing.T) {
	sec := &models.SecondaryExtraction{FinancialData: map[string]interface{}{
		"net_profit_yoy":    "7%",
		"revenue":           "1,234.5",
		"cash_flow":         map[string]interface{}{"operating": -8.4, "investing": nil},
		"capital_structure": map[string]interface{}{"debt_ratio": "43.50%", "net_assets": json.Number("69.1")},
		"expense_ratios":    map[string]interface{}{"rd_expense_ratio": 6},
	}}
	out, report := NewReconciler(zerolog.Nop()).Merge(ruleRecord(), sec)
	fd := out.FinancialData

	require.NotNil(t, fd.NetProfitYoY)
	assert.Equal(t, 7.0, *fd.NetProfitYoY)
	assert.Equal(t, 1234.5, *fd.Revenue)
	assert.Equal(t, -8.4, *fd.CashFlow.Operating)
	assert.Nil(t, fd.CashFlow.Investing)
	assert.Equal(t, 43.5, *fd.CapitalStructure.DebtRatio)
	assert.Equal(t, 69.1, *fd.CapitalStructure.NetAssets)
	assert.Equal(t, 6.0, *fd.ExpenseRatios.RD)
	assert.ElementsMatch(t, []string{
		"net_profit_yoy", "revenue", "cash_flow.operating",
		"capital_structure.net_assets", "capital_structure.debt_ratio",
		"expense_ratios.rd_expense_ratio",
	}, report.Adopted)
}

func TestMerge_CoercionFailureLeavesNull(t *testing.T) {
	sec := &models.SecondaryExtraction{FinancialData: map[string]interface{}{
		"revenue":     "约一百亿",
		"revenue_yoy": "12.3%",
		"cash_flow":   "not an object",
	}}
	out, report := NewReconciler(zerolog.Nop()).Merge(ruleRecord(), sec)

	assert.Nil(t, out.FinancialData.Revenue)
	assert.Equal(t, 12.3, *out.FinancialData.RevenueYoY)
	assert.Equal(t, []string{"revenue"}, report.CoercionFailures)
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	rule := ruleRecord()
	sec := &models.SecondaryExtraction{FinancialData: map[string]interface{}{"revenue": 10.0}}
	out, _ := NewReconciler(zerolog.Nop()).Merge(rule, sec)

	assert.Nil(t, rule.FinancialData.Revenue)
	assert.Equal(t, 10.0, *out.FinancialData.Revenue)
	*out.FinancialData.NetProfit = 99
	assert.Equal(t, 5.0, *rule.FinancialData.NetProfit)
}

func TestMerge_BasicIndicatorsUnioned(t *testing.T) {
	sec := &models.SecondaryExtraction{
		BasicIndicators: map[string]interface{}{
			"revenue":      100.2,
			"net_profit":   10.5,
			"eps":          "1.23",
			"total_assets": 500.0,
			"bvps":         nil,
		},
		Summary: "## 摘要",
	}
	out, _ := NewReconciler(zerolog.Nop()).Merge(ruleRecord(), sec)

	assert.Equal(t, map[string]interface{}{"eps": "1.23", "total_assets": 500.0}, out.SupplementaryMetrics)
	assert.Equal(t, "## 摘要", out.SecondarySummary)
}

func TestMerge_NilSecondary(t *testing.T) {
	rule := ruleRecord()
	out, report := NewReconciler(zerolog.Nop()).Merge(rule, nil)
	assert.Equal(t, rule, out)
	assert.NotSame(t, rule, out)
	assert.Empty(t, report.Adopted)
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		in      interface{}
		want    *float64
		wantErr bool
	}{
		{nil, nil, false},
		{7, models.Float(7), false},
		{int64(3), models.Float(3), false},
		{float32(1.5), models.Float(1.5), false},
		{"7%", models.Float(7), false},
		{" -12.5 % ", models.Float(-12.5), false},
		{"1,234,567", models.Float(1234567), false},
		{"", nil, true},
		{"N/A", nil, true},
		{true, nil, true},
		{[]interface{}{1}, nil, true},
	}
	for _, tt := range tests {
		got, err := Coerce(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "%v", tt.in)
			continue
		}
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}
