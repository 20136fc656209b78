package summary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report_analysis/pkg/core/trend"
	"report_analysis/pkg/models"
)

func sampleRecord() *models.FinancialRecord {
	rec := models.NewFinancialRecord(models.BasicInfo{
		CompanyName:  "示例股份",
		StockCode:    "600000",
		ReportPeriod: "2023年年度报告",
	})
	fd := &rec.FinancialData
	fd.NetProfit = models.Float(3)
	fd.NetProfitYoY = models.Float(-25)
	fd.Revenue = models.Float(12)
	fd.RevenueYoY = models.Float(20)
	fd.Profitability.ROE = models.Float(12.5)
	fd.CashFlow.Operating = models.Float(5)
	fd.CapitalStructure.DebtRatio = models.Float(65.2)
	rec.OperationData.MainBusiness = []models.BusinessSegment{
		{Segment: "装备制造", Proportion: models.Float(62), YoY: models.Float(-3)},
	}
	return rec
}

func TestRecord_SectionOrder(t *testing.T) {
	out := Record(models.AnalysisResult{Status: models.StatusSuccess, Record: sampleRecord()})

	headings := []string{"## 示例股份 2023年年度报告 财务分析摘要", "### 报告概览", "### 业绩概览", "### 财务健康状况", "### 主营业务分析", "### 风险提示"}
	last := -1
	for _, h := range headings {
		i := strings.Index(out, h)
		require.GreaterOrEqual(t, i, 0, "missing %q", h)
		assert.Greater(t, i, last, "%q out of order", h)
		last = i
	}

	assert.Contains(t, out, "- 归母净利润: 3.00亿元，同比下降 25.00%")
	assert.Contains(t, out, "- 营业总收入: 12.00亿元，同比增长 20.00%")
	assert.Contains(t, out, "- 经营活动现金流: 5.00亿元，呈正向")
	assert.Contains(t, out, "- 资产负债率: 65.20%，负债水平较高")
	assert.Contains(t, out, "- 装备制造: 占比 62.00%，同比下降 3.00%")
	assert.Contains(t, out, "🔴 [high] 净利润同比下降 25.00%")
}

func TestRecord_Deterministic(t *testing.T) {
	res := models.AnalysisResult{Status: models.StatusSuccess, Record: sampleRecord()}
	assert.Equal(t, Record(res), Record(res))
}

func TestRecord_OmitsAbsentMetrics(t *testing.T) {
	rec := models.NewFinancialRecord(models.BasicInfo{})
	out := Record(models.AnalysisResult{Status: models.StatusSuccess, Record: rec})

	assert.Contains(t, out, "## 未知公司 未知期间 财务分析摘要")
	assert.NotContains(t, out, "归母净利润")
	assert.NotContains(t, out, "### 主营业务分析")
	assert.Contains(t, out, NoRiskLine)
}

func TestRecord_DebtLevels(t *testing.T) {
	for ratio, level := range map[float64]string{60: "适中", 40.5: "适中", 40: "较低", 61: "较高"} {
		rec := models.NewFinancialRecord(models.BasicInfo{})
		rec.FinancialData.CapitalStructure.DebtRatio = models.Float(ratio)
		out := Record(models.AnalysisResult{Status: models.StatusSuccess, Record: rec})
		assert.Contains(t, out, "负债水平"+level, "ratio %v", ratio)
	}
}

func TestRecord_PrefersSecondarySummary(t *testing.T) {
	rec := sampleRecord()
	rec.SecondarySummary = "```markdown\n## 模型摘要\n内容\n```"
	out := Record(models.AnalysisResult{Status: models.StatusSuccess, Record: rec})
	assert.Equal(t, "## 模型摘要\n内容", out)
}

func TestRecord_ErrorAndSupplementary(t *testing.T) {
	assert.Equal(t, ErrorSummary, Record(models.AnalysisResult{Status: models.StatusError}))
	assert.Equal(t, ErrorSummary, Record(models.AnalysisResult{Status: models.StatusSuccess}))

	out := Record(models.AnalysisResult{
		Status: models.StatusPartial,
		Supplementary: &models.SupplementaryDisclosure{
			BasicInfo:     models.BasicInfo{CompanyName: "示例股份", ReportPeriod: "2023年补充公告"},
			ReportType:    models.SupplementaryReportType,
			ReportContent: "关于2023年年度报告的补充公告",
		},
	})
	assert.Contains(t, out, "## 示例股份 2023年补充公告 补充公告")
	assert.Contains(t, out, "关于2023年年度报告的补充公告...")
	assert.Contains(t, out, "这是一份补充公告，不是完整的财务报告")
}

func TestComparison(t *testing.T) {
	cur := sampleRecord()
	prev := sampleRecord()
	prev.BasicInfo.ReportPeriod = "2022年年度报告"
	prev.FinancialData.NetProfit = models.Float(4)
	prev.FinancialData.Revenue = models.Float(10)
	prev.FinancialData.Profitability.ROE = models.Float(14)
	prev.FinancialData.CapitalStructure.DebtRatio = models.Float(60.2)
	prev.FinancialData.CashFlow.Operating = nil

	out := Comparison(cur.BasicInfo, prev.BasicInfo, trend.Compare(cur, prev))

	assert.Contains(t, out, "## 示例股份 2023年年度报告 vs 2022年年度报告 趋势分析")
	assert.Contains(t, out, "- 净利润: 下降 25.00%，从 4.00亿元 变为 3.00亿元")
	assert.Contains(t, out, "- 营业收入: 上升 20.00%，从 10.00亿元 变为 12.00亿元")
	assert.Contains(t, out, "- 净资产收益率(ROE): 下降 1.50个百分点，从 14.00% 变为 12.50%")
	assert.Contains(t, out, "- 资产负债率: 上升 5.00个百分点")
	assert.NotContains(t, out, "- 经营活动现金流:")
	assert.Contains(t, out, "- 整体趋势: 下滑 ⬇️")

	perf := strings.Index(out, "### 业绩变化")
	cond := strings.Index(out, "### 财务状况变化")
	cash := strings.Index(out, "### 现金流变化")
	verdict := strings.Index(out, "### 趋势总结")
	assert.True(t, perf < cond && cond < cash && cash < verdict)
}

func TestComparison_Stable(t *testing.T) {
	rec := sampleRecord()
	out := Comparison(rec.BasicInfo, rec.BasicInfo, trend.Compare(rec, rec))
	assert.Contains(t, out, "- 整体趋势: 稳定 ↔️")
	assert.Contains(t, out, "- 净利润: 持平 0.00%")
}

func TestRisks(t *testing.T) {
	section := strings.Repeat("风", 1200)
	factors := []models.RiskFactor{{
		Category:    "负债风险",
		Description: "资产负债率较高，为 85.00%",
		Severity:    models.SeverityHigh,
		Evidence:    "财务数据显示资产负债率为 85.00%",
		Suggestion:  "关注债务结构和偿债能力",
	}}
	out := Risks(models.BasicInfo{CompanyName: "示例股份", ReportPeriod: "2023年年度报告"}, factors, &section)

	assert.Contains(t, out, "- 🔴 **负债风险**: 资产负债率较高，为 85.00%")
	assert.Contains(t, out, "#### 1. 负债风险")
	assert.Contains(t, out, "- **建议**: 关注债务结构和偿债能力")
	assert.Contains(t, out, "### 公司风险提示摘录\n\n"+strings.Repeat("风", 1000)+"...")
}

func TestRisks_Empty(t *testing.T) {
	out := Risks(models.BasicInfo{}, nil, nil)
	assert.Contains(t, out, NoRiskLine)
	assert.NotContains(t, out, "### 风险详情")
	assert.NotContains(t, out, "### 公司风险提示摘录")
}

func TestHTML(t *testing.T) {
	html, err := HTML("## 标题\n\n- 项目")
	require.NoError(t, err)
	assert.Contains(t, html, "<h2>标题</h2>")
	assert.Contains(t, html, "<li>项目</li>")
}
