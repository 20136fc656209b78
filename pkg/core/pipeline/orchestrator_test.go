package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"report_analysis/pkg/core/ingest"
	"report_analysis/pkg/core/secondary"
	"report_analysis/pkg/core/store"
	"report_analysis/pkg/core/summary"
	"report_analysis/pkg/models"
)

const current = `示例股份有限公司2023年年度报告
营业总收入1,200,000,000.00元，同比增长20.00%。
归属于上市公司股东的净利润300,000,000.00元，同比增长-25.00%。
资产负债率85.00%。
`

const previous = `示例股份有限公司2022年年度报告
营业总收入1,000,000,000.00元，同比增长10.00%。
归属于上市公司股东的净利润400,000,000.00元，同比增长5.00%。
资产负债率60.00%。
`

const metadataJSON = `{"crawler_metadata":{"source":"cninfo","status":"success"},"report_metadata":{"company_name":"示例股份"}}`

func key(year int) ingest.Key {
	return ingest.Key{StockCode: "600000", Year: year, ReportType: "年度报告"}
}

func writeReport(t *testing.T, root string, year int, text string) {
	t.Helper()
	dir := filepath.Join(root, "600000", strconv.Itoa(year))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	base := filepath.Join(dir, "600000_"+strconv.Itoa(year)+"_年度")
	require.NoError(t, os.WriteFile(base+".txt", []byte(text), 0o644))
	require.NoError(t, os.WriteFile(base+"_metadata.json", []byte(metadataJSON), 0o644))
}

func newOrchestrator(t *testing.T) (*Orchestrator, string) {
	t.Helper()
	root := t.TempDir()
	o := NewOrchestrator(ingest.NewDirSource(root, zerolog.Nop()), nil, zerolog.Nop())
	o.SetRepository(store.NewAnalysisRepo(nil, t.TempDir(), zerolog.Nop()))
	return o, root
}

type failingSource struct{}

func (failingSource) Extract(context.Context, string, models.DocumentMetadata) (*models.SecondaryExtraction, error) {
	return nil, errors.New("SECONDARY_FINANCIAL_DATA_FAILED")
}

type stubAnalyst struct {
	trend   *secondary.TrendAnalysis
	risk    *secondary.RiskAnalysis
	err     error
	texts   []string
	company string
	calls   int
}

func (a *stubAnalyst) Trends(_ context.Context, current, previous, company string) (*secondary.TrendAnalysis, error) {
	a.calls++
	a.texts = []string{current, previous}
	a.company = company
	return a.trend, a.err
}

func (a *stubAnalyst) Risks(_ context.Context, text, company string) (*secondary.RiskAnalysis, error) {
	a.calls++
	a.texts = []string{text}
	a.company = company
	return a.risk, a.err
}

type failingRepo struct{}

func (failingRepo) Save(context.Context, ingest.Key, models.AnalysisResult, string) (*store.Entry, error) {
	return nil, errors.New("disk full")
}

func (failingRepo) Get(context.Context, ingest.Key) (*store.Entry, error) {
	return nil, store.ErrNoAnalysis
}

func TestOrchestrator_Analyze(t *testing.T) {
	o, root := newOrchestrator(t)
	writeReport(t, root, 2023, current)

	rep, err := o.Analyze(context.Background(), key(2023))
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, rep.Result.Status)
	assert.NotEmpty(t, rep.ID)
	assert.False(t, rep.Cached)
	assert.Equal(t, "示例股份", rep.Result.Record.BasicInfo.CompanyName)
	assert.Equal(t, "2023年年度报告", rep.Result.Record.BasicInfo.ReportPeriod)
	assert.Contains(t, rep.Summary, "## 示例股份 2023年年度报告 财务分析摘要")

	require.NotNil(t, rep.Info)
	assert.Equal(t, len([]rune(current)), rep.Info.TextLength)
	assert.Equal(t, current, rep.Info.Preview)
}

func TestOrchestrator_AnalyzeMissing(t *testing.T) {
	o, _ := newOrchestrator(t)

	rep, err := o.Analyze(context.Background(), key(2023))
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, rep.Result.Status)
	assert.Equal(t, models.KindMissingInput, rep.Result.Kind)
	assert.Contains(t, rep.Result.Message, "600000/2023/年度报告")
	assert.Equal(t, summary.ErrorSummary, rep.Summary)
	assert.Nil(t, rep.Info)
}

func TestOrchestrator_AnalyzePreviewTruncated(t *testing.T) {
	o, root := newOrchestrator(t)
	writeReport(t, root, 2023, current+strings.Repeat("文", 600))

	rep, err := o.Analyze(context.Background(), key(2023))
	require.NoError(t, err)
	assert.Equal(t, PreviewLength+3, len([]rune(rep.Info.Preview)))
	assert.True(t, strings.HasSuffix(rep.Info.Preview, "..."))
}

func TestOrchestrator_SecondaryFailureIsWarning(t *testing.T) {
	o, root := newOrchestrator(t)
	o.SetSecondary(failingSource{})
	o.SetRepository(failingRepo{})
	writeReport(t, root, 2023, current)

	rep, err := o.Analyze(context.Background(), key(2023))
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, rep.Result.Status)
	assert.Equal(t, []models.ErrorKind{models.KindSecondarySourceFailure}, rep.Result.Warnings)
	assert.Empty(t, rep.ID)
}

func TestOrchestrator_SummaryUsesStoredAnalysis(t *testing.T) {
	o, root := newOrchestrator(t)
	writeReport(t, root, 2023, current)
	ctx := context.Background()

	first, err := o.Summary(ctx, key(2023))
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := o.Summary(ctx, key(2023))
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Summary, second.Summary)
}

func TestOrchestrator_SummaryRetriesFailedAnalysis(t *testing.T) {
	o, root := newOrchestrator(t)
	ctx := context.Background()

	rep, err := o.Summary(ctx, key(2023))
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, rep.Result.Status)

	writeReport(t, root, 2023, current)
	rep, err = o.Summary(ctx, key(2023))
	require.NoError(t, err)
	assert.False(t, rep.Cached)
	assert.Equal(t, models.StatusSuccess, rep.Result.Status)
}

func TestOrchestrator_Trends(t *testing.T) {
	o, root := newOrchestrator(t)
	writeReport(t, root, 2023, current)
	writeReport(t, root, 2022, previous)

	out, err := o.Trends(context.Background(), TrendRequest{
		StockCode: "600000", CurrentYear: 2023, PreviousYear: 2022, ReportType: "年度报告",
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, out.Status)
	require.NotNil(t, out.Deltas)
	assert.InDelta(t, -25.0, *out.Deltas.NetProfit.ChangePercent, 1e-9)
	assert.Equal(t, models.DirectionUp, out.Deltas.Revenue.Direction)
	assert.InDelta(t, 25.0, *out.Deltas.DebtRatio.Change, 1e-9)
	assert.Contains(t, out.Narrative, "## 示例股份 2023年年度报告 vs 2022年年度报告 趋势分析")
	assert.Contains(t, out.Narrative, "- 净利润: 下降 25.00%，从 4.00亿元 变为 3.00亿元")
}

func TestOrchestrator_TrendsIncomplete(t *testing.T) {
	o, root := newOrchestrator(t)
	writeReport(t, root, 2023, current)
	writeReport(t, root, 2022, "关于2022年年度报告的补充公告\n更正部分数据。")

	out, err := o.Trends(context.Background(), TrendRequest{
		StockCode: "600000", CurrentYear: 2023, PreviousYear: 2022, ReportType: "年度报告",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, out.Status)
	assert.Equal(t, "无法完成对比分析，报告分析不完整", out.Message)
	assert.Nil(t, out.Deltas)
}

func TestOrchestrator_Risks(t *testing.T) {
	o, root := newOrchestrator(t)
	writeReport(t, root, 2023, current)

	out, err := o.Risks(context.Background(), key(2023))
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, out.Status)

	var categories []string
	for _, f := range out.Factors {
		categories = append(categories, f.Category)
	}
	assert.Equal(t, []string{"盈利能力风险", "负债风险"}, categories)
	assert.Equal(t, models.SeverityHigh, out.Factors[0].Severity)
}

func TestOrchestrator_RisksSupplementary(t *testing.T) {
	o, root := newOrchestrator(t)
	writeReport(t, root, 2023, "关于2023年年度报告的补充公告\n风险提示\n市场竞争加剧。\n一、其他事项")

	out, err := o.Risks(context.Background(), key(2023))
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, out.Status)
	assert.Empty(t, out.Factors)
	require.NotNil(t, out.RiskSection)
	assert.Contains(t, *out.RiskSection, "市场竞争加剧")
}

func TestOrchestrator_RisksMissing(t *testing.T) {
	o, _ := newOrchestrator(t)

	out, err := o.Risks(context.Background(), key(2023))
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, out.Status)
	assert.Equal(t, models.KindMissingInput, out.Kind)
	assert.NotNil(t, out.Factors)
}

func trendRequest() TrendRequest {
	return TrendRequest{StockCode: "600000", CurrentYear: 2023, PreviousYear: 2022, ReportType: "年度报告"}
}

func TestOrchestrator_TrendsPrefersModel(t *testing.T) {
	o, root := newOrchestrator(t)
	writeReport(t, root, 2023, current)
	writeReport(t, root, 2022, previous)
	a := &stubAnalyst{trend: &secondary.TrendAnalysis{
		Summary: "## 趋势\n净利润下降",
		Data:    map[string]interface{}{"profit_change": "-25%"},
	}}
	o.SetAnalyst(a)

	out, err := o.Trends(context.Background(), trendRequest())
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, out.Status)
	assert.Equal(t, "趋势分析完成", out.Message)
	assert.Equal(t, models.SourceModel, out.Source)
	assert.Equal(t, "## 趋势\n净利润下降", out.Narrative)
	assert.Equal(t, "-25%", out.ModelData["profit_change"])
	assert.Nil(t, out.Deltas)
	assert.Equal(t, []string{current, previous}, a.texts)
	assert.Equal(t, "示例股份", a.company)
}

func TestOrchestrator_TrendsModelFailureFallsBack(t *testing.T) {
	o, root := newOrchestrator(t)
	writeReport(t, root, 2023, current)
	writeReport(t, root, 2022, previous)
	a := &stubAnalyst{err: errors.New("SECONDARY_trend_analysis_FAILED")}
	o.SetAnalyst(a)

	out, err := o.Trends(context.Background(), trendRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, a.calls)
	require.Equal(t, models.StatusSuccess, out.Status)
	assert.Equal(t, models.SourceRules, out.Source)
	require.NotNil(t, out.Deltas)
	assert.InDelta(t, -25.0, *out.Deltas.NetProfit.ChangePercent, 1e-9)
}

func TestOrchestrator_TrendsModelSkippedWithoutBothReports(t *testing.T) {
	o, root := newOrchestrator(t)
	writeReport(t, root, 2023, current)
	a := &stubAnalyst{trend: &secondary.TrendAnalysis{Summary: "x"}}
	o.SetAnalyst(a)

	out, err := o.Trends(context.Background(), trendRequest())
	require.NoError(t, err)
	assert.Zero(t, a.calls)
	assert.Equal(t, models.StatusError, out.Status)
	assert.Empty(t, out.Source)
}

func TestOrchestrator_RisksPrefersModel(t *testing.T) {
	o, root := newOrchestrator(t)
	writeReport(t, root, 2023, current)
	factors := []models.RiskFactor{{Category: "流动性风险", Description: "短期偿债压力", Severity: models.SeverityMedium}}
	o.SetAnalyst(&stubAnalyst{risk: &secondary.RiskAnalysis{Summary: "## 风险", Factors: factors}})

	out, err := o.Risks(context.Background(), key(2023))
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuccess, out.Status)
	assert.Equal(t, "风险分析完成", out.Message)
	assert.Equal(t, models.SourceModel, out.Source)
	assert.Equal(t, "## 风险", out.Narrative)
	assert.Equal(t, factors, out.Factors)
}

func TestOrchestrator_RisksModelFailureFallsBack(t *testing.T) {
	o, root := newOrchestrator(t)
	writeReport(t, root, 2023, current)
	o.SetAnalyst(&stubAnalyst{err: errors.New("quota")})

	out, err := o.Risks(context.Background(), key(2023))
	require.NoError(t, err)
	require.Equal(t, models.StatusSuccess, out.Status)
	assert.Equal(t, models.SourceRules, out.Source)
	require.Len(t, out.Factors, 2)
	assert.Equal(t, "盈利能力风险", out.Factors[0].Category)
}
