package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_EmbeddedLibrary(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	assert.Equal(t, []string{IDRiskAnalysis, IDTrendAnalysis, IDFinancialReport, IDKeyMetrics}, r.ListPrompts())

	pt, err := r.GetPrompt(IDFinancialReport)
	require.NoError(t, err)
	assert.Equal(t, "extraction", pt.Category)
	assert.NotEmpty(t, pt.SystemPrompt)
}

func TestRenderUser(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	pt, err := r.GetPrompt(IDFinancialReport)
	require.NoError(t, err)

	out, err := pt.RenderUser(map[string]interface{}{
		"CompanyName": "示例股份",
		"Content":     "营业总收入12亿元",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "- 公司名称：示例股份")
	assert.Contains(t, out, "- 股票代码：未知")
	assert.Contains(t, out, "营业总收入12亿元")

	_, err = pt.RenderUser(map[string]interface{}{"CompanyName": "示例股份"})
	assert.ErrorContains(t, err, "PROMPT_VARIABLE_MISSING")
}

func TestRenderUser_AnalysisTemplates(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	pt, err := r.GetPrompt(IDTrendAnalysis)
	require.NoError(t, err)
	assert.Equal(t, "analysis", pt.Category)
	out, err := pt.RenderUser(map[string]interface{}{"CompanyName": "示例股份", "Current": "本期", "Previous": "上期"})
	require.NoError(t, err)
	assert.Contains(t, out, "公司名称：示例股份")
	assert.Contains(t, out, "当前财务报告内容：\n本期")
	assert.Contains(t, out, "上期财务报告内容：\n上期")

	pt, err = r.GetPrompt(IDRiskAnalysis)
	require.NoError(t, err)
	_, err = pt.RenderUser(map[string]interface{}{"CompanyName": "示例股份"})
	assert.ErrorContains(t, err, "PROMPT_VARIABLE_MISSING")
}

func TestLoadDirectory_Overrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "extraction"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extraction", "key_metrics.json"),
		[]byte(`{"system_prompt":"custom","user_prompt_template":"{{.Content}}"}`), 0o644))

	r, err := Default()
	require.NoError(t, err)
	require.NoError(t, r.LoadDirectory(dir))

	pt, err := r.GetPrompt(IDKeyMetrics)
	require.NoError(t, err)
	assert.Equal(t, "custom", pt.SystemPrompt)

	assert.Error(t, r.LoadDirectory(filepath.Join(dir, "missing")))
	_, err = r.GetPrompt("nope")
	assert.ErrorContains(t, err, "PROMPT_NOT_FOUND")
}
