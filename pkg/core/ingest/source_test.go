package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDirSource_Load(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "600000", "2023")
	writeFile(t, filepath.Join(dir, "600000_2023_年度.txt"), "营业总收入12亿元")
	writeFile(t, filepath.Join(dir, "600000_2023_年度_metadata.json"),
		`{"crawler_metadata":{"source":"cninfo"},"report_metadata":{"company_name":"示例股份","stock_code":"600000"}}`)

	src := NewDirSource(root, zerolog.Nop())
	doc, err := src.Load(Key{StockCode: "600000", Year: 2023, ReportType: "年度报告"})
	require.NoError(t, err)

	assert.Equal(t, "营业总收入12亿元", doc.Text)
	assert.Equal(t, "示例股份", doc.Metadata.CompanyName)
	assert.Equal(t, "600000", doc.Metadata.StockCode)
	assert.Equal(t, "年度报告", doc.Metadata.ReportType)
	assert.Equal(t, "2023年年度报告", doc.Metadata.ReportPeriod)
}

func TestDirSource_NotFound(t *testing.T) {
	root := t.TempDir()
	src := NewDirSource(root, zerolog.Nop())
	k := Key{StockCode: "000001", Year: 2022, ReportType: "半年度报告"}

	_, err := src.Text(k)
	assert.True(t, errors.Is(err, ErrNotFound))

	writeFile(t, filepath.Join(root, "000001", "2022", "000001_2022_半年度.txt"), "正文")
	_, err = src.Load(k)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDirSource_MetadataDefaults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "000001", "2022", "000001_2022_年度_metadata.json"), `{"crawler_metadata":{}}`)

	meta, err := NewDirSource(root, zerolog.Nop()).Metadata(Key{StockCode: "000001", Year: 2022, ReportType: "年度报告"})
	require.NoError(t, err)
	assert.Equal(t, UnknownCompany, meta.CompanyName)

	writeFile(t, filepath.Join(root, "000001", "2021", "000001_2021_年度_metadata.json"), `not json`)
	_, err = NewDirSource(root, zerolog.Nop()).Metadata(Key{StockCode: "000001", Year: 2021, ReportType: "年度报告"})
	assert.ErrorContains(t, err, "INGEST_METADATA_INVALID")
}

func TestDirSource_HTMLFallback(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "600000", "2023", "600000_2023_年度.html"), `<html><head><style>p{}</style></head><body>
<h2>主要会计数据</h2>
<table><tr><td>营业总收入</td><td>1,200,000,000.00元</td></tr></table>
<p>资产负债率65.20%</p><script>var x = 1;</script></body></html>`)

	text, err := NewDirSource(root, zerolog.Nop()).Text(Key{StockCode: "600000", Year: 2023, ReportType: "年度报告"})
	require.NoError(t, err)
	assert.Contains(t, text, "主要会计数据")
	assert.Contains(t, text, "营业总收入\t1,200,000,000.00元")
	assert.Contains(t, text, "资产负债率65.20%")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "p{}")
}

func TestHTMLToText_DropsBlankLines(t *testing.T) {
	text, err := HTMLToText(strings.NewReader("<div>一</div><div>&nbsp;</div><div>二</div>"))
	require.NoError(t, err)
	assert.Equal(t, "一\n二", text)
}

func TestKey(t *testing.T) {
	k := Key{StockCode: "600000", Year: 2023, ReportType: "第三季度报告"}
	assert.Equal(t, "600000_2023_第三季度", k.baseName())
	assert.Equal(t, "2023年第三季度报告", k.Period())
	assert.Equal(t, "600000/2023/第三季度报告", k.String())
}

func TestNewKey(t *testing.T) {
	k, err := NewKey("600000", 2023, "年度报告")
	require.NoError(t, err)
	assert.Equal(t, Key{StockCode: "600000", Year: 2023, ReportType: "年度报告"}, k)

	tests := []struct {
		name       string
		stockCode  string
		year       int
		reportType string
	}{
		{"zero year", "600000", 0, "年度报告"},
		{"empty stock code", "", 2023, "年度报告"},
		{"empty report type", "600000", 2023, ""},
		{"parent stock code", "../secret", 1, "x"},
		{"dot dot", "..", 2023, "年度报告"},
		{"dot", ".", 2023, "年度报告"},
		{"nested report type", "600000", 2023, "a/b"},
		{"backslash", "600000", 2023, `a\x`},
		{"absolute", "/etc", 2023, "年度报告"},
		{"nul", "600000\x00", 2023, "年度报告"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKey(tt.stockCode, tt.year, tt.reportType)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestDirSource_RejectsTraversal(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "data")
	writeFile(t, filepath.Join(base, "secret", "1", "secret_1_x.txt"), "营业总收入12亿元")
	writeFile(t, filepath.Join(base, "secret", "secret_1_x.txt"), "营业总收入12亿元")

	src := NewDirSource(root, zerolog.Nop())
	_, err := src.Load(Key{StockCode: "../secret", Year: 1, ReportType: "x"})
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.False(t, errors.Is(err, ErrNotFound))

	_, err = src.Metadata(Key{StockCode: "600000", Year: 1, ReportType: "../../x"})
	assert.ErrorIs(t, err, ErrInvalidKey)
}
