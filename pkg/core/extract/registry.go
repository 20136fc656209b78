package extract

import (
	"fmt"
	"regexp"
)

// Metric names. They double as the JSON keys of the record leaves.
const (
	MetricNetProfit    = "net_profit"
	MetricNetProfitYoY = "net_profit_yoy"
	MetricRevenue      = "revenue"
	MetricRevenueYoY   = "revenue_yoy"

	MetricOperatingCashFlow = "cash_flow.operating"
	MetricInvestingCashFlow = "cash_flow.investing"
	MetricFinancingCashFlow = "cash_flow.financing"

	MetricROE         = "profitability.roe"
	MetricROA         = "profitability.roa"
	MetricGrossMargin = "profitability.gross_margin"
	MetricNetMargin   = "profitability.net_margin"

	MetricSalesExpenseRatio     = "expense_ratios.sales_expense_ratio"
	MetricAdminExpenseRatio     = "expense_ratios.admin_expense_ratio"
	MetricRDExpenseRatio        = "expense_ratios.rd_expense_ratio"
	MetricFinancialExpenseRatio = "expense_ratios.financial_expense_ratio"

	MetricReceivableRatio   = "asset_structure.accounts_receivable_ratio"
	MetricInventoryRatio    = "asset_structure.inventory_ratio"
	MetricConstructionRatio = "asset_structure.construction_in_progress_ratio"

	MetricNetAssets = "capital_structure.net_assets"
	MetricDebtRatio = "capital_structure.debt_ratio"

	MetricPE = "valuation.pe"
	MetricPB = "valuation.pb"

	ListShareholderChanges = "major_shareholder_changes"
	ListMainBusiness       = "main_business"
)

// ValueKind tells the extractor how to interpret a pattern's groups.
type ValueKind int

const (
	// KindPlain: group 1 is a bare number (ratios, multiples, percentages).
	KindPlain ValueKind = iota
	// KindMonetary: group 1 is an amount, group 2 the unit text ending in 元.
	KindMonetary
)

// Family is a metric with its ordered candidate patterns. The first pattern
// that matches anywhere in the text decides the value.
type Family struct {
	Name     string
	Kind     ValueKind
	Patterns []*regexp.Regexp
}

// ListFamily is a single pattern whose every match yields one list entry.
type ListFamily struct {
	Name    string
	Pattern *regexp.Regexp
}

// Registry is the read-only table of extraction patterns.
type Registry struct {
	families     []Family
	index        map[string]int
	lists        map[string]ListFamily
	riskSections []*regexp.Regexp
}

// NewRegistry validates and freezes a pattern table.
func NewRegistry(families []Family, lists []ListFamily, riskSections []*regexp.Regexp) (*Registry, error) {
	r := &Registry{
		index: make(map[string]int, len(families)),
		lists: make(map[string]ListFamily, len(lists)),
	}
	for _, f := range families {
		if f.Name == "" {
			return nil, fmt.Errorf("REGISTRY_INVALID: family without name")
		}
		if len(f.Patterns) == 0 {
			return nil, fmt.Errorf("REGISTRY_INVALID: family %s has no patterns", f.Name)
		}
		if _, dup := r.index[f.Name]; dup {
			return nil, fmt.Errorf("REGISTRY_INVALID: duplicate family %s", f.Name)
		}
		minGroups := 1
		if f.Kind == KindMonetary {
			minGroups = 2
		}
		for _, p := range f.Patterns {
			if p.NumSubexp() < minGroups {
				return nil, fmt.Errorf("REGISTRY_INVALID: pattern %q of %s needs %d groups", p.String(), f.Name, minGroups)
			}
		}
		r.index[f.Name] = len(r.families)
		r.families = append(r.families, Family{
			Name:     f.Name,
			Kind:     f.Kind,
			Patterns: append([]*regexp.Regexp(nil), f.Patterns...),
		})
	}
	for _, l := range lists {
		if l.Pattern == nil {
			return nil, fmt.Errorf("REGISTRY_INVALID: list %s has no pattern", l.Name)
		}
		r.lists[l.Name] = l
	}
	r.riskSections = append([]*regexp.Regexp(nil), riskSections...)
	return r, nil
}

// Family returns the named family. The pattern slice is a copy.
func (r *Registry) Family(name string) (Family, bool) {
	i, ok := r.index[name]
	if !ok {
		return Family{}, false
	}
	f := r.families[i]
	f.Patterns = append([]*regexp.Regexp(nil), f.Patterns...)
	return f, true
}

// Names lists the scalar families in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.families))
	for i, f := range r.families {
		names[i] = f.Name
	}
	return names
}

func (r *Registry) List(name string) (ListFamily, bool) {
	l, ok := r.lists[name]
	return l, ok
}

// RiskSectionPatterns returns the ordered heading patterns for the risk
// disclosure region.
func (r *Registry) RiskSectionPatterns() []*regexp.Regexp {
	return append([]*regexp.Regexp(nil), r.riskSections...)
}

// Default returns the built-in registry for A-share periodic reports.
func Default() *Registry { return defaultRegistry }

var defaultRegistry = mustDefault()

func mustDefault() *Registry {
	r, err := NewRegistry(defaultFamilies(), defaultLists(), defaultRiskSections())
	if err != nil {
		panic(err)
	}
	return r
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// monetary builds "<label>...<amount><unit>元" patterns.
func monetary(amount string, labels ...string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l + `[^\d]*(` + amount + `)([^\d%]*?元)`
	}
	return out
}

// yoy builds "<label>...同比...<signed>%" patterns.
func yoy(labels ...string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l + `[^%]*同比[增减变动]*[^\d-]*([-\d\.]+)%`
	}
	return out
}

// percent builds "<label>...<n>%" patterns.
func percent(labels ...string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l + `[^\d]*([\d\.]+)%`
	}
	return out
}

// ratioOf builds "<label>...占<base>...<n>%" followed by "<label>率/占比" fallbacks.
func ratioOf(base, label string, extra ...string) []string {
	out := []string{label + `[^%]*占` + base + `[^\d]*([\d\.]+)%`}
	return append(out, extra...)
}

func defaultFamilies() []Family {
	const amount = `[\d,\.]+`
	const signedAmount = `[-\d,\.]+`

	netProfitLabels := []string{"归属于上市公司股东的净利润", "归属于母公司所有者的净利润", "归属于母公司股东的净利润", "归母净利润"}
	revenueLabels := []string{"营业总收入", "营业收入", "总收入"}

	return []Family{
		{Name: MetricNetProfit, Kind: KindMonetary, Patterns: compileAll(monetary(amount, netProfitLabels...)...)},
		{Name: MetricNetProfitYoY, Patterns: compileAll(yoy(netProfitLabels...)...)},
		{Name: MetricRevenue, Kind: KindMonetary, Patterns: compileAll(monetary(amount, revenueLabels...)...)},
		{Name: MetricRevenueYoY, Patterns: compileAll(yoy(revenueLabels...)...)},

		{Name: MetricOperatingCashFlow, Kind: KindMonetary, Patterns: compileAll(monetary(signedAmount, "经营活动[产生|获得]的现金流量净额", "经营活动现金流量净额")...)},
		{Name: MetricInvestingCashFlow, Kind: KindMonetary, Patterns: compileAll(monetary(signedAmount, "投资活动[产生|使用]的现金流量净额", "投资活动现金流量净额")...)},
		{Name: MetricFinancingCashFlow, Kind: KindMonetary, Patterns: compileAll(monetary(signedAmount, "筹资活动[产生|使用]的现金流量净额", "筹资活动现金流量净额")...)},

		{Name: MetricROE, Patterns: compileAll(percent("净资产收益率", "ROE", "加权平均净资产收益率")...)},
		{Name: MetricROA, Patterns: compileAll(percent("总资产收益率", "ROA", "加权平均总资产收益率")...)},
		{Name: MetricGrossMargin, Patterns: compileAll(percent("毛利率", "销售毛利率", "营业毛利率")...)},
		{Name: MetricNetMargin, Patterns: compileAll(percent("净利率", "销售净利率", "营业净利率")...)},

		{Name: MetricSalesExpenseRatio, Patterns: compileAll(ratioOf("营业收入", "销售费用", percent("销售费用率")...)...)},
		{Name: MetricAdminExpenseRatio, Patterns: compileAll(ratioOf("营业收入", "管理费用", percent("管理费用率")...)...)},
		{Name: MetricRDExpenseRatio, Patterns: compileAll(ratioOf("营业收入", "研发费用", append(percent("研发费用率"), ratioOf("营业收入", "研发投入")...)...)...)},
		{Name: MetricFinancialExpenseRatio, Patterns: compileAll(ratioOf("营业收入", "财务费用", percent("财务费用率")...)...)},

		{Name: MetricReceivableRatio, Patterns: compileAll(ratioOf("总资产", "应收账款", percent("应收账款占比")...)...)},
		{Name: MetricInventoryRatio, Patterns: compileAll(ratioOf("总资产", "存货", percent("存货占比")...)...)},
		{Name: MetricConstructionRatio, Patterns: compileAll(ratioOf("总资产", "在建工程", percent("在建工程占比")...)...)},

		{Name: MetricNetAssets, Kind: KindMonetary, Patterns: compileAll(monetary(amount, "净资产", "所有者权益", "股东权益")...)},
		{Name: MetricDebtRatio, Patterns: compileAll(percent("资产负债率", "负债率")...)},

		{Name: MetricPE, Patterns: compileAll(`市盈率[^\d]*([\d\.]+)`, `PE[^\d]*([\d\.]+)`, `P/E[^\d]*([\d\.]+)`)},
		{Name: MetricPB, Patterns: compileAll(`市净率[^\d]*([\d\.]+)`, `PB[^\d]*([\d\.]+)`, `P/B[^\d]*([\d\.]+)`)},
	}
}

const han = `[\x{4e00}-\x{9fa5}]`

func defaultLists() []ListFamily {
	return []ListFamily{
		{
			// groups: shareholder, previous %, current %
			Name: ListShareholderChanges,
			Pattern: regexp.MustCompile(
				`(` + han + `+公司|` + han + `+集团|` + han + `+有限公司)[^%]*持股比例[^%]*从[^\d]*([\d\.]+)%[^%]*变[^\d]*([\d\.]+)%`),
		},
		{
			// groups: segment, revenue, unit, proportion %, yoy %
			Name: ListMainBusiness,
			Pattern: regexp.MustCompile(
				`(` + han + `+业务|` + han + `+板块)[^%]*营业收入[^\d]*([\d,\.]+)([^\d%]*?元)[^%]*占比[^\d]*([\d\.]+)%[^%]*同比[^\d-]*([-\d\.]+)%`),
		},
	}
}

func defaultRiskSections() []*regexp.Regexp {
	return compileAll(
		`(?s)(?:第[三四五]节|三、|四、|五、)\s*(?:重大风险提示|风险因素|风险提示)(.*?)(?:第[四五六]节|四、|五、|六、)`,
		`(?s)风险提示(.*?)(?:一、|二、|三、)`,
		`(?s)风险因素(.*?)(?:一、|二、|三、)`,
	)
}
