package models

// BasicInfo identifies the company and the reporting period of a record.
type BasicInfo struct {
	CompanyName  string `json:"company_name"`
	StockCode    string `json:"stock_code"`
	ReportPeriod string `json:"report_period"` // e.g. "2023年年度报告"
}

// CashFlow holds net cash flows in 亿元.
type CashFlow struct {
	Operating *float64 `json:"operating"`
	Investing *float64 `json:"investing"`
	Financing *float64 `json:"financing"`
}

// Profitability ratios, all in percent.
type Profitability struct {
	ROE         *float64 `json:"roe"`
	ROA         *float64 `json:"roa"`
	GrossMargin *float64 `json:"gross_margin"`
	NetMargin   *float64 `json:"net_margin"`
}

// ExpenseRatios are expenses as a percentage of operating revenue.
type ExpenseRatios struct {
	Sales     *float64 `json:"sales_expense_ratio"`
	Admin     *float64 `json:"admin_expense_ratio"`
	RD        *float64 `json:"rd_expense_ratio"`
	Financial *float64 `json:"financial_expense_ratio"`
}

// AssetStructure items are percentages of total assets.
type AssetStructure struct {
	AccountsReceivableRatio     *float64 `json:"accounts_receivable_ratio"`
	InventoryRatio              *float64 `json:"inventory_ratio"`
	ConstructionInProgressRatio *float64 `json:"construction_in_progress_ratio"`
}

type CapitalStructure struct {
	NetAssets *float64 `json:"net_assets"` // 亿元
	DebtRatio *float64 `json:"debt_ratio"` // %
}

// ShareholderChange records a holding moving between two percentages.
// ChangeDate is never populated by rule extraction.
type ShareholderChange struct {
	Shareholder     string   `json:"shareholder"`
	PreviousHolding *float64 `json:"previous_holding"`
	CurrentHolding  *float64 `json:"current_holding"`
	Change          *float64 `json:"change"`
	ChangeDate      *string  `json:"change_date"`
}

type FinancialData struct {
	NetProfit               *float64            `json:"net_profit"`
	NetProfitYoY            *float64            `json:"net_profit_yoy"`
	Revenue                 *float64            `json:"revenue"`
	RevenueYoY              *float64            `json:"revenue_yoy"`
	CashFlow                CashFlow            `json:"cash_flow"`
	Profitability           Profitability       `json:"profitability"`
	ExpenseRatios           ExpenseRatios       `json:"expense_ratios"`
	AssetStructure          AssetStructure      `json:"asset_structure"`
	CapitalStructure        CapitalStructure    `json:"capital_structure"`
	MajorShareholderChanges []ShareholderChange `json:"major_shareholder_changes"`
}

type ValuationData struct {
	PE *float64 `json:"pe"`
	PB *float64 `json:"pb"`
}

// BusinessSegment is one row of the main-business breakdown.
type BusinessSegment struct {
	Segment    string   `json:"segment"`
	Revenue    *float64 `json:"revenue"`    // 亿元
	Proportion *float64 `json:"proportion"` // %
	YoY        *float64 `json:"yoy"`        // %
}

type OperationData struct {
	MainBusiness []BusinessSegment `json:"main_business"`
}

// FinancialRecord is the structured result of analysing one report.
// Every numeric leaf is nullable: nil means "not found", never zero.
// Monetary leaves are expressed in 亿元 (hundred-million yuan).
type FinancialRecord struct {
	BasicInfo     BasicInfo     `json:"basic_info"`
	FinancialData FinancialData `json:"financial_data"`
	ValuationData ValuationData `json:"valuation_data"`
	OperationData OperationData `json:"operation_data"`

	// SupplementaryMetrics carries secondary-source indicators outside the
	// canonical taxonomy (eps, total_assets, ...).
	SupplementaryMetrics map[string]interface{} `json:"supplementary_metrics,omitempty"`

	// SecondarySummary is the narrative produced alongside the secondary extraction.
	SecondarySummary string `json:"secondary_summary,omitempty"`
}

// NewFinancialRecord returns an empty record with non-nil list fields.
func NewFinancialRecord(info BasicInfo) *FinancialRecord {
	return &FinancialRecord{
		BasicInfo: info,
		FinancialData: FinancialData{
			MajorShareholderChanges: []ShareholderChange{},
		},
		OperationData: OperationData{
			MainBusiness: []BusinessSegment{},
		},
	}
}

// Clone returns a deep copy so that callers can derive a new record without
// mutating the original.
func (r *FinancialRecord) Clone() *FinancialRecord {
	if r == nil {
		return nil
	}
	out := *r
	fd := &out.FinancialData
	fd.NetProfit = clonePtr(r.FinancialData.NetProfit)
	fd.NetProfitYoY = clonePtr(r.FinancialData.NetProfitYoY)
	fd.Revenue = clonePtr(r.FinancialData.Revenue)
	fd.RevenueYoY = clonePtr(r.FinancialData.RevenueYoY)

	cf := r.FinancialData.CashFlow
	fd.CashFlow = CashFlow{clonePtr(cf.Operating), clonePtr(cf.Investing), clonePtr(cf.Financing)}
	p := r.FinancialData.Profitability
	fd.Profitability = Profitability{clonePtr(p.ROE), clonePtr(p.ROA), clonePtr(p.GrossMargin), clonePtr(p.NetMargin)}
	e := r.FinancialData.ExpenseRatios
	fd.ExpenseRatios = ExpenseRatios{clonePtr(e.Sales), clonePtr(e.Admin), clonePtr(e.RD), clonePtr(e.Financial)}
	a := r.FinancialData.AssetStructure
	fd.AssetStructure = AssetStructure{clonePtr(a.AccountsReceivableRatio), clonePtr(a.InventoryRatio), clonePtr(a.ConstructionInProgressRatio)}
	c := r.FinancialData.CapitalStructure
	fd.CapitalStructure = CapitalStructure{clonePtr(c.NetAssets), clonePtr(c.DebtRatio)}

	fd.MajorShareholderChanges = make([]ShareholderChange, len(r.FinancialData.MajorShareholderChanges))
	for i, sc := range r.FinancialData.MajorShareholderChanges {
		fd.MajorShareholderChanges[i] = ShareholderChange{
			Shareholder:     sc.Shareholder,
			PreviousHolding: clonePtr(sc.PreviousHolding),
			CurrentHolding:  clonePtr(sc.CurrentHolding),
			Change:          clonePtr(sc.Change),
			ChangeDate:      clonePtr(sc.ChangeDate),
		}
	}

	out.ValuationData = ValuationData{clonePtr(r.ValuationData.PE), clonePtr(r.ValuationData.PB)}
	out.OperationData.MainBusiness = make([]BusinessSegment, len(r.OperationData.MainBusiness))
	for i, seg := range r.OperationData.MainBusiness {
		out.OperationData.MainBusiness[i] = BusinessSegment{
			Segment:    seg.Segment,
			Revenue:    clonePtr(seg.Revenue),
			Proportion: clonePtr(seg.Proportion),
			YoY:        clonePtr(seg.YoY),
		}
	}

	if r.SupplementaryMetrics != nil {
		out.SupplementaryMetrics = make(map[string]interface{}, len(r.SupplementaryMetrics))
		for k, v := range r.SupplementaryMetrics {
			out.SupplementaryMetrics[k] = v
		}
	}
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Float returns a pointer to f. Handy for literals in tests and fixtures.
func Float(f float64) *float64 { return &f }
