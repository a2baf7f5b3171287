package fundamentals

// StatementKind identifies one vendor statement payload
type StatementKind string

const (
	KindIncome            StatementKind = "income"
	KindBalance           StatementKind = "balance"
	KindCashFlow          StatementKind = "cashflow"
	KindEarnings          StatementKind = "earnings"
	KindQuarterlyEarnings StatementKind = "earnings_quarterly"
)

// Canonical numeric field names. Everything downstream of the normalizer
// speaks these; vendor spellings never leak past this package.
const (
	FieldRevenue           = "revenue"
	FieldGrossProfit       = "gross_profit"
	FieldCostOfRevenue     = "cost_of_revenue"
	FieldOperatingIncome   = "operating_income"
	FieldNetIncome         = "net_income"
	FieldInterestExpense   = "interest_expense"
	FieldSharesOutstanding = "shares_outstanding"

	FieldTotalDebt          = "total_debt"
	FieldShortTermDebt      = "short_term_debt"
	FieldLongTermDebt       = "long_term_debt"
	FieldCash               = "cash"
	FieldEquity             = "equity"
	FieldTotalAssets        = "total_assets"
	FieldCurrentAssets      = "total_current_assets"
	FieldCurrentLiabilities = "total_current_liabilities"

	FieldOperatingCashflow   = "operating_cashflow"
	FieldCapitalExpenditures = "capital_expenditures"

	FieldReportedEPS  = "reported_eps"
	FieldEstimatedEPS = "estimated_eps"
)

// fieldSpec maps one vendor field to its canonical name
type fieldSpec struct {
	vendor    string
	canonical string
}

// statementSchema describes how to pull one statement kind out of the
// vendor envelope: which array holds the period records and which record
// fields are numeric.
type statementSchema struct {
	listField string
	fields    []fieldSpec
}

// statementSchemas is the schema-mapping table (vendor name → canonical).
// ⭐ SSOT: 벤더 필드명은 이 테이블에서만
var statementSchemas = map[StatementKind]statementSchema{
	KindIncome: {
		listField: "annualReports",
		fields: []fieldSpec{
			{"totalRevenue", FieldRevenue},
			{"grossProfit", FieldGrossProfit},
			{"costOfRevenue", FieldCostOfRevenue},
			{"operatingIncome", FieldOperatingIncome},
			{"netIncome", FieldNetIncome},
			{"interestExpense", FieldInterestExpense},
			{"commonStockSharesOutstanding", FieldSharesOutstanding},
		},
	},
	KindBalance: {
		listField: "annualReports",
		fields: []fieldSpec{
			{"totalDebt", FieldTotalDebt},
			{"shortTermDebt", FieldShortTermDebt},
			{"longTermDebt", FieldLongTermDebt},
			{"cashAndCashEquivalentsAtCarryingValue", FieldCash},
			{"totalShareholderEquity", FieldEquity},
			{"totalAssets", FieldTotalAssets},
			{"totalCurrentAssets", FieldCurrentAssets},
			{"totalCurrentLiabilities", FieldCurrentLiabilities},
		},
	},
	KindCashFlow: {
		listField: "annualReports",
		fields: []fieldSpec{
			{"operatingCashflow", FieldOperatingCashflow},
			{"capitalExpenditures", FieldCapitalExpenditures},
		},
	},
	KindEarnings: {
		listField: "annualEarnings",
		fields: []fieldSpec{
			{"reportedEPS", FieldReportedEPS},
		},
	},
	KindQuarterlyEarnings: {
		listField: "quarterlyEarnings",
		fields: []fieldSpec{
			{"reportedEPS", FieldReportedEPS},
			{"estimatedEPS", FieldEstimatedEPS},
		},
	},
}

// overviewField maps the vendor overview record to the profile
type overviewField struct {
	vendor string
	assign func(p *CompanyProfile, v interface{})
}

// overviewSchema covers the OVERVIEW payload. Categorical fields pass
// through as strings, everything else is coerced to a nullable float.
var overviewSchema = []overviewField{
	{"Symbol", func(p *CompanyProfile, v interface{}) { p.Symbol = asString(v) }},
	{"Name", func(p *CompanyProfile, v interface{}) { p.Name = asString(v) }},
	{"Sector", func(p *CompanyProfile, v interface{}) { p.Sector = asString(v) }},
	{"Industry", func(p *CompanyProfile, v interface{}) { p.Industry = asString(v) }},
	{"SharesOutstanding", func(p *CompanyProfile, v interface{}) { p.SharesOutstanding = safeFloat(v) }},
	{"MarketCapitalization", func(p *CompanyProfile, v interface{}) { p.MarketCap = safeFloat(v) }},
	{"EBITDA", func(p *CompanyProfile, v interface{}) { p.EBITDA = safeFloat(v) }},
	{"PERatio", func(p *CompanyProfile, v interface{}) { p.PE = safeFloat(v) }},
	{"PriceToSalesRatioTTM", func(p *CompanyProfile, v interface{}) { p.PS = safeFloat(v) }},
	{"PriceToBookRatio", func(p *CompanyProfile, v interface{}) { p.PB = safeFloat(v) }},
	{"DividendYield", func(p *CompanyProfile, v interface{}) { p.DividendYield = safeFloat(v) }},
}
