package model

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Account represents a row in chart-of-accounts.csv.
type Account struct {
	Code        string // SYSCOHADA number, e.g. "601"
	Name        string
	Type        AccountType
	ParentCode  string // "" = top-level
	Description string
}

// Class returns the SYSCOHADA class digit of the account (1..9), or 0 when the
// code does not start with a digit.
func (a Account) Class() int {
	return AccountClass(a.Code)
}

// AccountClass returns the leading digit of an account code, or 0.
func AccountClass(code string) int {
	if code == "" || code[0] < '0' || code[0] > '9' {
		return 0
	}
	return int(code[0] - '0')
}
