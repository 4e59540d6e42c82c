package model

// JournalType classifies the books an entry is recorded in.
type JournalType string

const (
	JournalPurchases   JournalType = "purchases"
	JournalSales       JournalType = "sales"
	JournalBank        JournalType = "bank"
	JournalCash        JournalType = "cash"
	JournalMisc        JournalType = "misc"
	JournalPayroll     JournalType = "payroll"
	JournalInventory   JournalType = "inventory"
	JournalFixedAssets JournalType = "fixed-assets"
	JournalSocial      JournalType = "social"
	JournalTax         JournalType = "tax"
)

// Journal is one of the books configured for the business.
type Journal struct {
	Code  string      `yaml:"code"`
	Label string      `yaml:"label"`
	Type  JournalType `yaml:"type"`
}

// DefaultJournals returns the standard SYSCOHADA journal set.
func DefaultJournals() []Journal {
	return []Journal{
		{Code: "ACH", Label: "Journal des Achats", Type: JournalPurchases},
		{Code: "VTE", Label: "Journal des Ventes", Type: JournalSales},
		{Code: "BQ", Label: "Journal de Banque", Type: JournalBank},
		{Code: "CAI", Label: "Journal de Caisse", Type: JournalCash},
		{Code: "OD", Label: "Opérations Diverses", Type: JournalMisc},
	}
}
