package accounts

import "github.com/ecompta-dev/ecompta/internal/model"

// Chart variants accepted by DefaultChart.
const (
	ChartMinimal  = "minimal"
	ChartStandard = "standard"
)

// DefaultChart returns a SYSCOHADA chart of accounts. The minimal chart holds
// the accounts every small business books against; the standard chart adds
// one account per remaining class. Unknown variants fall back to minimal.
func DefaultChart(variant string) []model.Account {
	switch variant {
	case ChartStandard:
		return append(minimalChart(), standardExtras()...)
	default:
		return minimalChart()
	}
}

func minimalChart() []model.Account {
	return []model.Account{
		{Code: "401", Name: "Fournisseurs", Type: model.AccountTypeLiability, Description: "Dettes fournisseurs"},
		{Code: "411", Name: "Clients", Type: model.AccountTypeAsset, Description: "Créances clients"},
		{Code: "421", Name: "Personnel, rémunérations dues", Type: model.AccountTypeLiability},
		{Code: "431", Name: "Sécurité sociale", Type: model.AccountTypeLiability, Description: "Organismes sociaux"},
		{Code: "443", Name: "État, TVA facturée", Type: model.AccountTypeLiability, Description: "TVA collectée sur ventes"},
		{Code: "445", Name: "État, TVA récupérable", Type: model.AccountTypeAsset, Description: "TVA déductible sur achats"},
		{Code: "521", Name: "Banques locales", Type: model.AccountTypeAsset},
		{Code: "601", Name: "Achats de marchandises", Type: model.AccountTypeExpense},
		{Code: "661", Name: "Rémunérations directes versées au personnel", Type: model.AccountTypeExpense},
		{Code: "664", Name: "Charges sociales", Type: model.AccountTypeExpense},
		{Code: "701", Name: "Ventes de marchandises", Type: model.AccountTypeRevenue},
	}
}

func standardExtras() []model.Account {
	return []model.Account{
		{Code: "101", Name: "Capital social", Type: model.AccountTypeEquity},
		{Code: "121", Name: "Report à nouveau créditeur", Type: model.AccountTypeEquity},
		{Code: "162", Name: "Emprunts et dettes auprès des établissements de crédit", Type: model.AccountTypeLiability},
		{Code: "244", Name: "Matériel et mobilier", Type: model.AccountTypeAsset},
		{Code: "311", Name: "Marchandises", Type: model.AccountTypeAsset, Description: "Stocks de marchandises"},
		{Code: "571", Name: "Caisse", Type: model.AccountTypeAsset},
		{Code: "605", Name: "Autres achats", Type: model.AccountTypeExpense},
		{Code: "622", Name: "Locations et charges locatives", Type: model.AccountTypeExpense},
		{Code: "706", Name: "Services vendus", Type: model.AccountTypeRevenue},
	}
}
