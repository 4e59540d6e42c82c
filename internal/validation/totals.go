package validation

import (
	"github.com/shopspring/decimal"

	"github.com/ecompta-dev/ecompta/internal/model"
)

// Tolerance is the largest |debit - credit| gap that still counts as balanced
// (exclusive).
var Tolerance = decimal.RequireFromString("0.01")

// Totals sums the debit and credit columns of lines and reports whether they
// balance within Tolerance. An empty list is trivially balanced.
func Totals(lines []model.Line) (debit, credit decimal.Decimal, balanced bool) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit, IsBalanced(debit, credit)
}

// IsBalanced reports whether |debit - credit| < Tolerance.
func IsBalanced(debit, credit decimal.Decimal) bool {
	return debit.Sub(credit).Abs().LessThan(Tolerance)
}
