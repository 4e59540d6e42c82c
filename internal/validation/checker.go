// Package validation scores a proposed journal entry: it recomputes the
// entry's totals, runs a fixed battery of structural and SYSCOHADA checks,
// turns the outcomes into a 0-100 confidence score and a risk tier, and
// emits anomalies and suggestions.
//
// The engine holds no state. Validating different entries concurrently is
// safe; validating the same entry from two goroutines is not, because the
// totals and conformity flag are written back onto the entry.
package validation

import "errors"

// ErrInvalidInput is returned when the caller breaks the input contract:
// a nil entry, a nil line list or a nil account checker.
var ErrInvalidInput = errors.New("invalid validation input")

// AccountChecker tests whether an account code exists in the chart of accounts.
// Errors are returned to the caller of Validate unchanged.
type AccountChecker interface {
	Exists(code string) (bool, error)
}

// AccountSet is an in-memory AccountChecker.
type AccountSet map[string]struct{}

// NewAccountSet builds an AccountSet from codes.
func NewAccountSet(codes ...string) AccountSet {
	s := make(AccountSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Exists reports whether code is in the set.
func (s AccountSet) Exists(code string) (bool, error) {
	_, ok := s[code]
	return ok, nil
}

// CheckerFunc adapts a function to AccountChecker.
type CheckerFunc func(code string) (bool, error)

// Exists calls f(code).
func (f CheckerFunc) Exists(code string) (bool, error) {
	return f(code)
}
