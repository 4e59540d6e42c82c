package validation

import (
	"fmt"
	"time"

	"github.com/ecompta-dev/ecompta/internal/model"
)

// Validator runs a rule battery against entries.
type Validator struct {
	now   func() time.Time
	rules []Rule
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides the clock used for date coherence and timestamps.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// WithRules replaces the default battery.
func WithRules(rules ...Rule) Option {
	return func(v *Validator) { v.rules = rules }
}

// New creates a Validator with the default battery and the system clock.
func New(opts ...Option) *Validator {
	v := &Validator{now: time.Now, rules: DefaultRules()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var defaultValidator = New()

// Validate runs the default Validator.
func Validate(e *model.Entry, accounts AccountChecker) (*model.ValidationResult, error) {
	return defaultValidator.Validate(e, accounts)
}

// Validate recomputes the entry's totals, runs every rule, scores and
// classifies the entry and returns a fresh result.
//
// The entry's TotalDebit, TotalCredit, Balanced and Conforms fields are
// overwritten; nothing else on it changes. Business problems never produce an
// error: they show up as outcomes and anomalies. Errors are returned only for
// a broken input contract (ErrInvalidInput) or a failing account checker,
// whose error is passed through as is.
func (v *Validator) Validate(e *model.Entry, accounts AccountChecker) (*model.ValidationResult, error) {
	switch {
	case e == nil:
		return nil, fmt.Errorf("%w: nil entry", ErrInvalidInput)
	case e.Lines == nil:
		return nil, fmt.Errorf("%w: entry %s has no line list", ErrInvalidInput, e.ID)
	case accounts == nil:
		return nil, fmt.Errorf("%w: nil account checker", ErrInvalidInput)
	}

	start := time.Now()
	now := v.now()

	e.TotalDebit, e.TotalCredit, e.Balanced = Totals(e.Lines)
	e.Conforms = false

	in := &Input{Entry: e, Accounts: accounts, Now: now}
	result := &model.ValidationResult{
		Outcomes:  make([]model.RuleOutcome, 0, len(v.rules)),
		Anomalies: []model.Anomaly{},
	}

	points := 0
	for _, r := range v.rules {
		verdict, err := r.Check(in)
		if err != nil {
			return nil, err
		}
		points += verdict.Outcome.Points
		result.Outcomes = append(result.Outcomes, verdict.Outcome)
		result.Anomalies = append(result.Anomalies, verdict.Anomalies...)
	}

	result.Score = Score(points)
	result.Risk = ClassifyRisk(result.Score, len(result.Anomalies))
	result.Suggestions = Suggest(e, result.Score)
	result.Conforms = e.Conforms
	result.ValidatedAt = now
	result.Elapsed = time.Since(start)
	return result, nil
}
