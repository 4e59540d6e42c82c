package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ecompta-dev/ecompta/internal/model"
)

// Points awarded by each rule. The full battery is worth 95; BaselineBonus
// brings a clean entry to exactly MaxScore.
const (
	BalancePoints           = 25
	AccountPoints           = 20
	DatePoints              = 15
	DatePartialPoints       = 5
	SignPoints              = 15
	ConformityPoints        = 20
	ConformityPartialPoints = 10
)

// MinLabelLength is the shortest trimmed label accepted by the SYSCOHADA check.
const MinLabelLength = 3

// MinLines is the fewest lines a conforming entry may have.
const MinLines = 2

// AccountPattern is the SYSCOHADA numbering rule for account codes.
var AccountPattern = regexp.MustCompile(`^[1-7]\d*$`)

// Input is what every rule sees. Totals on Entry are already recomputed.
type Input struct {
	Entry    *model.Entry
	Accounts AccountChecker
	Now      time.Time
}

// Verdict is a rule's contribution to the result.
type Verdict struct {
	Outcome   model.RuleOutcome
	Anomalies []model.Anomaly
}

// Rule is one check of the battery. Rules are independent: none reads
// another's verdict.
type Rule interface {
	Type() model.RuleType
	Check(in *Input) (Verdict, error)
}

// DefaultRules returns the five mandatory rules in display order.
func DefaultRules() []Rule {
	return []Rule{
		BalanceRule{},
		AccountExistenceRule{},
		DateCoherenceRule{},
		SignPositivityRule{},
		ConformityRule{},
	}
}

// BalanceRule requires total debit to equal total credit.
type BalanceRule struct{}

func (BalanceRule) Type() model.RuleType { return model.RuleBalance }

func (BalanceRule) Check(in *Input) (Verdict, error) {
	e := in.Entry
	if e.Balanced {
		return Verdict{Outcome: model.RuleOutcome{
			Rule:     model.RuleBalance,
			Outcome:  model.OutcomeConforming,
			Message:  "entry is balanced",
			Priority: model.PriorityCritical,
			Points:   BalancePoints,
		}}, nil
	}

	deviation := e.TotalDebit.Sub(e.TotalCredit).Abs()
	return Verdict{
		Outcome: model.RuleOutcome{
			Rule:             model.RuleBalance,
			Outcome:          model.OutcomeBlocking,
			Message:          fmt.Sprintf("entry is out of balance by %s", deviation.StringFixed(2)),
			Priority:         model.PriorityCritical,
			CorrectiveAction: "adjust line amounts so that debits equal credits",
		},
		Anomalies: []model.Anomaly{{
			Detail:          model.Imbalance{Deviation: deviation},
			Severity:        model.SeverityBlocking,
			Description:     "entry is not balanced",
			FinancialImpact: deviation,
			SuggestedFix:    "check and correct the line amounts",
			DetectedAt:      in.Now,
		}},
	}, nil
}

// AccountExistenceRule requires every account code to be in the chart.
// Empty codes are skipped.
type AccountExistenceRule struct{}

func (AccountExistenceRule) Type() model.RuleType { return model.RuleAccountExistence }

func (AccountExistenceRule) Check(in *Input) (Verdict, error) {
	var unknown []string
	seen := make(map[string]bool)
	for _, l := range in.Entry.Lines {
		if l.Account == "" || seen[l.Account] {
			continue
		}
		seen[l.Account] = true
		ok, err := in.Accounts.Exists(l.Account)
		if err != nil {
			return Verdict{}, err
		}
		if !ok {
			unknown = append(unknown, l.Account)
		}
	}

	if len(unknown) == 0 {
		return Verdict{Outcome: model.RuleOutcome{
			Rule:     model.RuleAccountExistence,
			Outcome:  model.OutcomeConforming,
			Message:  "all accounts exist",
			Priority: model.PriorityHigh,
			Points:   AccountPoints,
		}}, nil
	}

	v := Verdict{Outcome: model.RuleOutcome{
		Rule:             model.RuleAccountExistence,
		Outcome:          model.OutcomeNonConforming,
		Message:          fmt.Sprintf("%d unknown account(s): %s", len(unknown), strings.Join(unknown, ", ")),
		Priority:         model.PriorityHigh,
		CorrectiveAction: "create the missing accounts or use existing ones",
	}}
	for _, code := range unknown {
		v.Anomalies = append(v.Anomalies, model.Anomaly{
			Detail:       model.UnknownAccount{Code: code},
			Severity:     model.SeverityMajor,
			Description:  fmt.Sprintf("account %s does not exist", code),
			SuggestedFix: "create the account or use an existing one",
			DetectedAt:   in.Now,
		})
	}
	return v, nil
}

// DateCoherenceRule requires the entry date to fall within the last year,
// from the start of the same calendar day a year ago up to now, and the due
// date, when set, not to precede it.
type DateCoherenceRule struct{}

func (DateCoherenceRule) Type() model.RuleType { return model.RuleDateCoherence }

func (DateCoherenceRule) Check(in *Input) (Verdict, error) {
	if datesCoherent(in.Entry, in.Now) {
		return Verdict{Outcome: model.RuleOutcome{
			Rule:     model.RuleDateCoherence,
			Outcome:  model.OutcomeConforming,
			Message:  "dates are coherent",
			Priority: model.PriorityMedium,
			Points:   DatePoints,
		}}, nil
	}
	return Verdict{Outcome: model.RuleOutcome{
		Rule:             model.RuleDateCoherence,
		Outcome:          model.OutcomeWarning,
		Message:          "check the entry and due dates",
		Priority:         model.PriorityMedium,
		CorrectiveAction: "use an entry date within the last twelve months and a due date on or after it",
		Points:           DatePartialPoints,
	}}, nil
}

func datesCoherent(e *model.Entry, now time.Time) bool {
	y, m, d := now.AddDate(-1, 0, 0).Date()
	oldest := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	if e.Date.Before(oldest) || e.Date.After(now) {
		return false
	}
	if !e.DueDate.IsZero() && e.DueDate.Before(e.Date) {
		return false
	}
	return true
}

// SignPositivityRule forbids negative debit or credit amounts. It reports
// through its outcome only and records no anomaly.
type SignPositivityRule struct{}

func (SignPositivityRule) Type() model.RuleType { return model.RuleSignPositivity }

func (SignPositivityRule) Check(in *Input) (Verdict, error) {
	negative := 0
	for _, l := range in.Entry.Lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			negative++
		}
	}
	if negative == 0 {
		return Verdict{Outcome: model.RuleOutcome{
			Rule:     model.RuleSignPositivity,
			Outcome:  model.OutcomeConforming,
			Message:  "all amounts are positive",
			Priority: model.PriorityHigh,
			Points:   SignPoints,
		}}, nil
	}
	return Verdict{Outcome: model.RuleOutcome{
		Rule:             model.RuleSignPositivity,
		Outcome:          model.OutcomeNonConforming,
		Message:          fmt.Sprintf("%d line(s) with a negative amount", negative),
		Priority:         model.PriorityHigh,
		CorrectiveAction: "record negative amounts on the opposite side",
	}}, nil
}

// ConformityRule checks the minimal SYSCOHADA shape: a label of at least
// three characters, at least two lines, SYSCOHADA account numbering and
// balance. It re-reads the balanced flag instead of reusing BalanceRule's
// verdict, so an unbalanced entry loses points in both rules.
//
// On success it sets the entry's conformity flag.
type ConformityRule struct{}

func (ConformityRule) Type() model.RuleType { return model.RuleConformity }

func (ConformityRule) Check(in *Input) (Verdict, error) {
	e := in.Entry
	if reason := nonConformity(e); reason != "" {
		return Verdict{Outcome: model.RuleOutcome{
			Rule:             model.RuleConformity,
			Outcome:          model.OutcomeWarning,
			Message:          "SYSCOHADA conformity to review: " + reason,
			Priority:         model.PriorityHigh,
			CorrectiveAction: "complete the entry to meet SYSCOHADA requirements",
			Points:           ConformityPartialPoints,
		}}, nil
	}

	e.Conforms = true
	return Verdict{Outcome: model.RuleOutcome{
		Rule:     model.RuleConformity,
		Outcome:  model.OutcomeConforming,
		Message:  "conforms to SYSCOHADA AUDCIF",
		Priority: model.PriorityHigh,
		Points:   ConformityPoints,
	}}, nil
}

// nonConformity returns the first failed SYSCOHADA requirement, or "".
func nonConformity(e *model.Entry) string {
	if utf8.RuneCountInString(strings.TrimSpace(e.Label)) < MinLabelLength {
		return fmt.Sprintf("label shorter than %d characters", MinLabelLength)
	}
	if len(e.Lines) < MinLines {
		return fmt.Sprintf("fewer than %d lines", MinLines)
	}
	for _, l := range e.Lines {
		if !AccountPattern.MatchString(l.Account) {
			return fmt.Sprintf("account %q does not follow SYSCOHADA numbering", l.Account)
		}
	}
	if !e.Balanced {
		return "entry is not balanced"
	}
	return ""
}
