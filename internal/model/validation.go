package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// RuleType identifies one check of the validation battery.
type RuleType string

const (
	RuleBalance          RuleType = "balance"
	RuleAccountExistence RuleType = "account-existence"
	RuleDateCoherence    RuleType = "date-coherence"
	RuleSignPositivity   RuleType = "sign-positivity"
	RuleConformity       RuleType = "syscohada-conformity"
)

// Outcome is the verdict of a single rule.
type Outcome string

const (
	OutcomeConforming    Outcome = "conforming"
	OutcomeWarning       Outcome = "warning"
	OutcomeNonConforming Outcome = "non-conforming"
	OutcomeBlocking      Outcome = "blocking"
)

// Priority is how much a failing rule matters to the reviewer.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
)

// Severity grades an anomaly.
type Severity string

const (
	SeverityBlocking Severity = "blocking"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// RiskTier is the residual risk classification of an entry.
type RiskTier string

const (
	RiskVeryLow  RiskTier = "very-low"
	RiskLow      RiskTier = "low"
	RiskMedium   RiskTier = "medium"
	RiskHigh     RiskTier = "high"
	RiskVeryHigh RiskTier = "very-high"
)

// RuleOutcome is the result of running one rule against an entry.
type RuleOutcome struct {
	Rule             RuleType `json:"rule"`
	Outcome          Outcome  `json:"outcome"`
	Message          string   `json:"message"`
	Priority         Priority `json:"priority"`
	CorrectiveAction string   `json:"corrective_action,omitempty"`
	Points           int      `json:"points"`
}

// AnomalyKind tags the variant carried by an Anomaly.
type AnomalyKind string

const (
	AnomalyImbalance      AnomalyKind = "imbalance"
	AnomalyUnknownAccount AnomalyKind = "unknown-account"
)

// AnomalyDetail is the kind-specific payload of an anomaly. The set of
// implementations is closed: Imbalance and UnknownAccount.
type AnomalyDetail interface {
	Kind() AnomalyKind
	// Detected renders the offending value.
	Detected() string
	// Expected renders the value that would have passed, "" when not applicable.
	Expected() string
	isAnomalyDetail()
}

// Imbalance reports that debits and credits differ.
type Imbalance struct {
	Deviation decimal.Decimal // |debit - credit|
}

func (Imbalance) Kind() AnomalyKind { return AnomalyImbalance }
func (d Imbalance) Detected() string { return d.Deviation.StringFixed(2) }
func (Imbalance) Expected() string { return decimal.Zero.StringFixed(2) }
func (Imbalance) isAnomalyDetail() {}

// UnknownAccount reports an account code missing from the chart of accounts.
type UnknownAccount struct {
	Code string
}

func (UnknownAccount) Kind() AnomalyKind { return AnomalyUnknownAccount }
func (d UnknownAccount) Detected() string { return d.Code }
func (UnknownAccount) Expected() string { return "" }
func (UnknownAccount) isAnomalyDetail() {}

// Anomaly is one detected problem with an entry.
type Anomaly struct {
	Detail          AnomalyDetail
	Severity        Severity
	Description     string
	FinancialImpact decimal.Decimal // zero when not quantifiable
	SuggestedFix    string
	DetectedAt      time.Time
}

// ErrNoAnomalyDetail is returned when marshalling an anomaly without a variant.
var ErrNoAnomalyDetail = errors.New("anomaly has no detail")

// Kind returns the variant tag of the anomaly, "" when it has none.
func (a Anomaly) Kind() AnomalyKind {
	if a.Detail == nil {
		return ""
	}
	return a.Detail.Kind()
}

type anomalyJSON struct {
	Kind            AnomalyKind `json:"kind"`
	Severity        Severity    `json:"severity"`
	Description     string      `json:"description"`
	Detected        string      `json:"detected"`
	Expected        string      `json:"expected,omitempty"`
	FinancialImpact string      `json:"financial_impact,omitempty"`
	SuggestedFix    string      `json:"suggested_fix"`
	DetectedAt      time.Time   `json:"detected_at"`
}

// MarshalJSON flattens the variant payload next to the common fields.
func (a Anomaly) MarshalJSON() ([]byte, error) {
	if a.Detail == nil {
		return nil, ErrNoAnomalyDetail
	}
	out := anomalyJSON{
		Kind:         a.Detail.Kind(),
		Severity:     a.Severity,
		Description:  a.Description,
		Detected:     a.Detail.Detected(),
		Expected:     a.Detail.Expected(),
		SuggestedFix: a.SuggestedFix,
		DetectedAt:   a.DetectedAt,
	}
	if !a.FinancialImpact.IsZero() {
		out.FinancialImpact = a.FinancialImpact.StringFixed(2)
	}
	return json.Marshal(out)
}

// SuggestionKind tags an improvement suggestion.
type SuggestionKind string

const (
	SuggestionCaptureQuality   SuggestionKind = "capture-quality"
	SuggestionReusableTemplate SuggestionKind = "reusable-template"
)

// Ease is how hard a suggestion is to act on.
type Ease string

const (
	EaseVeryEasy Ease = "very-easy"
	EaseEasy     Ease = "easy"
	EaseModerate Ease = "moderate"
	EaseHard     Ease = "hard"
)

// Impact is the expected effect of acting on a suggestion.
type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactStrong Impact = "strong"
)

// Suggestion is advisory output; it never affects the score.
type Suggestion struct {
	Kind            SuggestionKind `json:"kind"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	ExpectedBenefit string         `json:"expected_benefit"`
	Ease            Ease           `json:"ease"`
	Impact          Impact         `json:"impact"`
}

// ValidationResult is the output of one engine run. It is never modified
// after being returned.
type ValidationResult struct {
	Score       int           `json:"score"`
	Outcomes    []RuleOutcome `json:"outcomes"`
	Anomalies   []Anomaly     `json:"anomalies"`
	Suggestions []Suggestion  `json:"suggestions"`
	Conforms    bool          `json:"conforms"`
	Risk        RiskTier      `json:"risk"`
	ValidatedAt time.Time     `json:"validated_at"`
	Elapsed     time.Duration `json:"elapsed_ns"`
}

// BlockingAnomalies counts anomalies of blocking severity.
func (r *ValidationResult) BlockingAnomalies() int {
	n := 0
	for _, a := range r.Anomalies {
		if a.Severity == SeverityBlocking {
			n++
		}
	}
	return n
}

// Postable reports whether the result allows the entry to be validated or
// posted: conforming and free of blocking anomalies.
func (r *ValidationResult) Postable() bool {
	return r.Conforms && r.BlockingAnomalies() == 0
}
