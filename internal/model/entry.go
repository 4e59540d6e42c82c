package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus represents the lifecycle state of a journal entry.
type EntryStatus string

const (
	StatusDraft        EntryStatus = "draft"
	StatusPending      EntryStatus = "pending"
	StatusInValidation EntryStatus = "in-validation"
	StatusValidated    EntryStatus = "validated"
	StatusPosted       EntryStatus = "posted"
	StatusRejected     EntryStatus = "rejected"
	StatusArchived     EntryStatus = "archived"
	StatusReversed     EntryStatus = "reversed"
)

// Mutable reports whether header fields and lines of an entry in this status may change.
func (s EntryStatus) Mutable() bool {
	return s == StatusDraft || s == StatusPending
}

// Deletable reports whether an entry in this status may be removed from the books.
func (s EntryStatus) Deletable() bool {
	switch s {
	case StatusPosted, StatusArchived, StatusReversed:
		return false
	}
	return true
}

// EntryType classifies the accounting nature of an entry.
type EntryType string

const (
	EntryTypeStandard     EntryType = "standard"
	EntryTypeOpening      EntryType = "opening"
	EntryTypeClosing      EntryType = "closing"
	EntryTypeSubscription EntryType = "subscription"
	EntryTypeReversal     EntryType = "reversal"
	EntryTypeCancellation EntryType = "cancellation"
	EntryTypeAdjustment   EntryType = "adjustment"
	EntryTypeProvision    EntryType = "provision"
	EntryTypeAccrual      EntryType = "accrual"
	EntryTypeSimulation   EntryType = "simulation"
)

// Origin records how an entry was captured.
type Origin string

const (
	OriginManual        Origin = "manual"
	OriginFileImport    Origin = "file-import"
	OriginAutomatic     Origin = "automatic"
	OriginOCR           Origin = "ocr"
	OriginExternalAPI   Origin = "external-api"
	OriginBankInterface Origin = "bank-interface"
	OriginTemplate      Origin = "template"
	OriginDuplication   Origin = "duplication"
	OriginMobileMoney   Origin = "mobile-money"
)

// Category is the balance-sheet / income-statement bucket of an entry,
// derived from the class of its first account.
type Category string

const (
	CategoryCharges     Category = "charges"
	CategoryProducts    Category = "products"
	CategoryAssets      Category = "assets"
	CategoryLiabilities Category = "liabilities"
	CategoryFixedAssets Category = "fixed-assets"
	CategoryStocks      Category = "stocks"
	CategoryReceivables Category = "receivables"
	CategoryPayables    Category = "payables"
	CategoryTreasury    Category = "treasury"
)

// Categorize derives the category of an entry from its first line.
// Entries without lines default to charges.
func Categorize(lines []Line) Category {
	if len(lines) == 0 {
		return CategoryCharges
	}
	code := lines[0].Account
	switch AccountClass(code) {
	case 1, 2:
		return CategoryFixedAssets
	case 3:
		return CategoryStocks
	case 4:
		if strings.HasPrefix(code, "41") {
			return CategoryReceivables
		}
		return CategoryPayables
	case 5:
		return CategoryTreasury
	case 6:
		return CategoryCharges
	case 7:
		return CategoryProducts
	default:
		return CategoryCharges
	}
}

// Line is one debit-or-credit row of an entry.
type Line struct {
	Order        int // 1-based, contiguous within the entry
	Account      string
	Label        string
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	Counterparty string
	DueDate      time.Time // zero = none
}

// Entry is a journal entry: a header plus ordered lines.
//
// TotalDebit, TotalCredit, Balanced and Conforms are derived fields written
// by the validation engine; Category, Period and Exercise are maintained by
// the journal service. None of them are set by hand.
type Entry struct {
	ID        string
	Number    string // e.g. "ACH-2026-000001"
	Sequence  int    // running counter within the journal
	Date      time.Time
	DueDate   time.Time // zero = none
	ValueDate time.Time // zero = none
	Journal   string    // journal code
	Type      EntryType
	Origin    Origin
	Label     string
	Reference string
	Piece     string
	Exercise  string // fiscal year, e.g. "2026"
	Period    string // "YYYY-MM"
	Lines     []Line

	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Balanced    bool
	Conforms    bool
	Category    Category

	Status     EntryStatus
	OriginalID string // entry reversed by this one
	CreatedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Validation *ValidationResult // latest engine run, nil before the first one
}

// Renumber rewrites line orders as 1..N in slice order.
func (e *Entry) Renumber() {
	for i := range e.Lines {
		e.Lines[i].Order = i + 1
	}
}

// Clone returns a deep copy of the entry. The attached validation result is
// shared: results are never modified after they are produced.
func (e *Entry) Clone() *Entry {
	c := *e
	if e.Lines != nil {
		c.Lines = make([]Line, len(e.Lines))
		copy(c.Lines, e.Lines)
	}
	return &c
}

// FormatPeriod returns the "YYYY-MM" accounting period of t.
func FormatPeriod(t time.Time) string {
	return t.Format("2006-01")
}
