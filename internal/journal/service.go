package journal

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ecompta-dev/ecompta/internal/auditlog"
	"github.com/ecompta-dev/ecompta/internal/config"
	"github.com/ecompta-dev/ecompta/internal/id"
	"github.com/ecompta-dev/ecompta/internal/logging"
	"github.com/ecompta-dev/ecompta/internal/model"
	"github.com/ecompta-dev/ecompta/internal/validation"
)

// Auditor records workflow actions.
type Auditor interface {
	Record(e auditlog.Entry) error
}

// Options configures a Service. Zero fields get defaults.
type Options struct {
	Config    *config.Config        // default: config.Default("", "")
	Validator *validation.Validator // default: validation.New using Now
	Logger    logrus.FieldLogger    // default: discard
	Audit     Auditor               // default: none
	Templates TemplateStore         // default: in-memory DefaultTemplates
	Now       func() time.Time      // default: time.Now
}

// Service provides the entry workflow: capture, validate-on-write, status
// transitions with the posting gate, and the helpers built on them.
type Service struct {
	mu        sync.Mutex
	repo      Repository
	accounts  validation.AccountChecker
	cfg       *config.Config
	validator *validation.Validator
	log       logrus.FieldLogger
	audit     Auditor
	templates TemplateStore
	now       func() time.Time
}

// NewService creates a journal Service.
func NewService(repo Repository, accounts validation.AccountChecker, opts Options) *Service {
	s := &Service{
		repo:      repo,
		accounts:  accounts,
		cfg:       opts.Config,
		validator: opts.Validator,
		log:       opts.Logger,
		audit:     opts.Audit,
		templates: opts.Templates,
		now:       opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.cfg == nil {
		s.cfg = config.Default("", "")
	}
	if s.validator == nil {
		s.validator = validation.New(validation.WithClock(s.now))
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.templates == nil {
		s.templates = NewMemoryTemplateStore()
	}
	return s
}

// LineParams describes one line to add or replace.
type LineParams struct {
	Account      string `validate:"required,max=20"`
	Label        string `validate:"max=255"`
	Debit        decimal.Decimal
	Credit       decimal.Decimal
	Counterparty string `validate:"max=100"`
	DueDate      time.Time
}

// CreateParams holds parameters for a new entry.
type CreateParams struct {
	Date      time.Time `validate:"required"`
	DueDate   time.Time
	ValueDate time.Time
	Journal   string `validate:"required"`
	Type      model.EntryType
	Origin    model.Origin
	Label     string       `validate:"max=255"`
	Reference string       `validate:"max=100"`
	Piece     string       `validate:"max=100"`
	Lines     []LineParams `validate:"dive"`
}

// ModifyParams changes header fields of an entry. Nil fields are left alone;
// a non-nil Lines replaces every line.
type ModifyParams struct {
	Date      *time.Time
	DueDate   *time.Time
	ValueDate *time.Time
	Type      *model.EntryType
	Label     *string      `validate:"omitempty,max=255"`
	Reference *string      `validate:"omitempty,max=100"`
	Piece     *string      `validate:"omitempty,max=100"`
	Lines     []LineParams `validate:"omitempty,dive"`
}

// Get returns an entry by id.
func (s *Service) Get(entryID string) (*model.Entry, error) {
	return s.repo.Get(entryID)
}

// List returns entries matching f.
func (s *Service) List(f Filter) ([]*model.Entry, error) {
	return s.repo.List(f)
}

// Create numbers, validates and stores a new draft entry.
func (s *Service) Create(p CreateParams) (*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.create(p)
	if err != nil {
		return nil, err
	}
	s.record(auditlog.ActionCreate, e, resultDetails(e))
	return e, nil
}

func (s *Service) create(p CreateParams) (*model.Entry, error) {
	if err := checkParams(p); err != nil {
		return nil, err
	}
	if len(s.cfg.Journals) > 0 {
		if _, ok := s.cfg.Journal(p.Journal); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownJournal, p.Journal)
		}
	}

	date := s.day(p.Date)
	seq, err := s.nextSequence(p.Journal)
	if err != nil {
		return nil, err
	}
	exercise, err := s.cfg.Fiscal.ExerciseFor(date)
	if err != nil {
		return nil, err
	}

	now := s.now()
	e := &model.Entry{
		ID:        id.NewEntryID(),
		Number:    id.FormatNumber(s.cfg.Numbering.Format, p.Journal, date, seq),
		Sequence:  seq,
		Date:      date,
		DueDate:   s.day(p.DueDate),
		ValueDate: s.day(p.ValueDate),
		Journal:   p.Journal,
		Type:      p.Type,
		Origin:    p.Origin,
		Label:     p.Label,
		Reference: p.Reference,
		Piece:     p.Piece,
		Exercise:  exercise,
		Period:    model.FormatPeriod(date),
		Lines:     s.buildLines(p.Lines),
		Status:    model.StatusDraft,
		CreatedBy: s.cfg.Audit.User,
		CreatedAt: now,
	}
	if e.Type == "" {
		e.Type = model.EntryTypeStandard
	}
	if e.Origin == "" {
		e.Origin = model.OriginManual
	}

	if err := s.revalidate(e); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(e); err != nil {
		return nil, fmt.Errorf("storing entry %s: %w", e.Number, err)
	}
	s.entryLogger(e).Debug("entry created")
	return e, nil
}

// Modify updates header fields and optionally replaces the lines of a draft
// or pending entry.
func (s *Service) Modify(entryID string, p ModifyParams) (*model.Entry, error) {
	if err := checkParams(p); err != nil {
		return nil, err
	}
	return s.mutate(entryID, auditlog.ActionModify, func(e *model.Entry) (string, error) {
		if p.Date != nil {
			date := s.day(*p.Date)
			exercise, err := s.cfg.Fiscal.ExerciseFor(date)
			if err != nil {
				return "", err
			}
			e.Date = date
			e.Period = model.FormatPeriod(date)
			e.Exercise = exercise
		}
		if p.DueDate != nil {
			e.DueDate = s.day(*p.DueDate)
		}
		if p.ValueDate != nil {
			e.ValueDate = s.day(*p.ValueDate)
		}
		if p.Type != nil {
			e.Type = *p.Type
		}
		if p.Label != nil {
			e.Label = *p.Label
		}
		if p.Reference != nil {
			e.Reference = *p.Reference
		}
		if p.Piece != nil {
			e.Piece = *p.Piece
		}
		if p.Lines != nil {
			e.Lines = s.buildLines(p.Lines)
		}
		return "", nil
	})
}

// Delete removes an entry. Posted, archived and reversed entries stay.
func (s *Service) Delete(entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.repo.Get(entryID)
	if err != nil {
		return err
	}
	if !e.Status.Deletable() {
		s.entryLogger(e).Warn("delete refused")
		return fmt.Errorf("deleting %s entry %s: %w", e.Status, e.Number, ErrImmutable)
	}
	if err := s.repo.Delete(entryID); err != nil {
		return fmt.Errorf("deleting entry %s: %w", e.Number, err)
	}
	s.entryLogger(e).Debug("entry deleted")
	s.record(auditlog.ActionDelete, e, "")
	return nil
}

// AddLine appends a line.
func (s *Service) AddLine(entryID string, p LineParams) (*model.Entry, error) {
	if err := checkParams(p); err != nil {
		return nil, err
	}
	return s.mutate(entryID, auditlog.ActionAddLine, func(e *model.Entry) (string, error) {
		l := s.buildLine(p)
		l.Order = len(e.Lines) + 1
		e.Lines = append(e.Lines, l)
		return fmt.Sprintf("line %d account %s", l.Order, l.Account), nil
	})
}

// EditLine replaces the line at order.
func (s *Service) EditLine(entryID string, order int, p LineParams) (*model.Entry, error) {
	if err := checkParams(p); err != nil {
		return nil, err
	}
	return s.mutate(entryID, auditlog.ActionEditLine, func(e *model.Entry) (string, error) {
		i := lineIndex(e, order)
		if i < 0 {
			return "", fmt.Errorf("line %d of entry %s: %w", order, e.Number, ErrNotFound)
		}
		l := s.buildLine(p)
		l.Order = order
		e.Lines[i] = l
		return fmt.Sprintf("line %d account %s", order, l.Account), nil
	})
}

// DeleteLine removes the line at order and renumbers the rest from 1.
func (s *Service) DeleteLine(entryID string, order int) (*model.Entry, error) {
	return s.mutate(entryID, auditlog.ActionDeleteLine, func(e *model.Entry) (string, error) {
		i := lineIndex(e, order)
		if i < 0 {
			return "", fmt.Errorf("line %d of entry %s: %w", order, e.Number, ErrNotFound)
		}
		e.Lines = slices.Delete(e.Lines, i, i+1)
		e.Renumber()
		return fmt.Sprintf("line %d", order), nil
	})
}

// Find returns the entry whose ID or number is ref.
func (s *Service) Find(ref string) (*model.Entry, error) {
	e, err := s.repo.Get(ref)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return e, err
	}
	entries, err := s.repo.List(Filter{})
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Number == ref {
			return e, nil
		}
	}
	return nil, fmt.Errorf("entry %s: %w", ref, ErrNotFound)
}

// Inspect returns the entry with a fresh validation result attached.
// Nothing is stored.
func (s *Service) Inspect(entryID string) (*model.Entry, error) {
	e, err := s.repo.Get(entryID)
	if err != nil {
		return nil, err
	}
	res, err := s.validator.Validate(e, s.accounts)
	if err != nil {
		return nil, fmt.Errorf("validating entry %s: %w", e.Number, err)
	}
	e.Validation = res
	e.Category = model.Categorize(e.Lines)
	return e, nil
}

// Revalidate runs the engine again on a stored entry, whatever its status,
// and stores the refreshed derived fields.
func (s *Service) Revalidate(entryID string) (*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.repo.Get(entryID)
	if err != nil {
		return nil, err
	}
	if err := s.revalidate(e); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(e); err != nil {
		return nil, fmt.Errorf("storing entry %s: %w", e.Number, err)
	}
	return e, nil
}

// mutate applies a structural change to a draft or pending entry, then
// validates and stores it.
func (s *Service) mutate(entryID, action string, fn func(e *model.Entry) (string, error)) (*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.repo.Get(entryID)
	if err != nil {
		return nil, err
	}
	if !e.Status.Mutable() {
		s.entryLogger(e).WithField("action", action).Warn("change refused")
		return nil, fmt.Errorf("%s on %s entry %s: %w", action, e.Status, e.Number, ErrImmutable)
	}

	details, err := fn(e)
	if err != nil {
		return nil, err
	}
	if err := s.revalidate(e); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(e); err != nil {
		return nil, fmt.Errorf("storing entry %s: %w", e.Number, err)
	}

	s.entryLogger(e).WithField("action", action).Debug("entry changed")
	if details != "" {
		details += " "
	}
	s.record(action, e, details+resultDetails(e))
	return e, nil
}

// revalidate refreshes every derived field of e.
func (s *Service) revalidate(e *model.Entry) error {
	res, err := s.validator.Validate(e, s.accounts)
	if err != nil {
		logging.LogError(s.log, "journal", "revalidate", "validation engine", e.Number, err)
		return fmt.Errorf("validating entry %s: %w", e.Number, err)
	}
	e.Validation = res
	e.Category = model.Categorize(e.Lines)
	e.UpdatedAt = s.now()
	return nil
}

func (s *Service) nextSequence(journal string) (int, error) {
	entries, err := s.repo.List(Filter{Journal: journal})
	if err != nil {
		return 0, fmt.Errorf("listing %s entries: %w", journal, err)
	}
	maxSeq := 0
	for _, e := range entries {
		maxSeq = max(maxSeq, e.Sequence)
	}
	return maxSeq + 1, nil
}

func (s *Service) entryLogger(e *model.Entry) logrus.FieldLogger {
	fields := logrus.Fields{
		"entry_id": e.ID,
		"number":   e.Number,
		"status":   e.Status,
	}
	if e.Validation != nil {
		fields["score"] = e.Validation.Score
		fields["risk"] = e.Validation.Risk
	}
	return s.log.WithFields(fields)
}

// record appends to the audit trail. A failing audit log is logged, not
// returned: the entry change is already stored.
func (s *Service) record(action string, e *model.Entry, details string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(auditlog.Entry{
		Timestamp: s.now(),
		User:      s.cfg.Audit.User,
		Action:    action,
		EntryID:   e.ID,
		Number:    e.Number,
		Details:   details,
	})
	if err != nil {
		logging.LogError(s.log, "journal", "record", action, e.Number, err)
	}
}

func resultDetails(e *model.Entry) string {
	if e.Validation == nil {
		return ""
	}
	return fmt.Sprintf("score=%d risk=%s", e.Validation.Score, e.Validation.Risk)
}

func (s *Service) buildLines(ps []LineParams) []model.Line {
	lines := make([]model.Line, len(ps))
	for i, p := range ps {
		lines[i] = s.buildLine(p)
		lines[i].Order = i + 1
	}
	return lines
}

func (s *Service) buildLine(p LineParams) model.Line {
	return model.Line{
		Account:      p.Account,
		Label:        p.Label,
		Debit:        p.Debit,
		Credit:       p.Credit,
		Counterparty: p.Counterparty,
		DueDate:      s.day(p.DueDate),
	}
}

func lineIndex(e *model.Entry, order int) int {
	return slices.IndexFunc(e.Lines, func(l model.Line) bool { return l.Order == order })
}

// day keeps the calendar date of t at midnight in the zone of the service
// clock, so stored dates compare consistently with now. The zero time stays
// zero.
func (s *Service) day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.now().Location())
}
