package journal

import (
	"fmt"
	"slices"
	"time"

	"github.com/ecompta-dev/ecompta/internal/auditlog"
	"github.com/ecompta-dev/ecompta/internal/logging"
	"github.com/ecompta-dev/ecompta/internal/model"
)

type transition struct {
	from []model.EntryStatus
	to   model.EntryStatus
}

var reviewable = []model.EntryStatus{model.StatusDraft, model.StatusPending, model.StatusInValidation}

var transitions = map[string]transition{
	auditlog.ActionSubmit:   {from: []model.EntryStatus{model.StatusDraft}, to: model.StatusPending},
	auditlog.ActionReview:   {from: []model.EntryStatus{model.StatusPending}, to: model.StatusInValidation},
	auditlog.ActionValidate: {from: reviewable, to: model.StatusValidated},
	auditlog.ActionReject:   {from: reviewable, to: model.StatusRejected},
	auditlog.ActionReopen:   {from: []model.EntryStatus{model.StatusRejected, model.StatusInValidation}, to: model.StatusDraft},
	auditlog.ActionPost:     {from: []model.EntryStatus{model.StatusValidated}, to: model.StatusPosted},
	auditlog.ActionArchive:  {from: []model.EntryStatus{model.StatusPosted}, to: model.StatusArchived},
	auditlog.ActionReverse:  {from: []model.EntryStatus{model.StatusPosted}, to: model.StatusReversed},
}

// CanTransition reports whether action is allowed from status.
func CanTransition(status model.EntryStatus, action string) bool {
	t, ok := transitions[action]
	return ok && slices.Contains(t.from, status)
}

// Submit moves a draft to pending.
func (s *Service) Submit(entryID string) (*model.Entry, error) {
	return s.move(entryID, auditlog.ActionSubmit, "")
}

// Review locks a pending entry for review.
func (s *Service) Review(entryID string) (*model.Entry, error) {
	return s.move(entryID, auditlog.ActionReview, "")
}

// Reject refuses an entry under review.
func (s *Service) Reject(entryID, reason string) (*model.Entry, error) {
	return s.move(entryID, auditlog.ActionReject, reason)
}

// Reopen sends a rejected or reviewed entry back to draft.
func (s *Service) Reopen(entryID string) (*model.Entry, error) {
	return s.move(entryID, auditlog.ActionReopen, "")
}

// Post books a validated entry. Posted entries are immutable.
func (s *Service) Post(entryID string) (*model.Entry, error) {
	return s.move(entryID, auditlog.ActionPost, "")
}

// Archive retires a posted entry.
func (s *Service) Archive(entryID string) (*model.Entry, error) {
	return s.move(entryID, auditlog.ActionArchive, "")
}

// Validate runs the engine on the entry and moves it to validated when the
// gate passes: the entry must conform to SYSCOHADA and carry no blocking
// anomaly. A refused entry keeps its status; the fresh result is stored and a
// *GateError is returned.
func (s *Service) Validate(entryID string) (*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.repo.Get(entryID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(e.Status, auditlog.ActionValidate) {
		return nil, s.refuse(e, auditlog.ActionValidate)
	}

	if err := s.revalidate(e); err != nil {
		return nil, err
	}
	if !e.Validation.Postable() {
		if err := s.repo.Upsert(e); err != nil {
			return nil, fmt.Errorf("storing entry %s: %w", e.Number, err)
		}
		gerr := &GateError{
			EntryID:  e.ID,
			Number:   e.Number,
			Score:    e.Validation.Score,
			Risk:     e.Validation.Risk,
			Conforms: e.Validation.Conforms,
			Blocking: e.Validation.BlockingAnomalies(),
		}
		s.entryLogger(e).Warn(gerr.Error())
		s.record(auditlog.ActionGateRefused, e, resultDetails(e))
		return nil, gerr
	}

	if err := s.apply(e, auditlog.ActionValidate, resultDetails(e)); err != nil {
		return nil, err
	}
	return e, nil
}

// Reverse cancels a posted entry: the original becomes reversed and a new
// draft counter-entry with debits and credits swapped is created on date
// (today when zero). The counter-entry is returned. When the original cannot
// be stored as reversed the counter-entry is removed again.
func (s *Service) Reverse(entryID string, date time.Time) (*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orig, err := s.repo.Get(entryID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(orig.Status, auditlog.ActionReverse) {
		return nil, s.refuse(orig, auditlog.ActionReverse)
	}
	if date.IsZero() {
		date = s.now()
	}

	lines := make([]LineParams, len(orig.Lines))
	for i, l := range orig.Lines {
		lines[i] = LineParams{
			Account:      l.Account,
			Label:        l.Label,
			Debit:        l.Credit,
			Credit:       l.Debit,
			Counterparty: l.Counterparty,
			DueDate:      l.DueDate,
		}
	}
	counter, err := s.create(CreateParams{
		Date:      date,
		Journal:   orig.Journal,
		Type:      model.EntryTypeReversal,
		Origin:    model.OriginAutomatic,
		Label:     "Reversal of " + orig.Number,
		Reference: orig.Number,
		Piece:     orig.Piece,
		Lines:     lines,
	})
	if err != nil {
		return nil, fmt.Errorf("reversing entry %s: %w", orig.Number, err)
	}
	counter.OriginalID = orig.ID
	if err := s.repo.Upsert(counter); err != nil {
		return nil, fmt.Errorf("storing entry %s: %w", counter.Number, err)
	}

	if err := s.apply(orig, auditlog.ActionReverse, "by "+counter.Number); err != nil {
		if derr := s.repo.Delete(counter.ID); derr != nil {
			logging.LogError(s.log, "journal", "Reverse", "dropping counter-entry", counter.Number, derr)
		}
		return nil, err
	}
	s.record(auditlog.ActionCreate, counter, "reversal of "+orig.Number+" "+resultDetails(counter))
	return counter, nil
}

// Duplicate copies an entry's header and lines into a new draft dated date
// (today when zero). Reference and piece number are not copied.
func (s *Service) Duplicate(entryID string, date time.Time) (*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, err := s.repo.Get(entryID)
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = s.now()
	}

	lines := make([]LineParams, len(src.Lines))
	for i, l := range src.Lines {
		lines[i] = LineParams{
			Account:      l.Account,
			Label:        l.Label,
			Debit:        l.Debit,
			Credit:       l.Credit,
			Counterparty: l.Counterparty,
		}
	}
	dup, err := s.create(CreateParams{
		Date:    date,
		Journal: src.Journal,
		Type:    src.Type,
		Origin:  model.OriginDuplication,
		Label:   src.Label,
		Lines:   lines,
	})
	if err != nil {
		return nil, fmt.Errorf("duplicating entry %s: %w", src.Number, err)
	}
	s.record(auditlog.ActionDuplicate, dup, "from "+src.Number+" "+resultDetails(dup))
	return dup, nil
}

// move applies a plain status transition.
func (s *Service) move(entryID, action, details string) (*model.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.repo.Get(entryID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(e.Status, action) {
		return nil, s.refuse(e, action)
	}
	if err := s.apply(e, action, details); err != nil {
		return nil, err
	}
	return e, nil
}

// apply sets the target status of action, stores e and records it.
func (s *Service) apply(e *model.Entry, action, details string) error {
	from := e.Status
	e.Status = transitions[action].to
	e.UpdatedAt = s.now()
	if err := s.repo.Upsert(e); err != nil {
		return fmt.Errorf("storing entry %s: %w", e.Number, err)
	}
	s.entryLogger(e).WithField("from", from).Debug("status changed")
	s.record(action, e, details)
	return nil
}

func (s *Service) refuse(e *model.Entry, action string) error {
	s.entryLogger(e).WithField("action", action).Warn("transition refused")
	return fmt.Errorf("%s from %s (entry %s): %w", action, e.Status, e.Number, ErrTransition)
}
