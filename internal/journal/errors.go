package journal

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ecompta-dev/ecompta/internal/model"
)

var (
	// ErrNotFound is returned when an entry, line or template does not exist.
	ErrNotFound = errors.New("not found")
	// ErrImmutable is returned for structural changes to an entry that is no
	// longer draft or pending, and for deleting a posted entry.
	ErrImmutable = errors.New("entry is immutable")
	// ErrTransition is returned for a status move the workflow does not allow.
	ErrTransition = errors.New("illegal status transition")
	// ErrNotConforming is returned when the validation gate refuses an entry.
	ErrNotConforming = errors.New("entry does not pass the validation gate")
	// ErrUnknownJournal is returned for a journal code missing from the config.
	ErrUnknownJournal = errors.New("unknown journal")
	// ErrTemplate is returned when a template cannot be applied.
	ErrTemplate = errors.New("template error")
)

// GateError explains why the validation gate refused an entry.
type GateError struct {
	EntryID  string
	Number   string
	Score    int
	Risk     model.RiskTier
	Conforms bool
	Blocking int
}

func (e *GateError) Error() string {
	var reasons []string
	if !e.Conforms {
		reasons = append(reasons, "not SYSCOHADA conforming")
	}
	if e.Blocking > 0 {
		reasons = append(reasons, fmt.Sprintf("%d blocking anomaly(ies)", e.Blocking))
	}
	return fmt.Sprintf("entry %s refused (score %d, risk %s): %s", e.Number, e.Score, e.Risk, strings.Join(reasons, ", "))
}

func (e *GateError) Unwrap() error { return ErrNotConforming }

// ParamsError lists the parameter fields that failed validation, mapped to
// the failed tag.
type ParamsError struct {
	Fields map[string]string
}

func (e *ParamsError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s (%s)", k, e.Fields[k])
	}
	return "invalid parameters: " + strings.Join(parts, ", ")
}

var validate = validator.New()

// checkParams runs struct-tag validation on p.
func checkParams(p any) error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = fe.Tag()
	}
	return &ParamsError{Fields: fields}
}

// fieldPath drops the struct name: "CreateParams.Lines[0].Account" -> "Lines[0].Account".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
