// Package report renders entries, validation results and statistics for the
// terminal (styled with lipgloss) or as JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ecompta-dev/ecompta/internal/journal"
	"github.com/ecompta-dev/ecompta/internal/model"
)

const (
	okSymbol   = "✓"
	warnSymbol = "!"
	failSymbol = "✗"
	infoSymbol = "→"
)

const dateLayout = "2006-01-02"

type styles struct {
	ok, warn, fail, info, title, dim lipgloss.Style
	cell, amount                      lipgloss.Style
}

// Printer writes reports to w. Colors are only emitted when w is a terminal.
type Printer struct {
	w io.Writer
	s styles
}

// New returns a Printer for w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	color := func(hex string) lipgloss.AdaptiveColor { return lipgloss.AdaptiveColor{Light: hex, Dark: hex} }
	return &Printer{
		w: w,
		s: styles{
			ok:     r.NewStyle().Foreground(color("#00D787")),
			warn:   r.NewStyle().Foreground(color("#FFAF00")),
			fail:   r.NewStyle().Foreground(color("#FF5F87")),
			info:   r.NewStyle().Foreground(color("#5FAFFF")),
			title:  r.NewStyle().Bold(true),
			dim:    r.NewStyle().Foreground(color("#808080")),
			cell:   r.NewStyle().Padding(0, 1),
			amount: r.NewStyle().Padding(0, 1).Align(lipgloss.Right),
		},
	}
}

func (p *Printer) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format, args...)
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, args ...any) {
	p.printf("%s %s\n", p.s.ok.Render(okSymbol), fmt.Sprintf(format, args...))
}

// Info prints an informational line.
func (p *Printer) Info(format string, args ...any) {
	p.printf("%s %s\n", p.s.info.Render(infoSymbol), fmt.Sprintf(format, args...))
}

// Error prints an error line.
func (p *Printer) Error(err error) {
	p.printf("%s %s\n", p.s.fail.Render(failSymbol), p.s.fail.Render(err.Error()))
}

func (p *Printer) riskStyle(r model.RiskTier) lipgloss.Style {
	switch r {
	case model.RiskVeryLow, model.RiskLow:
		return p.s.ok
	case model.RiskMedium:
		return p.s.warn
	default:
		return p.s.fail
	}
}

func (p *Printer) outcomeSymbol(o model.Outcome) string {
	switch o {
	case model.OutcomeConforming:
		return p.s.ok.Render(okSymbol)
	case model.OutcomeWarning:
		return p.s.warn.Render(warnSymbol)
	default:
		return p.s.fail.Render(failSymbol)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// Result prints the validation report of e.
func (p *Printer) Result(e *model.Entry, r *model.ValidationResult) {
	title := e.Label
	if e.Number != "" {
		title = e.Number + "  " + e.Label
	}
	p.printf("%s\n", p.s.title.Render(title))
	p.printf("Score %d/100  risk %s  conforms %s\n",
		r.Score, p.riskStyle(r.Risk).Render(string(r.Risk)), yesNo(r.Conforms))
	balance := p.s.ok.Render("balanced")
	if !e.Balanced {
		balance = p.s.fail.Render("unbalanced")
	}
	p.printf("Debit %s  Credit %s  %s\n\n", e.TotalDebit.StringFixed(2), e.TotalCredit.StringFixed(2), balance)

	p.printf("%s\n", p.s.title.Render("Rules"))
	for _, o := range r.Outcomes {
		p.printf("  %s %-22s %2d  %s\n", p.outcomeSymbol(o.Outcome), o.Rule, o.Points, o.Message)
		if o.Outcome != model.OutcomeConforming && o.CorrectiveAction != "" {
			p.printf("      %s\n", p.s.dim.Render(o.CorrectiveAction))
		}
	}

	if len(r.Anomalies) > 0 {
		p.printf("\n%s\n", p.s.title.Render("Anomalies"))
		for _, a := range r.Anomalies {
			sev := p.s.warn
			if a.Severity == model.SeverityBlocking {
				sev = p.s.fail
			}
			p.printf("  %s %s: %s\n", sev.Render("["+string(a.Severity)+"]"), a.Kind(), a.Description)
			detail := "detected " + a.Detail.Detected()
			if exp := a.Detail.Expected(); exp != "" {
				detail += ", expected " + exp
			}
			p.printf("      %s\n", p.s.dim.Render(detail))
			if a.SuggestedFix != "" {
				p.printf("      %s\n", p.s.dim.Render("fix: "+a.SuggestedFix))
			}
		}
	}

	if len(r.Suggestions) > 0 {
		p.printf("\n%s\n", p.s.title.Render("Suggestions"))
		for _, sg := range r.Suggestions {
			p.printf("  %s %s (%s, impact %s)\n", p.s.info.Render(infoSymbol), sg.Title, sg.Ease, sg.Impact)
			p.printf("      %s\n", p.s.dim.Render(sg.Description))
		}
	}
}

func (p *Printer) styleFunc(amountCols ...int) table.StyleFunc {
	return func(row, col int) lipgloss.Style {
		for _, c := range amountCols {
			if c == col {
				return p.s.amount
			}
		}
		return p.s.cell
	}
}

// Entry prints an entry header and its lines.
func (p *Printer) Entry(e *model.Entry) {
	p.printf("%s\n", p.s.title.Render(e.Number+"  "+e.Label))
	p.printf("%s  journal %s  %s  status %s  %s\n",
		e.Date.Format(dateLayout), e.Journal, e.Type, e.Status, p.s.dim.Render(e.ID))
	if e.Reference != "" || e.Piece != "" {
		p.printf("reference %s  piece %s\n", e.Reference, e.Piece)
	}
	if e.OriginalID != "" {
		p.printf("reverses %s\n", e.OriginalID)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Account", "Label", "Debit", "Credit").
		StyleFunc(p.styleFunc(3, 4))
	for _, l := range e.Lines {
		t.Row(strconv.Itoa(l.Order), l.Account, l.Label, amount(l.Debit.StringFixed(2)), amount(l.Credit.StringFixed(2)))
	}
	t.Row("", "", "Total", e.TotalDebit.StringFixed(2), e.TotalCredit.StringFixed(2))
	p.printf("%s\n", t.Render())

	if e.Validation != nil {
		p.printf("score %d  risk %s  conforms %s\n",
			e.Validation.Score, p.riskStyle(e.Validation.Risk).Render(string(e.Validation.Risk)), yesNo(e.Validation.Conforms))
	}
}

// amount blanks zero amounts in line tables.
func amount(s string) string {
	if s == "0.00" {
		return ""
	}
	return s
}

// Entries prints one row per entry.
func (p *Printer) Entries(entries []*model.Entry) {
	if len(entries) == 0 {
		p.Info("no entries")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Number", "Date", "Journal", "Status", "Label", "Amount", "Score").
		StyleFunc(p.styleFunc(5, 6))
	for _, e := range entries {
		score := ""
		if e.Validation != nil {
			score = strconv.Itoa(e.Validation.Score)
		}
		t.Row(e.Number, e.Date.Format(dateLayout), e.Journal, string(e.Status), e.Label, e.TotalDebit.StringFixed(2), score)
	}
	p.printf("%s\n", t.Render())
}

// Stats prints a statistics summary.
func (p *Printer) Stats(st *journal.Stats) {
	period := st.Period
	if period == "" {
		period = "all periods"
	}
	p.printf("%s\n", p.s.title.Render("Statistics, "+period))
	p.printf("entries %d  lines %d  debit %s  credit %s  error rate %s%%\n",
		st.Entries, st.Lines, st.TotalDebit.StringFixed(2), st.TotalCredit.StringFixed(2), st.ErrorRate.StringFixed(2))
	if len(st.ByJournal) == 0 {
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Journal", "Entries", "Amount", "%").
		StyleFunc(p.styleFunc(1, 2, 3))
	for _, js := range st.ByJournal {
		t.Row(js.Journal, strconv.Itoa(js.Entries), js.Amount.StringFixed(2), js.Percentage.StringFixed(2))
	}
	p.printf("%s\n", t.Render())

	types := make([]string, 0, len(st.ByType))
	for typ, n := range st.ByType {
		types = append(types, fmt.Sprintf("%s %d", typ, n))
	}
	slices.Sort(types)
	p.printf("by type: %s\n", strings.Join(types, ", "))
}

// Accounts prints a chart of accounts.
func (p *Printer) Accounts(accts []model.Account) {
	if len(accts) == 0 {
		p.Info("no accounts")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Code", "Name", "Type", "Parent").
		StyleFunc(p.styleFunc())
	for _, a := range accts {
		t.Row(a.Code, a.Name, string(a.Type), a.ParentCode)
	}
	p.printf("%s\n", t.Render())
}

// Templates prints the template catalogue.
func (p *Printer) Templates(templates []journal.Template) {
	for _, t := range templates {
		p.printf("%s  %s  %s\n", p.s.title.Render(t.Name), t.Journal, p.s.dim.Render(fmt.Sprintf("used %d time(s)", t.Uses)))
		if t.Description != "" {
			p.printf("  %s\n", t.Description)
		}
		for _, l := range t.Lines {
			p.printf("    %-6s %-6s %s\n", l.Side, l.Account, l.Amount)
		}
	}
}

// Document is the JSON shape of a validation report.
type Document struct {
	ID          string                  `json:"id,omitempty"`
	Number      string                  `json:"number,omitempty"`
	Label       string                  `json:"label"`
	TotalDebit  string                  `json:"total_debit"`
	TotalCredit string                  `json:"total_credit"`
	Balanced    bool                    `json:"balanced"`
	Category    model.Category          `json:"category,omitempty"`
	Result      *model.ValidationResult `json:"result"`
}

// JSON writes the validation report of e as indented JSON.
func JSON(w io.Writer, e *model.Entry, r *model.ValidationResult) error {
	doc := Document{
		ID:          e.ID,
		Number:      e.Number,
		Label:       e.Label,
		TotalDebit:  e.TotalDebit.StringFixed(2),
		TotalCredit: e.TotalCredit.StringFixed(2),
		Balanced:    e.Balanced,
		Category:    e.Category,
		Result:      r,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
