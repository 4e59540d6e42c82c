package journal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ecompta-dev/ecompta/internal/auditlog"
	"github.com/ecompta-dev/ecompta/internal/logging"
	"github.com/ecompta-dev/ecompta/internal/model"
)

// Side is the column a template line books to.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// TemplateLine is one line of a template. Amount is either a fixed value
// ("25000") or a formula over variables ("{ht} * 0.18").
type TemplateLine struct {
	Account string `yaml:"account"`
	Label   string `yaml:"label"`
	Side    Side   `yaml:"side"`
	Amount  string `yaml:"amount"`
}

// Template is a reusable entry skeleton.
type Template struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Journal     string          `yaml:"journal"`
	Type        model.EntryType `yaml:"type"`
	Label       string          `yaml:"label"`
	Lines       []TemplateLine  `yaml:"lines"`
	Uses        int             `yaml:"uses"`
	LastUsed    time.Time       `yaml:"last_used,omitempty"`
}

// DefaultTemplates returns the stock SYSCOHADA templates. VAT is at the
// common 18% rate.
func DefaultTemplates() []Template {
	return []Template{
		{
			Name:        "purchase-vat",
			Description: "Facture d'achat avec TVA",
			Journal:     "ACH",
			Type:        model.EntryTypeStandard,
			Label:       "Achat {supplier}",
			Lines: []TemplateLine{
				{Account: "601", Label: "Achats", Side: SideDebit, Amount: "{ht}"},
				{Account: "445", Label: "TVA récupérable", Side: SideDebit, Amount: "{ht} * 0.18"},
				{Account: "401", Label: "Fournisseur {supplier}", Side: SideCredit, Amount: "{ht} * 1.18"},
			},
		},
		{
			Name:        "sale-vat",
			Description: "Facture de vente avec TVA",
			Journal:     "VTE",
			Type:        model.EntryTypeStandard,
			Label:       "Vente {customer}",
			Lines: []TemplateLine{
				{Account: "411", Label: "Client {customer}", Side: SideDebit, Amount: "{ht} * 1.18"},
				{Account: "701", Label: "Ventes", Side: SideCredit, Amount: "{ht}"},
				{Account: "443", Label: "TVA collectée", Side: SideCredit, Amount: "{ht} * 0.18"},
			},
		},
		{
			Name:        "supplier-payment",
			Description: "Règlement fournisseur",
			Journal:     "BQ",
			Type:        model.EntryTypeStandard,
			Label:       "Règlement {supplier}",
			Lines: []TemplateLine{
				{Account: "401", Label: "Fournisseur {supplier}", Side: SideDebit, Amount: "{amount}"},
				{Account: "521", Label: "Banque", Side: SideCredit, Amount: "{amount}"},
			},
		},
		{
			Name:        "customer-receipt",
			Description: "Encaissement client",
			Journal:     "BQ",
			Type:        model.EntryTypeStandard,
			Label:       "Encaissement {customer}",
			Lines: []TemplateLine{
				{Account: "521", Label: "Banque", Side: SideDebit, Amount: "{amount}"},
				{Account: "411", Label: "Client {customer}", Side: SideCredit, Amount: "{amount}"},
			},
		},
		{
			Name:        "payroll",
			Description: "Salaire et charges sociales",
			Journal:     "OD",
			Type:        model.EntryTypeStandard,
			Label:       "Salaires {month}",
			Lines: []TemplateLine{
				{Account: "661", Label: "Salaires bruts", Side: SideDebit, Amount: "{gross}"},
				{Account: "664", Label: "Charges sociales patronales", Side: SideDebit, Amount: "{employer}"},
				{Account: "421", Label: "Personnel, net à payer", Side: SideCredit, Amount: "{gross} - {employee}"},
				{Account: "431", Label: "Sécurité sociale", Side: SideCredit, Amount: "{employee} + {employer}"},
			},
		},
	}
}

// TemplateStore persists templates.
type TemplateStore interface {
	Load() ([]Template, error)
	Save(templates []Template) error
}

// TemplatesPath is the template file location relative to the books root.
const TemplatesPath = "templates/entry-templates.yaml"

// YAMLTemplateStore keeps templates in <root>/templates/entry-templates.yaml.
// A missing file yields DefaultTemplates.
type YAMLTemplateStore struct {
	root string
}

// NewYAMLTemplateStore returns a store for a books root.
func NewYAMLTemplateStore(root string) *YAMLTemplateStore {
	return &YAMLTemplateStore{root: root}
}

type templateFile struct {
	Templates []Template `yaml:"templates"`
}

func (s *YAMLTemplateStore) Load() ([]Template, error) {
	path := filepath.Join(s.root, TemplatesPath)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultTemplates(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading templates: %w", err)
	}
	var tf templateFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return tf.Templates, nil
}

func (s *YAMLTemplateStore) Save(templates []Template) error {
	path := filepath.Join(s.root, TemplatesPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating templates dir: %w", err)
	}
	data, err := yaml.Marshal(templateFile{Templates: templates})
	if err != nil {
		return fmt.Errorf("marshaling templates: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing templates: %w", err)
	}
	return nil
}

// MemoryTemplateStore keeps templates in memory, seeded with DefaultTemplates.
type MemoryTemplateStore struct {
	mu        sync.Mutex
	templates []Template
}

// NewMemoryTemplateStore returns a store holding DefaultTemplates.
func NewMemoryTemplateStore() *MemoryTemplateStore {
	return &MemoryTemplateStore{templates: DefaultTemplates()}
}

func (s *MemoryTemplateStore) Load() ([]Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Template(nil), s.templates...), nil
}

func (s *MemoryTemplateStore) Save(templates []Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = append([]Template(nil), templates...)
	return nil
}

var varPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ApplyVariables replaces every {name} in s with vars[name]. Unknown names
// are left in place.
func ApplyVariables(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(m string) string {
		if v, ok := vars[m[1:len(m)-1]]; ok {
			return v
		}
		return m
	})
}

// EvalAmount resolves a template amount: variables are substituted, then the
// result is evaluated as + - * / arithmetic with the usual precedence. A sign
// in front of an operand is unary, so negative variables work. No
// parentheses.
func EvalAmount(expr string, vars map[string]string) (decimal.Decimal, error) {
	resolved := ApplyVariables(expr, vars)
	if m := varPattern.FindStringSubmatch(resolved); m != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q: missing variable %q", ErrTemplate, expr, m[1])
	}
	tokens := strings.Fields(spaceOperators(resolved))
	if len(tokens) == 0 {
		return decimal.Zero, fmt.Errorf("%w: empty amount", ErrTemplate)
	}

	// sum of products: fold * and / into term, + and - into total
	total := decimal.Zero
	sign := decimal.NewFromInt(1)
	var term decimal.Decimal
	op := ""
	expectOperand := true
	negate := false
	for _, tok := range tokens {
		if expectOperand {
			if tok == "-" || tok == "+" {
				negate = negate != (tok == "-")
				continue
			}
			v, err := decimal.NewFromString(tok)
			if err != nil {
				return decimal.Zero, fmt.Errorf("%w: amount %q: bad operand %q", ErrTemplate, expr, tok)
			}
			if negate {
				v = v.Neg()
				negate = false
			}
			switch op {
			case "":
				term = v
			case "*":
				term = term.Mul(v)
			case "/":
				if v.IsZero() {
					return decimal.Zero, fmt.Errorf("%w: amount %q: division by zero", ErrTemplate, expr)
				}
				term = term.Div(v)
			}
			expectOperand = false
			continue
		}
		switch tok {
		case "*", "/":
			op = tok
		case "+", "-":
			total = total.Add(sign.Mul(term))
			sign = decimal.NewFromInt(1)
			if tok == "-" {
				sign = decimal.NewFromInt(-1)
			}
			op = ""
		default:
			return decimal.Zero, fmt.Errorf("%w: amount %q: unexpected %q", ErrTemplate, expr, tok)
		}
		expectOperand = true
	}
	if expectOperand {
		return decimal.Zero, fmt.Errorf("%w: amount %q: dangling operator", ErrTemplate, expr)
	}
	return total.Add(sign.Mul(term)).Round(2), nil
}

func spaceOperators(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '+', '-', '*', '/':
			b.WriteByte(' ')
			b.WriteRune(r)
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TemplateParams fills a template.
type TemplateParams struct {
	Date      time.Time `validate:"required"`
	Journal   string    // overrides the template's journal when set
	Reference string
	Piece     string
	Vars      map[string]string
}

// Templates returns the stored templates.
func (s *Service) Templates() ([]Template, error) {
	return s.templates.Load()
}

// CreateFromTemplate creates a draft entry from the named template. Labels
// have {var} placeholders replaced; amounts are evaluated with EvalAmount.
func (s *Service) CreateFromTemplate(name string, p TemplateParams) (*model.Entry, error) {
	if err := checkParams(p); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	templates, err := s.templates.Load()
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(templates, func(t Template) bool { return t.Name == name })
	if i < 0 {
		return nil, fmt.Errorf("template %q: %w", name, ErrNotFound)
	}
	t := templates[i]

	lines := make([]LineParams, len(t.Lines))
	for j, tl := range t.Lines {
		amount, err := EvalAmount(tl.Amount, p.Vars)
		if err != nil {
			return nil, fmt.Errorf("template %q line %d: %w", name, j+1, err)
		}
		lp := LineParams{Account: tl.Account, Label: ApplyVariables(tl.Label, p.Vars)}
		switch tl.Side {
		case SideDebit:
			lp.Debit = amount
		case SideCredit:
			lp.Credit = amount
		default:
			return nil, fmt.Errorf("%w: template %q line %d: side %q", ErrTemplate, name, j+1, tl.Side)
		}
		lines[j] = lp
	}

	journal := t.Journal
	if p.Journal != "" {
		journal = p.Journal
	}
	e, err := s.create(CreateParams{
		Date:      p.Date,
		Journal:   journal,
		Type:      t.Type,
		Origin:    model.OriginTemplate,
		Label:     ApplyVariables(t.Label, p.Vars),
		Reference: p.Reference,
		Piece:     p.Piece,
		Lines:     lines,
	})
	if err != nil {
		return nil, err
	}

	templates[i].Uses++
	templates[i].LastUsed = s.now()
	if err := s.templates.Save(templates); err != nil {
		logging.LogError(s.log, "journal", "CreateFromTemplate", "saving usage", name, err)
	}
	s.record(auditlog.ActionFromTemplate, e, "template "+name+" "+resultDetails(e))
	return e, nil
}

// SaveAsTemplate stores an entry's shape as a new template with fixed amounts.
func (s *Service) SaveAsTemplate(entryID, name, description string) (Template, error) {
	if name == "" {
		return Template{}, &ParamsError{Fields: map[string]string{"Name": "required"}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.repo.Get(entryID)
	if err != nil {
		return Template{}, err
	}
	templates, err := s.templates.Load()
	if err != nil {
		return Template{}, err
	}
	if slices.ContainsFunc(templates, func(t Template) bool { return t.Name == name }) {
		return Template{}, fmt.Errorf("%w: template %q already exists", ErrTemplate, name)
	}

	t := Template{
		Name:        name,
		Description: description,
		Journal:     e.Journal,
		Type:        e.Type,
		Label:       e.Label,
		Lines:       make([]TemplateLine, len(e.Lines)),
	}
	for i, l := range e.Lines {
		tl := TemplateLine{Account: l.Account, Label: l.Label, Side: SideDebit, Amount: l.Debit.String()}
		if l.Debit.IsZero() && !l.Credit.IsZero() {
			tl.Side = SideCredit
			tl.Amount = l.Credit.String()
		}
		t.Lines[i] = tl
	}

	if err := s.templates.Save(append(templates, t)); err != nil {
		return Template{}, err
	}
	s.record(auditlog.ActionSaveTemplate, e, "template "+name)
	return t, nil
}
