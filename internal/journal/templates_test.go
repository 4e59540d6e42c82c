package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecompta-dev/ecompta/internal/auditlog"
	"github.com/ecompta-dev/ecompta/internal/model"
)

func TestEvalAmount(t *testing.T) {
	vars := map[string]string{"ht": "1000000", "a": "10", "b": "4"}
	tests := []struct {
		expr string
		want string
	}{
		{"25000", "25000"},
		{"{ht}", "1000000"},
		{"{ht} * 0.18", "180000"},
		{"{ht}*1.18", "1180000"},
		{"{a} + {b} * 2", "18"},
		{"{a} - {b} - 1", "5"},
		{"{a} / {b}", "2.5"},
		{"{a} / 3", "3.33"},
		{"{a} * {b} / 8 + 1", "6"},
		{"-5 + {a}", "5"},
		{"{a} - -3", "13"},
		{"{a} * -{b}", "-40"},
	}
	for _, tt := range tests {
		got, err := EvalAmount(tt.expr, vars)
		require.NoError(t, err, tt.expr)
		assert.True(t, got.Equal(dec(tt.want)), "%s = %s, want %s", tt.expr, got, tt.want)
	}
}

func TestEvalAmount_NegativeVariable(t *testing.T) {
	got, err := EvalAmount("{ht} * 0.18", map[string]string{"ht": "-100"})
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("-18")), "got %s", got)

	got, err = EvalAmount("{ht} - {tva}", map[string]string{"ht": "-100", "tva": "-18"})
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("-82")), "got %s", got)
}

func TestEvalAmount_Errors(t *testing.T) {
	vars := map[string]string{"a": "10"}
	tests := []struct {
		expr string
		msg  string
	}{
		{"{missing} * 2", `missing variable "missing"`},
		{"{a} / 0", "division by zero"},
		{"{a} +", "dangling operator"},
		{"{a} * -", "dangling operator"},
		{"", "empty amount"},
		{"abc * 2", "bad operand"},
		{"{a} 2", "unexpected"},
	}
	for _, tt := range tests {
		_, err := EvalAmount(tt.expr, vars)
		require.Error(t, err, tt.expr)
		assert.ErrorIs(t, err, ErrTemplate, tt.expr)
		assert.Contains(t, err.Error(), tt.msg, tt.expr)
	}
}

func TestApplyVariables(t *testing.T) {
	got := ApplyVariables("Achat {supplier} {unknown}", map[string]string{"supplier": "SODECI"})
	assert.Equal(t, "Achat SODECI {unknown}", got)
}

func TestDefaultTemplatesBalance(t *testing.T) {
	vars := map[string]string{
		"ht": "250000", "amount": "75000",
		"gross": "500000", "employee": "32000", "employer": "82000",
	}
	for _, tpl := range DefaultTemplates() {
		debit, credit := dec("0"), dec("0")
		for _, l := range tpl.Lines {
			v, err := EvalAmount(l.Amount, vars)
			require.NoError(t, err, tpl.Name)
			if l.Side == SideDebit {
				debit = debit.Add(v)
			} else {
				credit = credit.Add(v)
			}
		}
		assert.True(t, debit.Equal(credit), "%s: %s != %s", tpl.Name, debit, credit)
	}
}

func TestYAMLTemplateStore(t *testing.T) {
	root := t.TempDir()
	store := NewYAMLTemplateStore(root)

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplates(), got)

	got[0].Uses = 3
	got[0].LastUsed = testNow
	require.NoError(t, store.Save(got))
	assert.FileExists(t, filepath.Join(root, TemplatesPath))

	reloaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, reloaded, len(got))
	assert.Equal(t, 3, reloaded[0].Uses)
	assert.True(t, testNow.Equal(reloaded[0].LastUsed))
	assert.Equal(t, got[0].Lines, reloaded[0].Lines)
}

func TestYAMLTemplateStore_BadFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, TemplatesPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("templates: [unclosed"), 0o644))

	_, err := NewYAMLTemplateStore(root).Load()
	assert.ErrorContains(t, err, "parsing templates")
}

func TestCreateFromTemplate(t *testing.T) {
	f := newFixture(t)

	e, err := f.svc.CreateFromTemplate("purchase-vat", TemplateParams{
		Date:      testNow,
		Reference: "FAC-2025-001",
		Vars:      map[string]string{"ht": "1000000", "supplier": "SODECI"},
	})
	require.NoError(t, err)

	assert.Equal(t, "ACH", e.Journal)
	assert.Equal(t, model.OriginTemplate, e.Origin)
	assert.Equal(t, "Achat SODECI", e.Label)
	assert.Equal(t, "FAC-2025-001", e.Reference)
	require.Len(t, e.Lines, 3)
	assert.Equal(t, "601", e.Lines[0].Account)
	assert.True(t, e.Lines[1].Debit.Equal(dec("180000")))
	assert.True(t, e.Lines[2].Credit.Equal(dec("1180000")))
	assert.Equal(t, "Fournisseur SODECI", e.Lines[2].Label)
	assert.True(t, e.Balanced)
	assert.Equal(t, 100, e.Validation.Score)

	templates, err := f.svc.Templates()
	require.NoError(t, err)
	assert.Equal(t, 1, templates[0].Uses)
	assert.Equal(t, testNow, templates[0].LastUsed)

	assert.Equal(t, auditlog.ActionFromTemplate, f.audit.actions()[0])
}

func TestCreateFromTemplate_JournalOverride(t *testing.T) {
	f := newFixture(t)
	e, err := f.svc.CreateFromTemplate("supplier-payment", TemplateParams{
		Date:    testNow,
		Journal: "CAI",
		Vars:    map[string]string{"amount": "50000", "supplier": "CIE"},
	})
	require.NoError(t, err)
	assert.Equal(t, "CAI", e.Journal)
	assert.Equal(t, "CAI-2025-000001", e.Number)
}

func TestCreateFromTemplate_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateFromTemplate("nope", TemplateParams{Date: testNow})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.CreateFromTemplate("purchase-vat", TemplateParams{Date: testNow})
	assert.ErrorIs(t, err, ErrTemplate)

	_, err = f.svc.CreateFromTemplate("purchase-vat", TemplateParams{})
	var perr *ParamsError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "required", perr.Fields["Date"])

	entries, err := f.svc.List(Filter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveAsTemplate(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, purchaseParams())

	tpl, err := f.svc.SaveAsTemplate(e.ID, "monthly-purchase", "Achat mensuel")
	require.NoError(t, err)
	assert.Equal(t, "ACH", tpl.Journal)
	require.Len(t, tpl.Lines, 3)
	assert.Equal(t, SideDebit, tpl.Lines[0].Side)
	assert.Equal(t, "1000000", tpl.Lines[0].Amount)
	assert.Equal(t, SideCredit, tpl.Lines[2].Side)
	assert.Equal(t, "1180000", tpl.Lines[2].Amount)

	again, err := f.svc.CreateFromTemplate("monthly-purchase", TemplateParams{Date: testNow})
	require.NoError(t, err)
	assert.True(t, again.Balanced)
	assert.Equal(t, e.Label, again.Label)

	_, err = f.svc.SaveAsTemplate(e.ID, "monthly-purchase", "")
	assert.ErrorIs(t, err, ErrTemplate)

	_, err = f.svc.SaveAsTemplate(e.ID, "", "")
	var perr *ParamsError
	assert.ErrorAs(t, err, &perr)

	_, err = f.svc.SaveAsTemplate("missing", "x", "")
	assert.ErrorIs(t, err, ErrNotFound)
}
