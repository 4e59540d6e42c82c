package journal

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecompta-dev/ecompta/internal/auditlog"
	"github.com/ecompta-dev/ecompta/internal/config"
	"github.com/ecompta-dev/ecompta/internal/id"
	"github.com/ecompta-dev/ecompta/internal/model"
)

var testNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

// mockAccounts implements validation.AccountChecker for testing.
type mockAccounts struct {
	codes map[string]bool
	err   error
}

func (m *mockAccounts) Exists(code string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.codes[code], nil
}

func newMockAccounts(codes ...string) *mockAccounts {
	m := &mockAccounts{codes: make(map[string]bool)}
	for _, c := range codes {
		m.codes[c] = true
	}
	return m
}

var defaultAccounts = []string{"521", "411", "401", "601", "701", "445", "443", "661", "664", "421", "431"}

// recordingAudit collects audit entries in memory.
type recordingAudit struct {
	mu      sync.Mutex
	entries []auditlog.Entry
	err     error
}

func (a *recordingAudit) Record(e auditlog.Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.entries = append(a.entries, e)
	return nil
}

func (a *recordingAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Action
	}
	return out
}

type fixture struct {
	svc      *Service
	repo     Repository
	accounts *mockAccounts
	audit    *recordingAudit
	hook     *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, NewMemoryRepository())
}

func newFixtureWithRepo(t *testing.T, repo Repository) *fixture {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &fixture{
		repo:     repo,
		accounts: newMockAccounts(defaultAccounts...),
		audit:    &recordingAudit{},
		hook:     hook,
	}
	f.svc = NewService(repo, f.accounts, Options{
		Config: config.Default("Test SARL", "CI"),
		Logger: logger,
		Audit:  f.audit,
		Now:    func() time.Time { return testNow },
	})
	return f
}

func purchaseParams() CreateParams {
	return CreateParams{
		Date:    testNow,
		Journal: "ACH",
		Label:   "Achat marchandises",
		Lines: []LineParams{
			{Account: "601", Label: "Marchandises", Debit: dec("1000000")},
			{Account: "445", Label: "TVA récupérable", Debit: dec("180000")},
			{Account: "401", Label: "Fournisseur", Credit: dec("1180000")},
		},
	}
}

func (f *fixture) create(t *testing.T, p CreateParams) *model.Entry {
	t.Helper()
	e, err := f.svc.Create(p)
	require.NoError(t, err)
	return e
}

func (f *fixture) hasLog(level logrus.Level, msg string) bool {
	for _, e := range f.hook.AllEntries() {
		if e.Level == level && (msg == "" || e.Message == msg) {
			return true
		}
	}
	return false
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, purchaseParams())

	assert.True(t, id.ValidEntryID(e.ID))
	assert.Equal(t, "ACH-2025-000001", e.Number)
	assert.Equal(t, 1, e.Sequence)
	assert.Equal(t, date(2025, 6, 15), e.Date)
	assert.Equal(t, "2025-06", e.Period)
	assert.Equal(t, "2025", e.Exercise)
	assert.Equal(t, model.StatusDraft, e.Status)
	assert.Equal(t, model.EntryTypeStandard, e.Type)
	assert.Equal(t, model.OriginManual, e.Origin)
	assert.Equal(t, model.CategoryCharges, e.Category)
	assert.Equal(t, "admin", e.CreatedBy)
	assert.Equal(t, testNow, e.CreatedAt)

	require.Len(t, e.Lines, 3)
	for i, l := range e.Lines {
		assert.Equal(t, i+1, l.Order)
	}
	assert.True(t, e.TotalDebit.Equal(dec("1180000")))
	assert.True(t, e.Balanced)
	assert.True(t, e.Conforms)

	require.NotNil(t, e.Validation)
	assert.Equal(t, 100, e.Validation.Score)
	assert.Equal(t, model.RiskVeryLow, e.Validation.Risk)

	stored, err := f.svc.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Number, stored.Number)

	assert.Equal(t, []string{auditlog.ActionCreate}, f.audit.actions())
	assert.Contains(t, f.audit.entries[0].Details, "score=100")
	assert.True(t, f.hasLog(logrus.DebugLevel, "entry created"))
}

func TestCreate_Numbering(t *testing.T) {
	f := newFixture(t)
	first := f.create(t, purchaseParams())
	second := f.create(t, purchaseParams())

	sale := purchaseParams()
	sale.Journal = "VTE"
	third := f.create(t, sale)

	assert.Equal(t, "ACH-2025-000001", first.Number)
	assert.Equal(t, "ACH-2025-000002", second.Number)
	assert.Equal(t, "VTE-2025-000001", third.Number)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreate_NumberFormatFromConfig(t *testing.T) {
	f := newFixture(t)
	f.svc.cfg.Numbering.Format = "SIMPLE"
	e := f.create(t, purchaseParams())
	assert.Equal(t, "000001", e.Number)
}

func TestCreate_UnknownJournal(t *testing.T) {
	f := newFixture(t)
	p := purchaseParams()
	p.Journal = "XXX"
	_, err := f.svc.Create(p)
	assert.ErrorIs(t, err, ErrUnknownJournal)
}

func TestCreate_InvalidParams(t *testing.T) {
	f := newFixture(t)
	p := purchaseParams()
	p.Journal = ""
	p.Lines[1].Account = ""

	_, err := f.svc.Create(p)
	var perr *ParamsError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "required", perr.Fields["Journal"])
	assert.Equal(t, "required", perr.Fields["Lines[1].Account"])
	assert.Contains(t, err.Error(), "Journal (required)")
	assert.Empty(t, f.audit.actions())
}

func TestCreate_UnbalancedIsStoredAsDraft(t *testing.T) {
	f := newFixture(t)
	p := purchaseParams()
	p.Lines[2].Credit = dec("1000000")

	e := f.create(t, p)
	assert.Equal(t, model.StatusDraft, e.Status)
	assert.False(t, e.Balanced)
	assert.False(t, e.Conforms)
	assert.Equal(t, 65, e.Validation.Score)
	assert.Equal(t, model.RiskMedium, e.Validation.Risk)
	assert.False(t, e.Validation.Postable())
}

func TestCreate_WithoutLines(t *testing.T) {
	f := newFixture(t)
	p := purchaseParams()
	p.Lines = nil

	e := f.create(t, p)
	assert.NotNil(t, e.Lines)
	assert.Empty(t, e.Lines)
	assert.Equal(t, 90, e.Validation.Score)
	assert.False(t, e.Conforms)
}

func TestCreate_CheckerFailure(t *testing.T) {
	f := newFixture(t)
	errBoom := errors.New("chart unavailable")
	f.accounts.err = errBoom

	_, err := f.svc.Create(purchaseParams())
	assert.ErrorIs(t, err, errBoom)
	assert.True(t, f.hasLog(logrus.ErrorLevel, "chart unavailable"))

	all, err := f.svc.List(Filter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreate_AuditFailureIsLogged(t *testing.T) {
	f := newFixture(t)
	f.audit.err = errors.New("disk full")

	_, err := f.svc.Create(purchaseParams())
	require.NoError(t, err)
	assert.True(t, f.hasLog(logrus.ErrorLevel, "disk full"))
}

func TestModify(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, purchaseParams())

	label := "ab"
	newDate := date(2025, 5, 2)
	got, err := f.svc.Modify(e.ID, ModifyParams{Label: &label, Date: &newDate})
	require.NoError(t, err)

	assert.Equal(t, "ab", got.Label)
	assert.Equal(t, "2025-05", got.Period)
	assert.Equal(t, e.Number, got.Number)
	assert.False(t, got.Conforms)
	assert.Equal(t, 90, got.Validation.Score)
	assert.Len(t, got.Lines, 3)
}

func TestModify_ReplacesLines(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, purchaseParams())

	got, err := f.svc.Modify(e.ID, ModifyParams{Lines: []LineParams{
		{Account: "521", Debit: dec("500")},
		{Account: "701", Credit: dec("500")},
	}})
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, 2, got.Lines[1].Order)
	assert.True(t, got.TotalDebit.Equal(dec("500")))
	assert.Equal(t, model.CategoryTreasury, got.Category)
}

func TestLineOperations(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, purchaseParams())

	got, err := f.svc.DeleteLine(e.ID, 2)
	require.NoError(t, err)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, 1, got.Lines[0].Order)
	assert.Equal(t, 2, got.Lines[1].Order)
	assert.Equal(t, "401", got.Lines[1].Account)
	assert.False(t, got.Balanced)
	assert.Equal(t, model.OutcomeBlocking, got.Validation.Outcomes[0].Outcome)

	got, err = f.svc.AddLine(e.ID, LineParams{Account: "445", Label: "TVA", Debit: dec("180000")})
	require.NoError(t, err)
	require.Len(t, got.Lines, 3)
	assert.Equal(t, 3, got.Lines[2].Order)
	assert.True(t, got.Balanced)
	assert.Equal(t, 100, got.Validation.Score)

	got, err = f.svc.EditLine(e.ID, 3, LineParams{Account: "999", Debit: dec("180000")})
	require.NoError(t, err)
	assert.Equal(t, "999", got.Lines[2].Account)
	assert.Equal(t, 3, got.Lines[2].Order)
	require.Len(t, got.Validation.Anomalies, 1)
	assert.Equal(t, model.AnomalyUnknownAccount, got.Validation.Anomalies[0].Kind())

	_, err = f.svc.EditLine(e.ID, 9, LineParams{Account: "601"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.DeleteLine(e.ID, 9)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{
		auditlog.ActionCreate,
		auditlog.ActionDeleteLine,
		auditlog.ActionAddLine,
		auditlog.ActionEditLine,
	}, f.audit.actions())
}

func TestAddLine_InvalidParams(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, purchaseParams())

	_, err := f.svc.AddLine(e.ID, LineParams{})
	var perr *ParamsError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "required", perr.Fields["Account"])
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, purchaseParams())

	require.NoError(t, f.svc.Delete(e.ID))
	_, err := f.svc.Get(e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(e.ID), ErrNotFound)
	assert.Equal(t, []string{auditlog.ActionCreate, auditlog.ActionDelete}, f.audit.actions())
}

func TestUnknownEntry(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Submit("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.AddLine("missing", LineParams{Account: "601"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Validate("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileBackedService(t *testing.T) {
	dir := t.TempDir()
	f := newFixtureWithRepo(t, NewFileRepositoryIn(dir, time.UTC))
	e := f.create(t, purchaseParams())

	reopened := newFixtureWithRepo(t, NewFileRepositoryIn(dir, time.UTC))
	stored, err := reopened.svc.Get(e.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Validation)
	assert.Equal(t, e.Number, stored.Number)
	assert.True(t, stored.Balanced)

	validated, err := reopened.svc.Validate(e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusValidated, validated.Status)

	second := reopened.create(t, purchaseParams())
	assert.Equal(t, "ACH-2025-000002", second.Number)
}

func TestRevalidate(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, purchaseParams())
	delete(f.accounts.codes, "445")

	got, err := f.svc.Revalidate(e.ID)
	require.NoError(t, err)
	require.Len(t, got.Validation.Anomalies, 1)
	assert.Equal(t, "445", got.Validation.Anomalies[0].Detail.Detected())
}

func TestFind(t *testing.T) {
	f := newFixture(t)
	e := f.create(t, purchaseParams())

	byID, err := f.svc.Find(e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Number, byID.Number)

	byNumber, err := f.svc.Find("ACH-2025-000001")
	require.NoError(t, err)
	assert.Equal(t, e.ID, byNumber.ID)

	_, err = f.svc.Find("ACH-2025-000099")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInspect(t *testing.T) {
	root := t.TempDir()
	e := newFixtureWithRepo(t, NewFileRepositoryIn(root, time.UTC)).create(t, purchaseParams())

	f := newFixtureWithRepo(t, NewFileRepositoryIn(root, time.UTC))
	got, err := f.svc.Inspect(e.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Validation)
	assert.Equal(t, 100, got.Validation.Score)

	stored, err := f.svc.Get(e.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Validation)
	assert.Empty(t, f.audit.actions())
}

func TestDatesFollowClockZone(t *testing.T) {
	jst := time.FixedZone("JST", 9*3600)
	clock := func() time.Time { return time.Date(2026, 10, 16, 2, 0, 0, 0, jst) }
	root := t.TempDir()
	open := func() *Service {
		return NewService(NewFileRepositoryIn(root, jst), newMockAccounts(defaultAccounts...), Options{
			Config: config.Default("Test SARL", "CI"),
			Now:    clock,
		})
	}

	today := purchaseParams()
	today.Date = clock()
	// Importers hand over calendar days parsed at UTC midnight.
	imported := purchaseParams()
	imported.Date = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	for name, p := range map[string]CreateParams{"today": today, "utc calendar day": imported} {
		t.Run(name, func(t *testing.T) {
			e, err := open().Create(p)
			require.NoError(t, err)
			assert.Equal(t, 100, e.Validation.Score)
			assert.True(t, e.Date.Equal(time.Date(2026, 10, 16, 0, 0, 0, 0, jst)))

			got, err := open().Revalidate(e.ID)
			require.NoError(t, err)
			assert.Equal(t, 100, got.Validation.Score)
			assert.True(t, e.Date.Equal(got.Date), "stored %s, reloaded %s", e.Date, got.Date)
			assert.Equal(t, e.Validation.Outcomes, got.Validation.Outcomes)
		})
	}
}
