package accounts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ecompta-dev/ecompta/internal/model"
)

// ChartPath is the chart file location relative to the books root.
const ChartPath = "accounts/chart-of-accounts.csv"

// Service provides in-memory lookup over the chart of accounts. It satisfies
// validation.AccountChecker.
type Service struct {
	accounts []model.Account
	byCode   map[string]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	byCode := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byCode[a.Code] = a
	}
	return &Service{accounts: accounts, byCode: byCode}
}

// Load reads chart-of-accounts.csv from a books root and returns a Service.
func Load(root string) (*Service, error) {
	f, err := os.Open(filepath.Join(root, ChartPath))
	if err != nil {
		return nil, fmt.Errorf("opening chart of accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading chart of accounts: %w", err)
	}
	return NewService(accts), nil
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by code.
func (s *Service) Get(code string) (model.Account, bool) {
	a, ok := s.byCode[code]
	return a, ok
}

// Exists reports whether an account code exists. The in-memory chart never
// fails a lookup.
func (s *Service) Exists(code string) (bool, error) {
	_, ok := s.byCode[code]
	return ok, nil
}

// Add registers a new account.
func (s *Service) Add(a model.Account) error {
	if !isDigits(a.Code) {
		return fmt.Errorf("invalid account code %q: not a number", a.Code)
	}
	if _, ok := s.byCode[a.Code]; ok {
		return fmt.Errorf("account %s already exists", a.Code)
	}
	if a.ParentCode != "" {
		if _, ok := s.byCode[a.ParentCode]; !ok {
			return fmt.Errorf("account %s: unknown parent %s", a.Code, a.ParentCode)
		}
	}
	s.accounts = append(s.accounts, a)
	sort.SliceStable(s.accounts, func(i, j int) bool { return s.accounts[i].Code < s.accounts[j].Code })
	s.byCode[a.Code] = a
	return nil
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// ByClass returns all accounts of a SYSCOHADA class (1..9).
func (s *Service) ByClass(class int) []model.Account {
	var result []model.Account
	for _, a := range s.accounts {
		if a.Class() == class {
			result = append(result, a)
		}
	}
	return result
}

// Save writes the chart of accounts to accounts/chart-of-accounts.csv.
func (s *Service) Save(root string) error {
	path := filepath.Join(root, ChartPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart of accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}
	return nil
}
