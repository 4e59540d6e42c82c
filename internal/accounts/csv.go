package accounts

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ecompta-dev/ecompta/internal/model"
)

// Header is the column order written by WriteAccounts.
var Header = []string{"account_code", "account_name", "account_type", "parent_code", "description"}

// columnAliases maps accepted header names to the canonical column. Charts
// exported by other SYSCOHADA tools usually carry French headers.
var columnAliases = map[string]string{
	"account_code": "account_code",
	"code":         "account_code",
	"compte":       "account_code",
	"numero":       "account_code",
	"account_name": "account_name",
	"name":         "account_name",
	"intitule":     "account_name",
	"libelle":      "account_name",
	"account_type": "account_type",
	"type":         "account_type",
	"nature":       "account_type",
	"parent_code":  "parent_code",
	"parent":       "parent_code",
	"description":  "description",
}

// columns holds the position of each canonical column, -1 when absent.
type columns map[string]int

func (c columns) get(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func readHeader(record []string) (columns, error) {
	cols := make(columns, len(record))
	for i, h := range record {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canon, ok := columnAliases[h]; ok {
			if _, dup := cols[canon]; !dup {
				cols[canon] = i
			}
		}
	}
	for _, required := range []string{"account_code", "account_name"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %s column", required)
		}
	}
	return cols, nil
}

// ReadAccounts reads a chart of accounts. Columns are located by header name,
// so charts with extra or reordered columns load as long as they carry a code
// and a name column.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}
	cols, err := readHeader(head)
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	var accounts []model.Account
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading accounts CSV: %w", err)
		}
		acct, err := cols.account(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes chart-of-accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a row in Header order.
func MarshalAccount(acct model.Account) []string {
	return []string{acct.Code, acct.Name, string(acct.Type), acct.ParentCode, acct.Description}
}

// UnmarshalAccount converts a row in Header order to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != len(Header) {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", len(Header), len(record))
	}
	return columns{
		"account_code": 0,
		"account_name": 1,
		"account_type": 2,
		"parent_code":  3,
		"description":  4,
	}.account(record)
}

// account builds an Account from a row. Codes must be non-empty digit
// strings; SYSCOHADA class conformity is left to the validation rules. A
// missing type is derived from the account class.
func (c columns) account(record []string) (model.Account, error) {
	code := c.get(record, "account_code")
	if !isDigits(code) {
		return model.Account{}, fmt.Errorf("parsing account_code %q: not a number", code)
	}
	parent := c.get(record, "parent_code")
	if parent != "" && !isDigits(parent) {
		return model.Account{}, fmt.Errorf("parsing parent_code %q: not a number", parent)
	}

	typ := model.AccountType(strings.ToLower(c.get(record, "account_type")))
	if typ == "" {
		typ = TypeForClass(model.AccountClass(code))
	}
	return model.Account{
		Code:        code,
		Name:        c.get(record, "account_name"),
		Type:        typ,
		ParentCode:  parent,
		Description: c.get(record, "description"),
	}, nil
}

// TypeForClass is the usual nature of a SYSCOHADA class. Class 4 (third
// parties) holds both sides and defaults to liability.
func TypeForClass(class int) model.AccountType {
	switch class {
	case 1:
		return model.AccountTypeEquity
	case 2, 3, 5:
		return model.AccountTypeAsset
	case 4:
		return model.AccountTypeLiability
	case 6, 8:
		return model.AccountTypeExpense
	case 7:
		return model.AccountTypeRevenue
	}
	return ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
