package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ecompta-dev/ecompta/internal/accounts"
	"github.com/ecompta-dev/ecompta/internal/auditlog"
	"github.com/ecompta-dev/ecompta/internal/config"
	"github.com/ecompta-dev/ecompta/internal/gitops"
	"github.com/ecompta-dev/ecompta/internal/journal"
	"github.com/ecompta-dev/ecompta/internal/logging"
	"github.com/ecompta-dev/ecompta/internal/report"
)

const dateLayout = "2006-01-02"

// books is an opened books directory.
type books struct {
	root     string
	cfg      *config.Config
	accounts *accounts.Service
	journal  *journal.Service
	log      *logrus.Logger
}

// openBooks loads the books rooted at the --dir flag. Logs go to stderr.
func openBooks(cmd *cobra.Command) (*books, error) {
	root, err := booksDir(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(filepath.Join(root, config.FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s is not an ecompta books directory, run ecompta init first", root)
		}
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", config.FileName, err)
	}

	logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	accts, err := accounts.Load(root)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}

	svc := journal.NewService(journal.NewFileRepository(root), accts, journal.Options{
		Config:    cfg,
		Logger:    logger,
		Audit:     auditlog.New(root),
		Templates: journal.NewYAMLTemplateStore(root),
	})
	return &books{root: root, cfg: cfg, accounts: accts, journal: svc, log: logger}, nil
}

func booksDir(cmd *cobra.Command) (string, error) {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	return abs, nil
}

// commit records the books in git when auto-commit is on and the books are
// a repository. Failures are logged, never returned.
func (b *books) commit(message string) {
	if !b.cfg.Git.AutoCommit || !gitops.IsRepo(b.root) {
		return
	}
	author := gitops.Author{Name: b.cfg.Git.AuthorName, Email: b.cfg.Git.AuthorEmail}
	hash, err := gitops.CommitAll(b.root, message, author)
	if errors.Is(err, gitops.ErrNothingToCommit) {
		return
	}
	if err != nil {
		logging.LogError(b.log, "commands", "commit", "auto-commit", message, err)
		return
	}
	b.log.WithField("commit", hash).Debug("books committed")
}

func printer(cmd *cobra.Command) *report.Printer {
	return report.New(cmd.OutOrStdout())
}

// parseDate parses YYYY-MM-DD; empty means zero (today for the service).
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

// parseLine reads "ACCOUNT,DEBIT,CREDIT[,LABEL]".
func parseLine(s string) (journal.LineParams, error) {
	parts := strings.SplitN(s, ",", 4)
	if len(parts) < 3 {
		return journal.LineParams{}, fmt.Errorf("invalid line %q: want ACCOUNT,DEBIT,CREDIT[,LABEL]", s)
	}
	debit, err := parseAmount(parts[1])
	if err != nil {
		return journal.LineParams{}, err
	}
	credit, err := parseAmount(parts[2])
	if err != nil {
		return journal.LineParams{}, err
	}
	lp := journal.LineParams{Account: strings.TrimSpace(parts[0]), Debit: debit, Credit: credit}
	if len(parts) == 4 {
		lp.Label = strings.TrimSpace(parts[3])
	}
	return lp, nil
}

// parseVars reads repeated name=value flags.
func parseVars(pairs []string) (map[string]string, error) {
	vars := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid variable %q: want name=value", p)
		}
		vars[k] = v
	}
	return vars, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}

func today() time.Time {
	y, m, d := time.Now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}
