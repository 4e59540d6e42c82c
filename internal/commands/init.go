package commands

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ecompta-dev/ecompta/internal/accounts"
	"github.com/ecompta-dev/ecompta/internal/config"
	"github.com/ecompta-dev/ecompta/internal/gitops"
	"github.com/ecompta-dev/ecompta/internal/journal"
	"github.com/ecompta-dev/ecompta/internal/report"
)

type initOptions struct {
	name    string
	country string
	chart   string
	format  string
	noGit   bool
}

func newInitCommand() *cobra.Command {
	var opts initOptions

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new books directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(printer(cmd), absDir, opts)
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&opts.country, "country", "CI", "OHADA member state code")
	cmd.Flags().StringVar(&opts.chart, "chart", accounts.ChartMinimal, "default chart of accounts: minimal or standard")
	cmd.Flags().StringVar(&opts.format, "numbering", "", "entry number format (AUTOMATIC, JOURNAL_MONTH, SIMPLE, CUSTOM or a template)")
	cmd.Flags().BoolVar(&opts.noGit, "no-git", false, "do not version the books with git")

	return cmd
}

func runInit(p *report.Printer, dir string, opts initOptions) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", config.FileName, err)
	}
	if opts.chart != accounts.ChartMinimal && opts.chart != accounts.ChartStandard {
		return fmt.Errorf("unknown chart %q: want %s or %s", opts.chart, accounts.ChartMinimal, accounts.ChartStandard)
	}

	dirs := []string{
		"accounts",
		"journal",
		"templates",
		"logs",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	cfg := config.Default(opts.name, opts.country)
	cfg.Business.Chart = opts.chart
	if opts.format != "" {
		cfg.Numbering.Format = opts.format
	}
	if opts.noGit {
		cfg.Git.AutoCommit = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := accounts.NewService(accounts.DefaultChart(opts.chart)).Save(dir); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	if err := journal.NewYAMLTemplateStore(dir).Save(journal.DefaultTemplates()); err != nil {
		return fmt.Errorf("writing templates: %w", err)
	}

	var buf bytes.Buffer
	if err := journal.WriteEntries(&buf, nil); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, journal.EntriesPath), buf.Bytes()); err != nil {
		return fmt.Errorf("writing journal: %w", err)
	}

	if err := writeFile(filepath.Join(dir, "import", ".gitkeep"), nil); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	p.Success("Initialized books for %s at %s", opts.name, dir)

	if opts.noGit || !gitops.Available() {
		return nil
	}
	if err := gitops.Init(dir); err != nil {
		return err
	}
	author := gitops.Author{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}
	hash, err := gitops.CommitAll(dir, "init: "+opts.name, author)
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}
	p.Info("git repository created (%s)", hash)
	return nil
}
