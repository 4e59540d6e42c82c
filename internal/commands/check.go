package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ecompta-dev/ecompta/internal/accounts"
	"github.com/ecompta-dev/ecompta/internal/model"
	"github.com/ecompta-dev/ecompta/internal/report"
	"github.com/ecompta-dev/ecompta/internal/validation"
)

// checkFile is the YAML shape read by `ecompta check`.
type checkFile struct {
	Number    string      `yaml:"number"`
	Date      string      `yaml:"date"`
	Journal   string      `yaml:"journal"`
	Label     string      `yaml:"label"`
	Reference string      `yaml:"reference"`
	Lines     []checkLine `yaml:"lines"`
}

type checkLine struct {
	Account string `yaml:"account"`
	Label   string `yaml:"label"`
	Debit   string `yaml:"debit"`
	Credit  string `yaml:"credit"`
}

// ErrNotPostable is returned by `check --strict` for an entry the posting
// gate would refuse.
var ErrNotPostable = errors.New("entry would be refused at validation")

func newCheckCommand() *cobra.Command {
	var asJSON, strict bool
	var chart string

	cmd := &cobra.Command{
		Use:   "check <entry.yaml>",
		Short: "Validate and score an entry file without recording it",
		Long: "Runs the validation engine on an entry described in YAML (\"-\" reads stdin).\n" +
			"Accounts come from the books at --dir when present, otherwise from the default chart.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := readCheckFile(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			checker, err := checkAccounts(cmd, chart)
			if err != nil {
				return err
			}

			res, err := validation.Validate(e, checker)
			if err != nil {
				return err
			}
			e.Category = model.Categorize(e.Lines)

			if asJSON {
				if err := report.JSON(cmd.OutOrStdout(), e, res); err != nil {
					return err
				}
			} else {
				printer(cmd).Result(e, res)
			}
			if strict && !res.Postable() {
				return ErrNotPostable
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when the entry would not pass validation")
	cmd.Flags().StringVar(&chart, "chart", accounts.ChartStandard, "default chart used outside a books directory")

	return cmd
}

func readCheckFile(stdin io.Reader, path string) (*model.Entry, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading entry: %w", err)
	}

	var f checkFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing entry: %w", err)
	}

	date, err := parseDate(f.Date)
	if err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = today()
	}

	e := &model.Entry{
		Number:    f.Number,
		Date:      date,
		Journal:   f.Journal,
		Label:     f.Label,
		Reference: f.Reference,
		Lines:     make([]model.Line, 0, len(f.Lines)),
	}
	for i, l := range f.Lines {
		debit, err := parseAmount(l.Debit)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		credit, err := parseAmount(l.Credit)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		e.Lines = append(e.Lines, model.Line{
			Order:   i + 1,
			Account: l.Account,
			Label:   l.Label,
			Debit:   debit,
			Credit:  credit,
		})
	}
	return e, nil
}

func checkAccounts(cmd *cobra.Command, chart string) (validation.AccountChecker, error) {
	root, err := booksDir(cmd)
	if err != nil {
		return nil, err
	}
	svc, err := accounts.Load(root)
	if err == nil {
		return svc, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if chart != accounts.ChartMinimal && chart != accounts.ChartStandard {
		return nil, fmt.Errorf("unknown chart %q", chart)
	}
	return accounts.NewService(accounts.DefaultChart(chart)), nil
}
