package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ecompta-dev/ecompta/internal/auditlog"
	"github.com/ecompta-dev/ecompta/internal/journal"
	"github.com/ecompta-dev/ecompta/internal/model"
	"github.com/ecompta-dev/ecompta/internal/report"
)

func newEntryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Record and manage journal entries",
	}
	cmd.AddCommand(
		newEntryAddCommand(),
		newEntryEditCommand(),
		newEntryShowCommand(),
		newEntryListCommand(),
		newEntryRemoveCommand(),
		newEntryHistoryCommand(),
		newEntryLineCommand(),
		newEntryReverseCommand(),
		newEntryDuplicateCommand(),
	)
	cmd.AddCommand(newStatusCommands()...)
	return cmd
}

func parseLines(specs []string) ([]journal.LineParams, error) {
	lines := make([]journal.LineParams, 0, len(specs))
	for _, s := range specs {
		lp, err := parseLine(s)
		if err != nil {
			return nil, err
		}
		lines = append(lines, lp)
	}
	return lines, nil
}

func newEntryAddCommand() *cobra.Command {
	var date, journalCode, entryType, label, reference, piece string
	var lines []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new draft entry",
		Example: `  ecompta entry add --journal ACH --label "Achat marchandises" \
    --line 601,1000000,0 --line 445,180000,0 --line 401,0,1180000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBooks(cmd)
			if err != nil {
				return err
			}
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			if d.IsZero() {
				d = today()
			}
			lps, err := parseLines(lines)
			if err != nil {
				return err
			}

			e, err := b.journal.Create(journal.CreateParams{
				Date:      d,
				Journal:   journalCode,
				Type:      model.EntryType(entryType),
				Label:     label,
				Reference: reference,
				Piece:     piece,
				Lines:     lps,
			})
			if err != nil {
				return err
			}
			p := printer(cmd)
			p.Success("created %s (%s)", e.Number, e.ID)
			p.Result(e, e.Validation)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "entry date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&journalCode, "journal", "", "journal code (required)")
	_ = cmd.MarkFlagRequired("journal")
	cmd.Flags().StringVar(&entryType, "type", "", "entry type (default standard)")
	cmd.Flags().StringVar(&label, "label", "", "entry label")
	cmd.Flags().StringVar(&reference, "reference", "", "external reference, e.g. invoice number")
	cmd.Flags().StringVar(&piece, "piece", "", "supporting document number")
	cmd.Flags().StringArrayVar(&lines, "line", nil, "line as ACCOUNT,DEBIT,CREDIT[,LABEL] (repeatable)")

	return cmd
}

func newEntryEditCommand() *cobra.Command {
	var date, entryType, label, reference, piece string
	var lines []string

	cmd := &cobra.Command{
		Use:   "edit <entry>",
		Short: "Change header fields of a draft or pending entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBooks(cmd)
			if err != nil {
				return err
			}
			e, err := b.journal.Find(args[0])
			if err != nil {
				return err
			}

			var mp journal.ModifyParams
			flags := cmd.Flags()
			if flags.Changed("date") {
				d, err := parseDate(date)
				if err != nil {
					return err
				}
				mp.Date = &d
			}
			if flags.Changed("type") {
				t := model.EntryType(entryType)
				mp.Type = &t
			}
			if flags.Changed("label") {
				mp.Label = &label
			}
			if flags.Changed("reference") {
				mp.Reference = &reference
			}
			if flags.Changed("piece") {
				mp.Piece = &piece
			}
			if flags.Changed("line") {
				if mp.Lines, err = parseLines(lines); err != nil {
					return err
				}
			}

			e, err = b.journal.Modify(e.ID, mp)
			if err != nil {
				return err
			}
			p := printer(cmd)
			p.Success("updated %s", e.Number)
			p.Result(e, e.Validation)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "entry date YYYY-MM-DD")
	cmd.Flags().StringVar(&entryType, "type", "", "entry type")
	cmd.Flags().StringVar(&label, "label", "", "entry label")
	cmd.Flags().StringVar(&reference, "reference", "", "external reference")
	cmd.Flags().StringVar(&piece, "piece", "", "supporting document number")
	cmd.Flags().StringArrayVar(&lines, "line", nil, "replace all lines, ACCOUNT,DEBIT,CREDIT[,LABEL] (repeatable)")

	return cmd
}

func newEntryShowCommand() *cobra.Command {
	var asJSON, details bool

	cmd := &cobra.Command{
		Use:   "show <entry>",
		Short: "Show an entry with a fresh validation report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBooks(cmd)
			if err != nil {
				return err
			}
			found, err := b.journal.Find(args[0])
			if err != nil {
				return err
			}
			e, err := b.journal.Inspect(found.ID)
			if err != nil {
				return err
			}

			if asJSON {
				return report.JSON(cmd.OutOrStdout(), e, e.Validation)
			}
			p := printer(cmd)
			p.Entry(e)
			if details {
				fmt.Fprintln(cmd.OutOrStdout())
				p.Result(e, e.Validation)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the validation report as JSON")
	cmd.Flags().BoolVar(&details, "report", false, "include the full validation report")

	return cmd
}

func newEntryListCommand() *cobra.Command {
	var c journal.Criteria
	var status, from, to, minAmount, maxAmount string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List and search entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBooks(cmd)
			if err != nil {
				return err
			}
			c.Status = model.EntryStatus(status)
			if c.From, err = parseDate(from); err != nil {
				return err
			}
			if c.To, err = parseDate(to); err != nil {
				return err
			}
			if c.MinAmount, err = parseNullAmount(minAmount); err != nil {
				return err
			}
			if c.MaxAmount, err = parseNullAmount(maxAmount); err != nil {
				return err
			}

			entries, err := b.journal.Search(c)
			if err != nil {
				return err
			}
			printer(cmd).Entries(entries)
			return nil
		},
	}

	cmd.Flags().StringVar(&c.Text, "text", "", "search label, number, reference and line labels")
	cmd.Flags().StringVar(&c.Journal, "journal", "", "journal code")
	cmd.Flags().StringVar(&status, "status", "", "entry status")
	cmd.Flags().StringVar(&c.Reference, "reference", "", "exact reference")
	cmd.Flags().StringVar(&from, "from", "", "first date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date YYYY-MM-DD")
	cmd.Flags().StringVar(&minAmount, "min", "", "minimum total debit")
	cmd.Flags().StringVar(&maxAmount, "max", "", "maximum total debit")

	return cmd
}

func parseNullAmount(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := parseAmount(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func newEntryRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <entry>",
		Aliases: []string{"delete"},
		Short:   "Delete an entry that has not been posted",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBooks(cmd)
			if err != nil {
				return err
			}
			e, err := b.journal.Find(args[0])
			if err != nil {
				return err
			}
			if err := b.journal.Delete(e.ID); err != nil {
				return err
			}
			printer(cmd).Success("deleted %s", e.Number)
			return nil
		},
	}
}

func newEntryHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history <entry>",
		Short: "Show the audit trail of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBooks(cmd)
			if err != nil {
				return err
			}
			e, err := b.journal.Find(args[0])
			if err != nil {
				return err
			}
			rows, err := auditlog.History(b.root, e.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, r := range rows {
				fmt.Fprintf(out, "%s  %-8s %-14s %s\n", r.Timestamp.Format("2006-01-02 15:04:05"), r.User, r.Action, r.Details)
			}
			return nil
		},
	}
}

func newEntryLineCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "line",
		Short: "Add, edit or remove lines of a draft or pending entry",
	}

	add := &cobra.Command{
		Use:   "add <entry> <ACCOUNT,DEBIT,CREDIT[,LABEL]>",
		Short: "Append a line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineChange(cmd, args[0], func(svc *journal.Service, id string) (*model.Entry, error) {
				lp, err := parseLine(args[1])
				if err != nil {
					return nil, err
				}
				return svc.AddLine(id, lp)
			})
		},
	}

	edit := &cobra.Command{
		Use:   "edit <entry> <order> <ACCOUNT,DEBIT,CREDIT[,LABEL]>",
		Short: "Replace a line",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineChange(cmd, args[0], func(svc *journal.Service, id string) (*model.Entry, error) {
				order, err := strconv.Atoi(args[1])
				if err != nil {
					return nil, fmt.Errorf("invalid line number %q", args[1])
				}
				lp, err := parseLine(args[2])
				if err != nil {
					return nil, err
				}
				return svc.EditLine(id, order, lp)
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm <entry> <order>",
		Short: "Remove a line; later lines are renumbered",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineChange(cmd, args[0], func(svc *journal.Service, id string) (*model.Entry, error) {
				order, err := strconv.Atoi(args[1])
				if err != nil {
					return nil, fmt.Errorf("invalid line number %q", args[1])
				}
				return svc.DeleteLine(id, order)
			})
		},
	}

	cmd.AddCommand(add, edit, rm)
	return cmd
}

func runLineChange(cmd *cobra.Command, ref string, change func(*journal.Service, string) (*model.Entry, error)) error {
	b, err := openBooks(cmd)
	if err != nil {
		return err
	}
	e, err := b.journal.Find(ref)
	if err != nil {
		return err
	}
	e, err = change(b.journal, e.ID)
	if err != nil {
		return err
	}
	p := printer(cmd)
	p.Entry(e)
	return nil
}

func newEntryReverseCommand() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "reverse <entry>",
		Short: "Reverse a posted entry with a counter-entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBooks(cmd)
			if err != nil {
				return err
			}
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			orig, err := b.journal.Find(args[0])
			if err != nil {
				return err
			}
			counter, err := b.journal.Reverse(orig.ID, d)
			if err != nil {
				return err
			}
			b.commit(fmt.Sprintf("reverse: %s by %s", orig.Number, counter.Number))
			printer(cmd).Success("reversed %s, counter-entry %s is a draft", orig.Number, counter.Number)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "counter-entry date YYYY-MM-DD (default today)")
	return cmd
}

func newEntryDuplicateCommand() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "duplicate <entry>",
		Short: "Copy an entry into a new draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBooks(cmd)
			if err != nil {
				return err
			}
			d, err := parseDate(date)
			if err != nil {
				return err
			}
			src, err := b.journal.Find(args[0])
			if err != nil {
				return err
			}
			dup, err := b.journal.Duplicate(src.ID, d)
			if err != nil {
				return err
			}
			printer(cmd).Success("duplicated %s as %s", src.Number, dup.Number)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date of the copy YYYY-MM-DD (default today)")
	return cmd
}

// statusCommand describes a plain workflow transition.
type statusCommand struct {
	use    string
	short  string
	done   string
	commit bool
	run    func(svc *journal.Service, id, reason string) (*model.Entry, error)
}

var statusCommands = []statusCommand{
	{use: "submit", short: "Submit a draft for review", done: "submitted",
		run: func(svc *journal.Service, id, _ string) (*model.Entry, error) { return svc.Submit(id) }},
	{use: "review", short: "Take a pending entry into review", done: "in review",
		run: func(svc *journal.Service, id, _ string) (*model.Entry, error) { return svc.Review(id) }},
	{use: "validate", short: "Validate an entry through the posting gate", done: "validated",
		run: func(svc *journal.Service, id, _ string) (*model.Entry, error) { return svc.Validate(id) }},
	{use: "reject", short: "Reject an entry under review", done: "rejected",
		run: func(svc *journal.Service, id, reason string) (*model.Entry, error) { return svc.Reject(id, reason) }},
	{use: "reopen", short: "Send a rejected or reviewed entry back to draft", done: "reopened",
		run: func(svc *journal.Service, id, _ string) (*model.Entry, error) { return svc.Reopen(id) }},
	{use: "post", short: "Post a validated entry to the ledger", done: "posted", commit: true,
		run: func(svc *journal.Service, id, _ string) (*model.Entry, error) { return svc.Post(id) }},
	{use: "archive", short: "Archive a posted entry", done: "archived", commit: true,
		run: func(svc *journal.Service, id, _ string) (*model.Entry, error) { return svc.Archive(id) }},
}

func newStatusCommands() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(statusCommands))
	for _, sc := range statusCommands {
		var reason string
		cmd := &cobra.Command{
			Use:   sc.use + " <entry>",
			Short: sc.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				b, err := openBooks(cmd)
				if err != nil {
					return err
				}
				e, err := b.journal.Find(args[0])
				if err != nil {
					return err
				}
				moved, err := sc.run(b.journal, e.ID, reason)
				var gerr *journal.GateError
				if errors.As(err, &gerr) {
					if inspected, ierr := b.journal.Inspect(e.ID); ierr == nil {
						printer(cmd).Result(inspected, inspected.Validation)
					}
				}
				if err != nil {
					return err
				}
				if sc.commit {
					b.commit(fmt.Sprintf("%s: %s", sc.use, moved.Number))
				}
				printer(cmd).Success("%s %s", moved.Number, sc.done)
				return nil
			},
		}
		if sc.use == "reject" {
			cmd.Flags().StringVar(&reason, "reason", "", "why the entry is rejected")
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}
