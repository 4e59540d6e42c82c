package commands

import (
	"github.com/spf13/cobra"

	"github.com/ecompta-dev/ecompta/internal/journal"
)

func newTemplateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Create entries from reusable templates",
	}
	cmd.AddCommand(newTemplateListCommand(), newTemplateUseCommand(), newTemplateSaveCommand())
	return cmd
}

func newTemplateListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List entry templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBooks(cmd)
			if err != nil {
				return err
			}
			templates, err := b.journal.Templates()
			if err != nil {
				return err
			}
			printer(cmd).Templates(templates)
			return nil
		},
	}
}

func newTemplateUseCommand() *cobra.Command {
	var date, journalCode, reference, piece string
	var vars []string

	cmd := &cobra.Command{
		Use:     "use <template>",
		Short:   "Create a draft entry from a template",
		Example: `  ecompta template use purchase-vat --var ht=1000000 --var supplier=SODECI --reference FAC-118`,
		Args:    cobra.ExactArgs(1),
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
			values, err := parseVars(vars)
			if err != nil {
				return err
			}

			e, err := b.journal.CreateFromTemplate(args[0], journal.TemplateParams{
				Date:      d,
				Journal:   journalCode,
				Reference: reference,
				Piece:     piece,
				Vars:      values,
			})
			if err != nil {
				return err
			}
			p := printer(cmd)
			p.Success("created %s from %s", e.Number, args[0])
			p.Result(e, e.Validation)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "entry date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&journalCode, "journal", "", "override the template journal")
	cmd.Flags().StringVar(&reference, "reference", "", "external reference")
	cmd.Flags().StringVar(&piece, "piece", "", "supporting document number")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "template variable name=value (repeatable)")

	return cmd
}

func newTemplateSaveCommand() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "save <entry> <name>",
		Short: "Save an entry's lines as a template with fixed amounts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBooks(cmd)
			if err != nil {
				return err
			}
			e, err := b.journal.Find(args[0])
			if err != nil {
				return err
			}
			t, err := b.journal.SaveAsTemplate(e.ID, args[1], description)
			if err != nil {
				return err
			}
			printer(cmd).Success("saved template %s (%d lines)", t.Name, len(t.Lines))
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "template description")
	return cmd
}
