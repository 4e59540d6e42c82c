package commands

import (
	"github.com/spf13/cobra"
)

func newStatsCommand() *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize entries by journal and type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBooks(cmd)
			if err != nil {
				return err
			}
			st, err := b.journal.Statistics(period)
			if err != nil {
				return err
			}
			printer(cmd).Stats(st)
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "accounting period YYYY-MM (default all)")
	return cmd
}
