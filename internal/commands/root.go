package commands

import (
	"github.com/spf13/cobra"

	"github.com/ecompta-dev/ecompta/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "ecompta",
		Short:   "SYSCOHADA bookkeeping with validated, risk-scored journal entries",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("dir", ".", "books directory")

	rootCmd.AddCommand(
		newInitCommand(),
		newCheckCommand(),
		newEntryCommand(),
		newTemplateCommand(),
		newAccountCommand(),
		newImportCommand(),
		newStatsCommand(),
	)

	return rootCmd
}
