package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ecompta-dev/ecompta/internal/importer"
)

func newImportCommand() *cobra.Command {
	var format string
	var keep bool

	cmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import entries from journal exports",
		Long: "Creates draft entries from exported journal files. Without arguments every\n" +
			"file in import/ is imported and moved to import/processed/.",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBooks(cmd)
			if err != nil {
				return err
			}
			parser := importer.DefaultRegistry().Get(format)
			if parser == nil {
				return fmt.Errorf("unknown import format %q", format)
			}

			paths := args
			scanned := len(args) == 0
			if scanned {
				files, err := importer.Scan(b.root)
				if err != nil {
					return err
				}
				for _, f := range files {
					paths = append(paths, f.Path)
				}
			}

			p := printer(cmd)
			if len(paths) == 0 {
				p.Info("nothing to import")
				return nil
			}

			created := 0
			for _, path := range paths {
				res, err := importer.ImportFile(b.journal, parser, path)
				if err != nil {
					return err
				}
				for _, f := range res.Failed {
					p.Error(fmt.Errorf("%s piece %s: %w", res.File, f.Piece, f.Err))
				}
				p.Success("%s: %d entries created, %d failed", res.File, len(res.Created), len(res.Failed))
				created += len(res.Created)

				if scanned && !keep {
					if err := importer.MarkProcessed(b.root, filepath.Base(path)); err != nil {
						return err
					}
				}
			}
			if created > 0 {
				b.commit(fmt.Sprintf("import: %d entries", created))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "lines", "file format: lines or fec")
	cmd.Flags().BoolVar(&keep, "keep", false, "leave scanned files in import/")
	return cmd
}
