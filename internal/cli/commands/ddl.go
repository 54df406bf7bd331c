package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metarest/internal/cli/ui"
	"github.com/conduit-lang/metarest/internal/store"
)

// NewDDLCommand creates the ddl command
func NewDDLCommand(flags *globalFlags) *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "ddl",
		Short: "Print or apply the CREATE TABLE statements for the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			catalog, err := a.catalog(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !apply {
				dialect, err := store.DialectFor(a.config.Database.Driver)
				if err != nil {
					return err
				}
				for _, stmt := range store.DDL(catalog, dialect) {
					fmt.Fprintln(out, stmt)
					fmt.Fprintln(out)
				}
				return nil
			}

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			if err := s.Migrate(ctx, catalog); err != nil {
				return err
			}
			fmt.Fprint(out, ui.Success(flags.noColor, "created tables for %d entities", len(catalog.Entities())))
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "execute the statements against the configured database")
	return cmd
}
