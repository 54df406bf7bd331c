package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metarest/internal/cli/ui"
	"github.com/conduit-lang/metarest/internal/store"
)

// NewSeedCommand creates the seed command
func NewSeedCommand(flags *globalFlags) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "seed <fixtures.yaml>",
		Short: "Load YAML fixtures into the database",
		Long: `Load YAML fixtures keyed by type name. Association values are identifiers
and collection values are identifier lists. All rows are inserted in one
transaction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open fixtures: %w", err)
			}
			defer f.Close()

			fixtures, err := store.LoadFixtures(f)
			if err != nil {
				return err
			}

			catalog, err := a.catalog(ctx)
			if err != nil {
				return err
			}

			s, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			if migrate {
				if err := s.Migrate(ctx, catalog); err != nil {
					return err
				}
			}

			counts, err := s.Seed(ctx, catalog, fixtures)
			if err != nil {
				if store.IsUniqueViolation(err) {
					fmt.Fprint(cmd.ErrOrStderr(), ui.Warning(flags.noColor, "fixtures collide with existing rows; nothing was inserted"))
				}
				return err
			}

			out := cmd.OutOrStdout()
			table := ui.NewTable(out, flags.noColor, "TYPE", "ROWS")
			total := 0
			for _, t := range catalog.Entities() {
				if n, ok := counts[t.Name]; ok {
					table.AddRow(t.Name, strconv.Itoa(n))
					total += n
				}
			}
			table.Render()
			fmt.Fprint(out, ui.Success(flags.noColor, "seeded %d rows", total))
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "create missing tables first")
	return cmd
}
