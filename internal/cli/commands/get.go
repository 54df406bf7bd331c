package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/metarest/internal/document"
	"github.com/conduit-lang/metarest/internal/navigation"
)

// NewGetCommand creates the get command
func NewGetCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Resolve a path against the database and print the document",
		Long: `Resolve a path the way the server does and print the resulting document.

Examples:
  metarest get Movie/7
  metarest get /Movie/7/director/name
  metarest get Person`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			path, err := navigation.Parse(args[0])
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
			sess, err := s.Session(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			nav := navigation.NewNavigator(navigation.Config{MaxDepth: a.config.Navigation.MaxDepth})
			result, err := nav.Resolve(ctx, &navigation.Request{
				Catalog: catalog,
				Data:    sess,
				Logger:  a.logger,
			}, path)
			if err != nil {
				if errors.Is(err, navigation.ErrUnknownType) {
					return unknownTypeError(cmd, catalog, path.TypeName, flags.noColor)
				}
				return err
			}

			doc, err := document.Resource(result.Value)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("encode document: %w", err)
			}
			return nil
		},
	}
	return cmd
}
