package commands

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/metarest/internal/cli/ui"
	"github.com/conduit-lang/metarest/internal/document"
	"github.com/conduit-lang/metarest/internal/metamodel"
	"github.com/conduit-lang/metarest/internal/schema"
	"github.com/conduit-lang/metarest/internal/watch"
)

// NewCatalogCommand creates the catalog command
func NewCatalogCommand(flags *globalFlags) *cobra.Command {
	var asJSON, watching bool

	cmd := &cobra.Command{
		Use:   "catalog [type]",
		Short: "Show the types and links derived from the schema",
		Long: `Show the catalog derived from the schema.

Without arguments every type and link is listed. With a type name the
attributes of that type are shown, inherited ones included. --json prints the
same document GET / serves.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			catalog, err := a.catalog(cmd.Context())
			if err != nil {
				return err
			}

			if err := printCatalog(cmd, catalog, args, asJSON, flags.noColor); err != nil && !watching {
				return err
			}
			if !watching {
				return nil
			}
			return watchCatalog(cmd, a, args, asJSON, flags.noColor)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog document as JSON")
	cmd.Flags().BoolVarP(&watching, "watch", "w", false, "print the catalog again whenever the schema file changes")
	return cmd
}

func printCatalog(cmd *cobra.Command, catalog *metamodel.Catalog, args []string, asJSON, noColor bool) error {
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(document.Catalog(catalog))
	}

	if len(args) == 1 {
		return describeType(cmd, catalog, args[0], noColor)
	}

	types := ui.NewTable(out, noColor, "TYPE", "KIND", "SUPERTYPE", "ID", "ATTRIBUTES")
	for _, t := range catalog.Types() {
		id := "-"
		if t.ID != nil {
			id = fmt.Sprintf("%s (%s)", t.ID.Name, t.IDKind)
		}
		super := "-"
		if t.Supertype != nil {
			super = t.Supertype.Name
		}
		types.AddRow(t.Name, t.Kind.String(), super, id, strconv.Itoa(len(t.Attributes())))
	}
	types.Render()

	edges := catalog.Edges()
	if len(edges) == 0 {
		return nil
	}
	fmt.Fprintln(out)
	links := ui.NewTable(out, noColor, "SOURCE", "TARGET", "LINK")
	for _, e := range edges {
		links.AddRow(e.Source, e.Target, string(e.Kind))
	}
	links.Render()
	return nil
}

// watchCatalog rebuilds and prints the catalog on every schema change until interrupted.
// Each rebuild reads the file afresh; a broken schema is reported and watching continues.
func watchCatalog(cmd *cobra.Command, a *app, args []string, asJSON, noColor bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := a.config.Schema
	rebuild := func([]string) error {
		provider, err := schema.NewFileProvider(path)
		if err != nil {
			return err
		}
		catalog, err := metamodel.NewIntrospector(provider).Catalog(ctx)
		if err != nil {
			fmt.Fprint(cmd.ErrOrStderr(), ui.FormatError(ui.ErrorOptions{
				Context: "schema",
				Problem: err.Error(),
				NoColor: noColor,
			}))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return printCatalog(cmd, catalog, args, asJSON, noColor)
	}

	watcher, err := watch.NewFileWatcher([]string{path}, watch.DefaultDelay, a.logger.Named("watch"), rebuild)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	fmt.Fprint(cmd.ErrOrStderr(), ui.Success(noColor, "watching %s (Ctrl+C to stop)", path))
	<-ctx.Done()
	return nil
}

func describeType(cmd *cobra.Command, catalog *metamodel.Catalog, name string, noColor bool) error {
	t, err := catalog.Lookup(name)
	if err != nil {
		return unknownTypeError(cmd, catalog, name, noColor)
	}

	out := cmd.OutOrStdout()
	color.New(color.FgCyan, color.Bold).Fprintf(out, "%s\n\n", t.Name)

	info := ui.NewKeyValueTable(out, noColor)
	info.AddRow("Kind", t.Kind.String())
	if t.IsEntity() {
		info.AddRow("Table", t.Table)
		info.AddRow("Identifier", fmt.Sprintf("%s (%s)", t.ID.Name, t.IDKind))
	}
	if t.Supertype != nil {
		info.AddRow("Extends", t.Supertype.Name)
	} else if t.DeclaredSupertype != "" {
		info.AddRow("Extends", t.DeclaredSupertype+" (untracked)")
	}
	info.Render()
	fmt.Fprintln(out)

	attrs := ui.NewTable(out, noColor, "ATTRIBUTE", "TYPE", "KIND", "NULLABLE", "DECLARED BY")
	for _, attr := range t.Attributes() {
		attrs.AddRow(attr.Name, attr.TypeLabel(), attr.Kind.String(), strconv.FormatBool(attr.Nullable), attr.Declarer.Name)
	}
	attrs.Render()
	return nil
}

// unknownTypeError prints did-you-mean suggestions and returns the lookup error
func unknownTypeError(cmd *cobra.Command, catalog *metamodel.Catalog, name string, noColor bool) error {
	fmt.Fprint(cmd.ErrOrStderr(), ui.FormatError(ui.ErrorOptions{
		Context:      "unknown type",
		Problem:      name,
		Suggestions:  ui.FindSimilar(name, catalog.Names()),
		HelpCommands: []string{"metarest catalog"},
		NoColor:      noColor,
	}))
	return fmt.Errorf("%w %s", metamodel.ErrUnknownType, name)
}
