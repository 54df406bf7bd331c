// Package commands implements the metarest command line.
package commands

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configPath string
	noColor    bool
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "metarest",
		Short: "Serve a schema's entities as navigable JSON resources",
		Long: color.CyanString(`metarest - metamodel-driven read-only REST

metarest reads a declarative schema, maps its entities onto database tables
and serves them over HTTP:

  GET /                          catalog of types and their links
  GET /{type}                    every instance of a type
  GET /{type}/{id}               one instance
  GET /{type}/{id}/{field}/...   the value reached by following fields`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (default ./metarest.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewServeCommand(flags))
	rootCmd.AddCommand(NewCatalogCommand(flags))
	rootCmd.AddCommand(NewGetCommand(flags))
	rootCmd.AddCommand(NewDDLCommand(flags))
	rootCmd.AddCommand(NewSeedCommand(flags))
	rootCmd.AddCommand(NewInitCommand(flags))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)

			titleColor.Fprint(out, "metarest version: ")
			cmd.Println(Version)
			titleColor.Fprint(out, "Git commit: ")
			cmd.Println(GitCommit)
			titleColor.Fprint(out, "Build date: ")
			cmd.Println(BuildDate)
			titleColor.Fprint(out, "Go version: ")
			cmd.Println(goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
