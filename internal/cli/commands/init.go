package commands

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/metarest/internal/cli/config"
	"github.com/conduit-lang/metarest/internal/cli/ui"
)

// initAnswers are the values written by init
type initAnswers struct {
	Schema      string
	Driver      string
	DatabaseURL string
	Port        int
	APIPrefix   string
	CacheDriver string
}

func defaultAnswers() initAnswers {
	return initAnswers{
		Schema:      "schema.mrs",
		Driver:      "sqlite",
		DatabaseURL: "file:metarest.db?cache=shared",
		Port:        8080,
		CacheDriver: config.CacheMemory,
	}
}

// NewInitCommand creates the init command
func NewInitCommand(flags *globalFlags) *cobra.Command {
	var (
		useDefaults bool
		force       bool
		output      string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a metarest.yaml configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(output); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", output)
			}

			answers := defaultAnswers()
			if !useDefaults {
				if err := askInitQuestions(&answers); err != nil {
					return err
				}
			}

			data, err := renderConfig(answers)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			fmt.Fprint(cmd.OutOrStdout(), ui.Success(flags.noColor, "wrote %s", output))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&useDefaults, "yes", "y", false, "accept the defaults without prompting")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().StringVarP(&output, "output", "o", config.FileName+".yaml", "file to write")
	return cmd
}

func askInitQuestions(a *initAnswers) error {
	questions := []*survey.Question{
		{
			Name:     "Schema",
			Prompt:   &survey.Input{Message: "Schema file:", Default: a.Schema},
			Validate: survey.Required,
		},
		{
			Name: "Driver",
			Prompt: &survey.Select{
				Message: "Database driver:",
				Options: []string{"sqlite", "sqlite3", "pgx", "postgres"},
				Default: a.Driver,
			},
		},
		{
			Name:     "DatabaseURL",
			Prompt:   &survey.Input{Message: "Database URL:", Default: a.DatabaseURL},
			Validate: survey.Required,
		},
		{
			Name:   "Port",
			Prompt: &survey.Input{Message: "HTTP port:", Default: fmt.Sprint(a.Port)},
		},
		{
			Name:   "APIPrefix",
			Prompt: &survey.Input{Message: "API prefix (empty for none):", Default: a.APIPrefix},
		},
		{
			Name: "CacheDriver",
			Prompt: &survey.Select{
				Message: "Catalog cache:",
				Options: []string{config.CacheMemory, config.CacheRedis, config.CacheNone},
				Default: a.CacheDriver,
			},
		},
	}
	return survey.Ask(questions, a)
}

// renderConfig produces the YAML document for answers
func renderConfig(a initAnswers) ([]byte, error) {
	doc := map[string]interface{}{
		"schema": a.Schema,
		"database": map[string]interface{}{
			"driver": a.Driver,
			"url":    a.DatabaseURL,
		},
		"server": map[string]interface{}{
			"host":       "localhost",
			"port":       a.Port,
			"api_prefix": a.APIPrefix,
		},
		"cache": map[string]interface{}{
			"driver": a.CacheDriver,
		},
		"log": map[string]interface{}{
			"level":  "info",
			"format": "json",
		},
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
