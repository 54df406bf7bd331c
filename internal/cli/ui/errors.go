package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// ErrorOptions describes a CLI failure
type ErrorOptions struct {
	Context      string   // short upper-cased label, e.g. "unknown type"
	Problem      string   // what went wrong
	Suggestions  []string // did-you-mean candidates
	HelpCommands []string // commands worth running next
	NoColor      bool
}

// FormatError renders a failure with suggestions and follow-up commands.
//
//	✗ UNKNOWN TYPE: Move
//
//	   Did you mean: Movie?
//
//	   → metarest catalog
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	header := color.New(color.FgRed, color.Bold)
	hint := color.New(color.FgYellow)
	help := color.New(color.FgHiBlack)
	if opts.NoColor {
		header.DisableColor()
		hint.DisableColor()
		help.DisableColor()
	}

	if opts.Context != "" {
		header.Fprintf(&b, "✗ %s: %s\n", strings.ToUpper(opts.Context), opts.Problem)
	} else {
		header.Fprintf(&b, "✗ %s\n", opts.Problem)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		hint.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		for _, cmd := range opts.HelpCommands {
			help.Fprintf(&b, "   → %s\n", cmd)
		}
	}
	return b.String()
}

// Success formats a one-line success message
func Success(noColor bool, format string, args ...interface{}) string {
	c := color.New(color.FgGreen)
	if noColor {
		c.DisableColor()
	}
	return c.Sprintf("✓ "+format, args...) + "\n"
}

// Warning formats a one-line warning
func Warning(noColor bool, format string, args ...interface{}) string {
	c := color.New(color.FgYellow)
	if noColor {
		c.DisableColor()
	}
	return c.Sprint("! "+fmt.Sprintf(format, args...)) + "\n"
}
