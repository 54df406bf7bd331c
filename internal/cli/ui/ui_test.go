package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableRender(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "NAME", "KIND", "ATTRIBUTES")
	table.AddRow("Movie", "entity", "6")
	table.AddRow("Address", "embeddable")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"NAME     KIND        ATTRIBUTES",
		"───────  ──────────  ──────────",
		"Movie    entity      6",
		"Address  embeddable  ",
	}, lines)
}

func TestTableRenderWithoutHeaders(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf, true).Render()
	assert.Empty(t, buf.String())
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewKeyValueTable(&buf, true)
	table.AddRow("Type", "Movie")
	table.AddRow("Supertype", "Auditable")
	table.Render()

	assert.Equal(t, "Type:      Movie\nSupertype: Auditable\n", buf.String())
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"movie", "movie", 0},
		{"café", "cafe", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevenshteinDistance(tt.a, tt.b), "%s/%s", tt.a, tt.b)
	}
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{"Movie", "Person", "Actor", "Address"}

	assert.Equal(t, []string{"Movie"}, FindSimilar("Move", candidates))
	assert.Equal(t, []string{"Movie"}, FindSimilar("movie", candidates))
	assert.Empty(t, FindSimilar("Studio", candidates))
	assert.Len(t, FindSimilar("a", []string{"b", "c", "d", "e"}), DefaultMaxSuggestions)
}

func TestFormatError(t *testing.T) {
	out := FormatError(ErrorOptions{
		Context:      "unknown type",
		Problem:      "Move",
		Suggestions:  []string{"Movie"},
		HelpCommands: []string{"metarest catalog"},
		NoColor:      true,
	})

	assert.Equal(t, "✗ UNKNOWN TYPE: Move\n\n   Did you mean: Movie?\n\n   → metarest catalog\n", out)
	assert.Equal(t, "✗ boom\n", FormatError(ErrorOptions{Problem: "boom", NoColor: true}))
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "✓ seeded 3 rows\n", Success(true, "seeded %d rows", 3))
	assert.Equal(t, "! cache disabled\n", Warning(true, "cache disabled"))
}
