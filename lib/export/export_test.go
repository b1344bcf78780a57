package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var books = Table{
	Headers: []string{"כותר", "מחבר", "תאריך החזרה"},
	Rows: [][]string{
		{"הארי פוטר ואבן החכמים", "רולינג, ג'יי קיי", "29/8/2026"},
		{"געגועיי לקיסינג'ר", "אתגר קרת", ""},
	},
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]Format{
		"table":    FormatTable,
		"CSV":      FormatCSV,
		"markdown": FormatMarkdown,
		"md":       FormatMarkdown,
		" table ":  FormatTable,
	} {
		got, err := ParseFormat(input)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
}

func TestRenderCSVCarriesBOM(t *testing.T) {
	out, err := Render(books, FormatCSV)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "\ufeff"), "spreadsheet imports need the BOM")
	require.Contains(t, out, "הארי פוטר ואבן החכמים")
	require.Contains(t, out, "רולינג")
}

func TestRenderMarkdown(t *testing.T) {
	out, err := Render(books, FormatMarkdown)
	require.NoError(t, err)
	require.Contains(t, out, "| כותר |")
	require.Contains(t, out, "| געגועיי לקיסינג'ר |")
}

func TestRenderTable(t *testing.T) {
	out, err := Render(books, FormatTable)
	require.NoError(t, err)
	require.Contains(t, out, "כותר")
	require.Contains(t, out, "אתגר קרת")
}

func TestWriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loans.csv")
	require.NoError(t, Write(path, "a,b,c"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "a,b,c\n", string(content))
}
