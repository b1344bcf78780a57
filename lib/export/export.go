// Package export renders record tables for the terminal and for files.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

func ParseFormat(text string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(text))) {
	case FormatTable:
		return FormatTable, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown format %q, expected table, csv or markdown", text)
}

// Table is a rendered-format-agnostic grid of strings.
type Table struct {
	Headers []string
	Rows    [][]string
}

func (t Table) writer() table.Writer {
	w := table.NewWriter()

	header := make(table.Row, 0, len(t.Headers))
	for _, h := range t.Headers {
		header = append(header, h)
	}
	w.AppendHeader(header)

	for _, row := range t.Rows {
		cells := make(table.Row, 0, len(row))
		for _, cell := range row {
			cells = append(cells, cell)
		}
		w.AppendRow(cells)
	}
	return w
}

// Render serializes the table in the requested format. CSV output is
// prefixed with a UTF-8 BOM so spreadsheet imports decode the Hebrew
// text correctly.
func Render(t Table, format Format) (string, error) {
	w := t.writer()
	switch format {
	case FormatTable:
		w.SetStyle(table.StyleRounded)
		return w.Render(), nil
	case FormatCSV:
		return "\ufeff" + w.RenderCSV(), nil
	case FormatMarkdown:
		return w.RenderMarkdown(), nil
	}
	return "", fmt.Errorf("unknown format %q", format)
}

// Write sends content to path, or to stdout when path is empty or "-".
func Write(path, content string) error {
	if path == "" || path == "-" {
		_, err := fmt.Println(content)
		return err
	}
	return os.WriteFile(path, []byte(content+"\n"), 0644)
}
