// Package tablescan extracts structured records from the tables of
// server-rendered portal pages. The markup carries no stable ids or
// classes; the only reliable signals are Hebrew header text and cell
// ordering, so extraction is driven by a declarative Shape instead of a
// bespoke parser per page.
package tablescan

import (
	"strings"

	"libraryil/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Shape describes one record type worth of table.
type Shape struct {
	// Anchor is the header keyword that selects the table. The first
	// table whose header row contains it wins; the markup is not
	// uniquely addressable so later candidates are ignored.
	Anchor string
	// Columns maps a logical field name to the header keyword(s) that
	// identify its column.
	Columns map[string][]string
	// Require lists fields that must be non-empty for a row to be kept.
	Require []string
}

// Row is one extracted record. Cells holds every cell's rendered text in
// document order for callers that apply positional fallbacks, and
// Selection points back at the row for callers that need attributes
// (e.g. checkbox values).
type Row struct {
	Fields    map[string]string
	Cells     []string
	Selection *goquery.Selection
}

// Scan walks the document's tables in order and extracts rows from the
// first one matching the shape's anchor. Rows missing a required field
// are dropped, and a failure inside one row never aborts the scan.
func Scan(doc *goquery.Document, shape Shape) []Row {
	var rows []Row

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		headers := headerTexts(table)
		if findHeaderIndex(headers, []string{shape.Anchor}) < 0 {
			return true
		}

		indices := make(map[string]int, len(shape.Columns))
		for field, keywords := range shape.Columns {
			indices[field] = findHeaderIndex(headers, keywords)
		}

		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			if tr.Find("th").Length() > 0 {
				return
			}
			row, ok := scanRow(tr, indices, shape.Require)
			if ok {
				rows = append(rows, row)
			}
		})
		return false
	})

	return rows
}

func scanRow(tr *goquery.Selection, indices map[string]int, require []string) (row Row, ok bool) {
	defer func() {
		// a malformed row is skipped, not fatal
		if r := recover(); r != nil {
			ok = false
		}
	}()

	cells := tr.Find("td")
	if cells.Length() == 0 {
		return Row{}, false
	}

	texts := make([]string, cells.Length())
	cells.Each(func(i int, td *goquery.Selection) {
		texts[i] = htmlutil.CleanText(td)
	})

	fields := map[string]string{}
	for field, idx := range indices {
		if idx >= 0 && idx < len(texts) {
			fields[field] = texts[idx]
		}
	}
	for _, req := range require {
		if fields[req] == "" {
			return Row{}, false
		}
	}

	return Row{Fields: fields, Cells: texts, Selection: tr}, true
}

func headerTexts(table *goquery.Selection) []string {
	var headers []string
	table.Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, htmlutil.CleanText(th))
	})
	return headers
}

func findHeaderIndex(headers []string, keywords []string) int {
	for i, h := range headers {
		for _, kw := range keywords {
			if strings.Contains(h, kw) {
				return i
			}
		}
	}
	return -1
}

// ScanVertical extracts a key/value metadata table whose rows are
// (label cell, value cell) pairs, selected by a label keyword appearing
// in the first column of one of the leading rows.
func ScanVertical(doc *goquery.Document, anchor string) [][2]string {
	var pairs [][2]string

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")

		matched := false
		rows.EachWithBreak(func(i int, tr *goquery.Selection) bool {
			if i >= 3 {
				return false
			}
			first := tr.Find("td, th").First()
			if strings.Contains(htmlutil.CleanText(first), anchor) {
				matched = true
				return false
			}
			return true
		})
		if !matched {
			return true
		}

		rows.Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td, th")
			if cells.Length() < 2 {
				return
			}
			pairs = append(pairs, [2]string{
				htmlutil.CleanText(cells.Eq(0)),
				htmlutil.CleanText(cells.Eq(1)),
			})
		})
		return false
	})

	return pairs
}
