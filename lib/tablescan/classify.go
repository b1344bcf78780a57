package tablescan

import (
	"strings"

	"libraryil/lib/hebdate"
)

type CellKind int

const (
	KindUnknown CellKind = iota
	KindDate
	KindMediaKind
	KindNumber
	KindTitle
)

// the fixed media vocabulary the portals render
var mediaKinds = []string{"ספרים", "סרטים", "תקליטורים", "כתבי עת"}

func IsMediaKind(text string) bool {
	for _, m := range mediaKinds {
		if text == m {
			return true
		}
	}
	return false
}

func isDigits(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ClassifyCell applies content-based classification for tables whose
// column order is inconsistent across portals. The ordering is a
// deliberate trade-off: a cell is checked as a date first, then against
// the media vocabulary, then as a bare row number; any remaining
// non-trivial text is treated as a title. Unclassifiable cells come back
// KindUnknown so extraction degrades to fewer fields rather than
// mis-assigning one.
func ClassifyCell(text string) CellKind {
	text = strings.TrimSpace(text)
	if text == "" {
		return KindUnknown
	}
	if _, ok := hebdate.Parse(text); ok {
		return KindDate
	}
	if IsMediaKind(text) {
		return KindMediaKind
	}
	if isDigits(text) {
		return KindNumber
	}
	if len([]rune(text)) > 2 {
		return KindTitle
	}
	return KindUnknown
}
