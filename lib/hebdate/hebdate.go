// Package hebdate parses the date strings rendered by library.org.il
// portals, which may carry a leading Hebrew weekday name.
package hebdate

import (
	"strings"
	"time"
)

var weekdays = []string{
	"ראשון",
	"שני",
	"שלישי",
	"רביעי",
	"חמישי",
	"שישי",
	"שבת",
}

// non-padded layouts accept both "3/4/2025" and "17/12/2025"
var layouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2006-1-2",
	"2.1.2006",
}

// Parse turns a portal date string into a calendar date. A leading
// weekday name plus comma (e.g. "רביעי, 17/12/2025") is stripped before
// matching one of the four numeric layouts. Anything unparseable reports
// not-ok instead of an error; callers treat that as "date unknown".
func Parse(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	for _, day := range weekdays {
		if strings.HasPrefix(text, day) {
			text = strings.TrimPrefix(text, day)
			text = strings.TrimLeft(text, ", ")
			break
		}
	}

	for _, layout := range layouts {
		date, err := time.Parse(layout, text)
		if err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}
