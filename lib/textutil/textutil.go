package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeKey reduces free text to a comparison key: every rune that is
// not a letter, digit or whitespace becomes a single space (underscores
// included), runs of whitespace collapse to one space and the result is
// trimmed. Returns false when nothing remains. Two strings differing only
// in punctuation or spacing normalize identically, which is what record
// deduplication relies on.
func NormalizeKey(text string) (string, bool) {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r == '_':
			b.WriteRune(' ')
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	key := whitespaceRegex.ReplaceAllString(b.String(), " ")
	key = strings.TrimSpace(key)
	return key, key != ""
}
