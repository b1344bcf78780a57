package hebdate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		text     string
		expected time.Time
		ok       bool
	}{
		{"17/12/2025", time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC), true},
		{"רביעי, 17/12/2025", time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC), true},
		{"שבת, 13/11/2025", time.Date(2025, 11, 13, 0, 0, 0, 0, time.UTC), true},
		{"13-11-2025", time.Date(2025, 11, 13, 0, 0, 0, 0, time.UTC), true},
		{"2025-11-13", time.Date(2025, 11, 13, 0, 0, 0, 0, time.UTC), true},
		{"13.11.2025", time.Date(2025, 11, 13, 0, 0, 0, 0, time.UTC), true},
		{"3/4/2025", time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"   ", time.Time{}, false},
		{"ספרים", time.Time{}, false},
		{"12345", time.Time{}, false},
		{"13/11", time.Time{}, false},
	}

	for _, test := range testCases {
		date, ok := Parse(test.text)
		require.Equal(t, test.ok, ok, "text: %q", test.text)
		if test.ok {
			require.Equal(t, test.expected, date, "text: %q", test.text)
		}
	}
}

// a weekday prefix must never change the parsed date
func TestParseWeekdayPrefixInvariance(t *testing.T) {
	weekdayNames := []string{"ראשון", "שני", "שלישי", "רביעי", "חמישי", "שישי", "שבת"}
	bare := []string{"17/12/2025", "1-2-2025", "2025-06-30", "9.10.2024"}

	for _, text := range bare {
		expected, ok := Parse(text)
		require.True(t, ok, "text: %q", text)

		for _, day := range weekdayNames {
			prefixed := day + ", " + text
			date, ok := Parse(prefixed)
			require.True(t, ok, "text: %q", prefixed)
			require.Equal(t, expected, date, "text: %q", prefixed)
		}
	}
}
