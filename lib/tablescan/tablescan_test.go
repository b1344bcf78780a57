package tablescan

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const historyPage = `
<html><body>
<table>
  <tr><th>ניווט</th></tr>
  <tr><td>תפריט</td></tr>
</table>
<table>
  <tr>
    <th>מדיה</th><th>מספר עותק</th><th>מחבר</th><th>כותר</th>
    <th>תאריך השאלה</th><th>תאריך החזרה</th>
  </tr>
  <tr>
    <td>ספרים</td><td>123456</td><td>ברנע-גולדברג, מיכל</td><td>כראמל</td>
    <td>01/10/2025</td><td>29/10/2025</td>
  </tr>
  <tr>
    <td>ספרים</td><td>654321</td><td></td><td></td>
    <td>01/10/2025</td><td>29/10/2025</td>
  </tr>
</table>
</body></html>`

func TestScanSelectsFirstAnchoredTable(t *testing.T) {
	doc := parseDoc(t, historyPage)

	rows := Scan(doc, Shape{
		Anchor: "מחבר",
		Columns: map[string][]string{
			"media":   {"מדיה"},
			"barcode": {"מספר עותק"},
			"author":  {"מחבר"},
			"title":   {"כותר"},
			"out":     {"תאריך השאלה"},
			"back":    {"תאריך החזרה"},
		},
		Require: []string{"title"},
	})

	require.Len(t, rows, 1)
	require.Equal(t, "כראמל", rows[0].Fields["title"])
	require.Equal(t, "ברנע-גולדברג, מיכל", rows[0].Fields["author"])
	require.Equal(t, "123456", rows[0].Fields["barcode"])
	require.Equal(t, "ספרים", rows[0].Fields["media"])
}

func TestScanNoAnchorMatch(t *testing.T) {
	doc := parseDoc(t, historyPage)
	rows := Scan(doc, Shape{Anchor: "לא קיים"})
	require.Empty(t, rows)
}

// an unexpected extra column must not break extraction of titled rows
func TestScanToleratesExtraColumn(t *testing.T) {
	page := `
<table>
  <tr>
    <th>מדיה</th><th>חדש</th><th>מחבר</th><th>כותר</th>
  </tr>
  <tr><td>ספרים</td><td>???</td><td>מחבר א</td><td>ספר א</td></tr>
  <tr><td>ספרים</td><td>???</td><td>מחבר ב</td><td>ספר ב</td></tr>
  <tr><td>ספרים</td><td>???</td><td>מחבר ג</td><td></td></tr>
</table>`
	doc := parseDoc(t, page)

	rows := Scan(doc, Shape{
		Anchor: "כותר",
		Columns: map[string][]string{
			"author": {"מחבר"},
			"title":  {"כותר"},
		},
		Require: []string{"title"},
	})

	require.Len(t, rows, 2)
	require.Equal(t, "ספר א", rows[0].Fields["title"])
	require.Equal(t, "ספר ב", rows[1].Fields["title"])
}

func TestScanVertical(t *testing.T) {
	page := `
<table><tr><th>עמודה</th></tr><tr><td>אחר</td></tr></table>
<table>
  <tr><td>מחבר</td><td>מחבר/ת:ברנע גולדברג</td></tr>
  <tr><td>מס' מיון</td><td>892.4</td></tr>
  <tr><td>סימן מדף</td><td>ברנ</td></tr>
</table>`
	doc := parseDoc(t, page)

	pairs := ScanVertical(doc, "מחבר")
	require.Len(t, pairs, 3)
	require.Equal(t, "מחבר", pairs[0][0])
	require.Equal(t, "892.4", pairs[1][1])
}

func TestClassifyCell(t *testing.T) {
	testCases := []struct {
		text     string
		expected CellKind
	}{
		{"17/12/2025", KindDate},
		{"רביעי, 17/12/2025", KindDate},
		{"ספרים", KindMediaKind},
		{"כתבי עת", KindMediaKind},
		{"123456", KindNumber},
		{"3", KindNumber},
		{"הארי פוטר", KindTitle},
		{"", KindUnknown},
		{"א", KindUnknown},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, ClassifyCell(test.text), "text: %q", test.text)
	}
}
