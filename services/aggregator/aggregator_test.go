package aggregator

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"libraryil/lib/scrapers/agron"

	"github.com/stretchr/testify/require"
)

const portalLoginPage = `<html><body>
<form id="login-form" action="/mng" method="post">
	<input type="hidden" name="a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6" value="1">
</form>
</body></html>`

const portalHomePage = `<html><body>
<a href="/user-loans">הספרים שלי</a>
</body></html>`

func loansPageWith(title, barcode, due string) string {
	return fmt.Sprintf(`<html><body>
<table>
	<tr><th>#</th><th>מדיה</th><th>כותר</th><th>תאריך השאלה</th><th>תאריך החזרה</th><th>בחר</th></tr>
	<tr>
		<td>1</td><td>ספרים</td><td>%s</td><td>1/8/2026</td><td>%s</td>
		<td><input type="checkbox" name="cid[]" value="%s"></td>
	</tr>
</table>
</body></html>`, title, due, barcode)
}

// newPortalServer serves a minimal portal: a login flow plus a loans
// page with a single book.
func newPortalServer(t *testing.T, title, barcode, due string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/mng", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			fmt.Fprint(w, portalHomePage)
			return
		}
		fmt.Fprint(w, portalLoginPage)
	})
	mux.HandleFunc("/user-loans", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, loansPageWith(title, barcode, due))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestLoginAllAndFanOutIsolation(t *testing.T) {
	serverA := newPortalServer(t, "ספר א", "111", "20/9/2026")
	serverB := newPortalServer(t, "ספר ב", "222", "21/9/2026")
	serverC := newPortalServer(t, "ספר ג", "333", "22/9/2026")

	agg := New([]Account{
		{Slug: "aleph", Username: "u", Password: "p", BaseURL: serverA.URL},
		{Slug: "bet", Username: "u", Password: "p", BaseURL: serverB.URL},
		{Slug: "gimel", Username: "u", Password: "p", BaseURL: serverC.URL},
	})
	defer agg.Close()

	errs := agg.LoginAll(context.Background())
	require.Empty(t, errs)

	// one portal going dark mid-session must not affect the others
	serverB.Close()

	result := agg.CheckedOutBooks(context.Background())
	require.Len(t, result.ByPortal, 2)
	require.Len(t, result.ByPortal["aleph:u"], 1)
	require.Equal(t, "ספר א", result.ByPortal["aleph:u"][0].Title)
	require.Len(t, result.ByPortal["gimel:u"], 1)

	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors, "bet:u")
}

func TestLoginAllReportsFailingAccount(t *testing.T) {
	serverA := newPortalServer(t, "ספר א", "111", "20/9/2026")

	agg := New([]Account{
		{Slug: "aleph", Username: "u", Password: "p", BaseURL: serverA.URL},
		{Slug: "bet", Username: "u", Password: "p", BaseURL: "http://127.0.0.1:1"},
	})
	defer agg.Close()

	errs := agg.LoginAll(context.Background())
	require.Len(t, errs, 1)
	require.Contains(t, errs, "bet:u")
}

func TestAccountID(t *testing.T) {
	require.Equal(t, "aleph:card2", Account{Slug: "aleph", Username: "u", Label: "card2"}.ID())
	require.Equal(t, "aleph:u", Account{Slug: "aleph", Username: "u"}.ID())
	require.Equal(t, "aleph", Account{Slug: "aleph"}.ID())
}

func TestMergeGroupsPunctuationVariants(t *testing.T) {
	entries := mergeAndRank(map[string][]agron.SearchResult{
		"aleph": {{Title: "כראמל (10) הסוף", Author: "גולדברג, ת.", Library: "aleph"}},
		"bet":   {{Title: "כראמל 10 הסוף", Author: "גולדברג  ת", Library: "bet"}},
	})
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Members, 2)
	require.Equal(t, []string{"aleph", "bet"}, entries[0].Portals())
	// 2 portals at rank 0
	require.Equal(t, 40, entries[0].Score)
}

func TestMergeScoring(t *testing.T) {
	shared := agron.SearchResult{Title: "ספר משותף", Author: "סופר", Library: ""}
	sharedA, sharedB := shared, shared
	sharedA.Library = "aleph"
	sharedB.Library = "bet"

	entries := mergeAndRank(map[string][]agron.SearchResult{
		"aleph": {
			{Title: "ספר יחיד", Author: "סופר", Library: "aleph"},
			sharedA,
		},
		"bet": {sharedB},
	})
	require.Len(t, entries, 2)

	// shared title: 2 portals, best rank 0 -> 40; single title: 1 portal,
	// rank 0 -> 30
	require.Equal(t, "ספר משותף", entries[0].Title)
	require.Equal(t, 40, entries[0].Score)
	require.Equal(t, "ספר יחיד", entries[1].Title)
	require.Equal(t, 30, entries[1].Score)
}

func TestMergeCountsPortalsOnce(t *testing.T) {
	dup := agron.SearchResult{Title: "כפול", Author: "סופר", Library: "aleph"}
	entries := mergeAndRank(map[string][]agron.SearchResult{
		"aleph": {dup, {Title: "אחר", Author: "", Library: "aleph"}, dup},
	})
	require.Len(t, entries, 2)

	// both same-portal hits stay in the member list, but the portal only
	// counts once toward the score: 10*1 + 20
	require.Equal(t, "כפול", entries[0].Title)
	require.Len(t, entries[0].Members, 2)
	require.Equal(t, 30, entries[0].Score)
}

func TestMergeRepresentativeTieBreak(t *testing.T) {
	entries := mergeAndRank(map[string][]agron.SearchResult{
		"bet":   {{Title: "ספר", Author: "סופר", Library: "bet", TitleID: "B1"}},
		"aleph": {{Title: "ספר", Author: "סופר", Library: "aleph", TitleID: "A1"}},
	})
	require.Len(t, entries, 1)
	// both at rank 0: the lexicographically first portal representative wins
	require.Equal(t, "A1", entries[0].Members[0].TitleID)
}

func TestMergeStableTieOrder(t *testing.T) {
	entries := mergeAndRank(map[string][]agron.SearchResult{
		"aleph": {
			{Title: "ראשון", Author: "א", Library: "aleph"},
			{Title: "שני", Author: "ב", Library: "aleph"},
		},
		"bet": {
			{Title: "ראשון", Author: "א", Library: "bet"},
			{Title: "שני", Author: "ב", Library: "bet"},
		},
	})
	require.Len(t, entries, 2)
	// scores differ (rank 0 vs rank 1); check the order is deterministic
	// and score-descending
	require.GreaterOrEqual(t, entries[0].Score, entries[1].Score)
	require.Equal(t, "ראשון", entries[0].Title)
	require.Equal(t, "שני", entries[1].Title)
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestSortedByDueDate(t *testing.T) {
	result := Result[agron.CheckedOutBook]{ByPortal: map[string][]agron.CheckedOutBook{
		"aleph:u": {
			{Title: "מאוחר", DueDate: datePtr(2026, 10, 1)},
			{Title: "בלי תאריך"},
		},
		"bet:u": {
			{Title: "מוקדם", DueDate: datePtr(2026, 9, 1)},
		},
	}}

	books := SortedByDueDate(result)
	require.Len(t, books, 3)
	require.Equal(t, "מוקדם", books[0].Title)
	require.Equal(t, "מאוחר", books[1].Title)
	require.Equal(t, "בלי תאריך", books[2].Title, "undated loans sort last")
}

func TestSortedByReturnDate(t *testing.T) {
	result := Result[agron.HistoryItem]{ByPortal: map[string][]agron.HistoryItem{
		"aleph:u": {
			{Title: "ישן", ReturnDate: datePtr(2025, 1, 1)},
			{Title: "חדש", ReturnDate: datePtr(2026, 6, 1)},
		},
	}}

	items := SortedByReturnDate(result)
	require.Equal(t, "חדש", items[0].Title)
	require.Equal(t, "ישן", items[1].Title)
}

func TestSearchInfoWarnings(t *testing.T) {
	outcome := SearchOutcome{Infos: []SearchInfo{
		{Slug: "aleph", TotalCount: 45, FetchedCount: 20},
		{Slug: "bet", TotalCount: 5, FetchedCount: 5},
	}}
	warnings := outcome.Warnings()
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0], "aleph")
	require.Contains(t, warnings[0], "20 of 45")
}

const detailsPageTemplate = `<html><body>
<h1>%s</h1>
<table>
	<tr><td>מחבר</td><td>%s</td></tr>
	<tr><td>מדיה</td><td>ספרים</td></tr>
</table>
<table>
	<tr><th>מספר עותק</th><th>מיקום</th></tr>
	%s
</table>
</body></html>`

func newDetailsServer(t *testing.T, title, author string, copyRows string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/index.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, detailsPageTemplate, title, author, copyRows)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestCombinedDetails(t *testing.T) {
	serverA := newDetailsServer(t, "ספר", "סופרת א",
		`<tr><td>111</td><td>ספריה א</td></tr><tr><td>112</td><td>ספריה א</td></tr>`)
	serverB := newDetailsServer(t, "ספר", "סופרת ב",
		`<tr><td>221</td><td>ספריה ב</td></tr>`)

	agg := New([]Account{
		{Slug: "aleph", BaseURL: serverA.URL},
		{Slug: "bet", BaseURL: serverB.URL},
		{Slug: "gimel", BaseURL: "http://127.0.0.1:1"},
	})
	defer agg.Close()

	combined := agg.CombinedDetails(context.Background(), []TitleRef{
		{Slug: "aleph", TitleID: "A1"},
		{Slug: "bet", TitleID: "B1"},
		{Slug: "gimel", TitleID: "G1"},
	})

	// common fields from the first answering portal in input order
	require.Equal(t, "ספר", combined.Title)
	require.Equal(t, "סופרת א", combined.Author)
	require.Equal(t, "ספרים", combined.MediaType)

	require.Len(t, combined.ByPortal, 2)
	require.Equal(t, 3, combined.TotalCopies())
	require.Len(t, combined.ByPortal["aleph"].Copies, 2)
	require.Len(t, combined.ByPortal["bet"].Copies, 1)

	require.Len(t, combined.Errors, 1)
	require.Contains(t, combined.Errors, "gimel")
}
