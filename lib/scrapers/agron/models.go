package agron

import (
	"time"

	"libraryil/lib/textutil"
)

// CheckedOutBook is one currently loaned title as rendered on the
// /user-loans page. Optional fields are nil/empty when the portal did
// not render them. When CanRenew is set the barcode is always present;
// renewal is impossible without it.
type CheckedOutBook struct {
	Title        string
	Author       string
	Barcode      string
	MediaType    string
	CheckoutDate *time.Time
	DueDate      *time.Time
	Library      string
	CanRenew     bool
}

// HistoryItem is one previously returned loan from /loans-history.
type HistoryItem struct {
	Title        string
	Author       string
	Barcode      string
	MediaType    string
	CheckoutDate *time.Time
	ReturnDate   *time.Time
	Library      string
}

// RenewalResult is the per-book outcome of a batch renewal.
type RenewalResult struct {
	Book       CheckedOutBook
	Success    bool
	Message    string
	NewDueDate *time.Time
}

// SearchResult is one catalog hit from one portal's native result page.
type SearchResult struct {
	Title          string
	Author         string
	Classification string
	ShelfSign      string
	Series         string
	SeriesNumber   string
	TitleID        string
	Library        string
}

// GroupKey is the punctuation-insensitive (title, author) key used to
// merge hits denoting the same physical title across portals.
func (r SearchResult) GroupKey() string {
	title, _ := textutil.NormalizeKey(r.Title)
	author, _ := textutil.NormalizeKey(r.Author)
	return title + "\x00" + author
}

// SearchResults is one portal's search outcome, possibly spanning
// several fetched pages.
type SearchResults struct {
	Items      []SearchResult
	TotalCount int
	Page       int
	TotalPages int
	Library    string
}

func (r SearchResults) HasNext() bool {
	return r.Page < r.TotalPages
}

// BookCopy is one physical copy row from a title details page. Status,
// LoanDays and ReturnDate only render for authenticated sessions.
type BookCopy struct {
	Barcode        string
	Status         string
	Location       string
	Classification string
	ShelfSign      string
	Volume         string
	LoanDays       *int
	ReturnDate     *time.Time
	Library        string
}

// BookDetails is a title details page: catalog metadata plus the copy
// list. HoldCount is nil for anonymous sessions.
type BookDetails struct {
	Title          string
	Author         string
	TitleID        string
	Classification string
	ShelfSign      string
	MediaType      string
	Series         string
	SeriesNumber   string
	Library        string
	Copies         []BookCopy
	HoldCount      *int
}

func (d BookDetails) CopyCount() int {
	return len(d.Copies)
}
