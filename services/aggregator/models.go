package aggregator

import (
	"fmt"
	"sort"

	"libraryil/lib/scrapers/agron"
)

// Account is one credentialed membership at one portal. The same person
// often holds cards at several portals, and occasionally two cards at
// the same portal, so accounts are addressed by ID rather than by slug.
type Account struct {
	// the portal identifier, e.g. "shemesh" for shemesh.library.org.il
	Slug     string
	Username string
	Password string
	// optional display name distinguishing two accounts on one portal
	Label string
	// overrides the portal url; used by tests
	BaseURL string
}

// ID uniquely identifies the account across the aggregator's maps.
func (a Account) ID() string {
	switch {
	case a.Label != "":
		return fmt.Sprintf("%s:%s", a.Slug, a.Label)
	case a.Username != "":
		return fmt.Sprintf("%s:%s", a.Slug, a.Username)
	default:
		return a.Slug
	}
}

// Result is a fan-out outcome: every portal lands in exactly one of the
// two maps, so partial failures stay visible instead of silently
// shrinking the data.
type Result[T any] struct {
	ByPortal map[string][]T
	Errors   map[string]string
}

// Flatten returns every portal's items in one slice, walking portals in
// sorted ID order so the output is deterministic.
func (r Result[T]) Flatten() []T {
	ids := make([]string, 0, len(r.ByPortal))
	for id := range r.ByPortal {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var items []T
	for _, id := range ids {
		items = append(items, r.ByPortal[id]...)
	}
	return items
}

// SortedByDueDate flattens current loans ordered soonest-due first.
// Loans without a due date sort last.
func SortedByDueDate(result Result[agron.CheckedOutBook]) []agron.CheckedOutBook {
	books := result.Flatten()
	sort.SliceStable(books, func(i, j int) bool {
		a, b := books[i].DueDate, books[j].DueDate
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.Before(*b)
	})
	return books
}

// SortedByReturnDate flattens history items ordered most recently
// returned first. Items without a return date sort last.
func SortedByReturnDate(result Result[agron.HistoryItem]) []agron.HistoryItem {
	items := result.Flatten()
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].ReturnDate, items[j].ReturnDate
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
	return items
}

// SearchInfo is one portal's share of a combined search.
type SearchInfo struct {
	Slug         string
	TotalCount   int
	FetchedCount int
}

// HasMore reports whether the portal holds hits beyond what was fetched.
func (i SearchInfo) HasMore() bool {
	return i.TotalCount > i.FetchedCount
}

// MergedEntry is one distinct title across portals. Representative
// fields come from the best-ranked member; Members holds one hit per
// portal carrying the title.
type MergedEntry struct {
	Title        string
	Author       string
	Series       string
	SeriesNumber string
	Members      []agron.SearchResult
	Score        int
}

// Portals lists the portals holding the title, in member order.
func (e MergedEntry) Portals() []string {
	portals := make([]string, 0, len(e.Members))
	for _, m := range e.Members {
		portals = append(portals, m.Library)
	}
	return portals
}

// SearchOutcome is the combined search result: merged entries plus
// enough per-portal bookkeeping to tell the caller what was not seen.
type SearchOutcome struct {
	Entries []MergedEntry
	Infos   []SearchInfo
	Errors  map[string]string
}

// Warnings renders a human-readable line per portal whose catalog holds
// more hits than were fetched.
func (o SearchOutcome) Warnings() []string {
	var warnings []string
	for _, info := range o.Infos {
		if info.HasMore() {
			warnings = append(warnings, fmt.Sprintf(
				"%s: showing %d of %d results",
				info.Slug, info.FetchedCount, info.TotalCount,
			))
		}
	}
	return warnings
}

// TitleRef addresses one title on one portal.
type TitleRef struct {
	Slug    string
	TitleID string
}

// CombinedBookDetails joins one title's details pages across portals.
// The descriptive fields come from the first portal (in request order)
// that answered; the per-portal copy lists are kept apart because copies
// are physical and portal-bound.
type CombinedBookDetails struct {
	Title        string
	Author       string
	MediaType    string
	Series       string
	SeriesNumber string
	ByPortal     map[string]agron.BookDetails
	Errors       map[string]string
}

// TotalCopies counts physical copies across every answering portal.
func (d CombinedBookDetails) TotalCopies() int {
	total := 0
	for _, details := range d.ByPortal {
		total += len(details.Copies)
	}
	return total
}
