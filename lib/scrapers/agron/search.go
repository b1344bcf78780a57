package agron

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"libraryil/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

const searchPageSize = 20

// Query is a catalog search. Exactly one of Title/Author/Series is used,
// in that priority order. MaxResults defaults to one page (20).
type Query struct {
	Title      string
	Author     string
	Series     string
	MaxResults int
}

// Search queries the portal catalog. No login is required; searches are
// public. A transport failure while fetching a follow-up page truncates
// the result to what was already retrieved instead of failing the whole
// search.
func (c *Client) Search(ctx context.Context, query Query) (SearchResults, error) {
	ctx, span := tracer.Start(ctx, "client:Search")
	defer span.End()

	maxResults := query.MaxResults
	if maxResults <= 0 {
		maxResults = searchPageSize
	}

	// the search page holds the request token for the form post
	res, err := c.Http.R().
		SetContext(ctx).
		Get("/agron-catalog/simple-search-submenu")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch search page")
		return SearchResults{}, err
	}
	if res.IsError() {
		return SearchResults{}, fmt.Errorf("GET search page: %s", res.Status())
	}
	doc, err := parseDoc(res)
	if err != nil {
		return SearchResults{}, err
	}
	token := findRequestToken(doc)

	res, err = c.Http.R().
		SetContext(ctx).
		SetFormData(buildSearchForm(query, token)).
		Post("/index.php?option=com_agronsearch&task=results&Itemid=72")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit search")
		return SearchResults{}, err
	}
	if res.IsError() {
		return SearchResults{}, fmt.Errorf("POST search: %s", res.Status())
	}
	doc, err = parseDoc(res)
	if err != nil {
		return SearchResults{}, err
	}

	results := c.parseSearchResults(doc)

	// follow-up pages until we have enough, a page comes back empty, or
	// the pages run out
	page := 2
	for len(results.Items) < maxResults && page <= results.TotalPages {
		pageItems, err := c.fetchSearchPage(ctx, page)
		if err != nil {
			slog.WarnContext(
				ctx, "search page fetch failed, truncating results",
				"slug", c.Slug, "page", page, "err", err,
			)
			break
		}
		if len(pageItems) == 0 {
			break
		}
		remaining := maxResults - len(results.Items)
		if remaining < len(pageItems) {
			pageItems = pageItems[:remaining]
		}
		results.Items = append(results.Items, pageItems...)
		page++
	}

	if len(results.Items) > maxResults {
		results.Items = results.Items[:maxResults]
	}
	return results, nil
}

// field values of the portal's column0 select:
// 0 = title, 1 = author, 8 = series
func buildSearchForm(query Query, token string) map[string]string {
	form := map[string]string{
		"column0":   "0",
		"exprStr0":  "",
		"matchBy0":  "0",
		"mediatype": "0",
		"orderBy":   "0",
		"newSearch": "1",
	}

	switch {
	case query.Title != "":
		form["column0"] = "0"
		form["exprStr0"] = query.Title
	case query.Author != "":
		form["column0"] = "1"
		form["exprStr0"] = query.Author
	case query.Series != "":
		form["column0"] = "8"
		form["exprStr0"] = query.Series
	}

	if token != "" {
		form[token] = "1"
	}
	return form
}

func (c *Client) fetchSearchPage(ctx context.Context, page int) ([]SearchResult, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf(
			"/index.php/agron-catalog/search-results-menu?start=%d",
			(page-1)*searchPageSize,
		))
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("GET search page %d: %s", page, res.Status())
	}
	doc, err := parseDoc(res)
	if err != nil {
		return nil, err
	}
	return c.parseSearchResults(doc).Items, nil
}

var totalCountRegex = regexp.MustCompile(`(\d+)`)
var titleIdRegex = regexp.MustCompile(`titleId=([A-Za-z0-9]+)`)

func (c *Client) parseSearchResults(doc *goquery.Document) SearchResults {
	results := SearchResults{
		Page:       1,
		TotalPages: 1,
		Library:    c.Slug,
	}

	for _, text := range htmlutil.StrippedStrings(doc.Selection) {
		if strings.Contains(text, "לא נמצאו תוצאות") {
			return results
		}
		if strings.Contains(text, "סה''כ תוצאות:") {
			if match := totalCountRegex.FindString(text); match != "" {
				results.TotalCount, _ = strconv.Atoi(match)
				results.TotalPages = (results.TotalCount + searchPageSize - 1) / searchPageSize
			}
		}
	}

	doc.Find("a[href*='view=details']").Each(func(_ int, link *goquery.Selection) {
		href := link.AttrOr("href", "")
		if strings.Contains(href, "#copies") {
			return
		}
		item, ok := c.searchItemFromLink(link, href)
		if ok {
			results.Items = append(results.Items, item)
		}
	})

	return results
}

func (c *Client) searchItemFromLink(link *goquery.Selection, href string) (item SearchResult, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	item = SearchResult{
		Title:   htmlutil.CleanText(link),
		Library: c.Slug,
	}
	if item.Title == "" {
		return SearchResult{}, false
	}
	if match := titleIdRegex.FindStringSubmatch(href); len(match) > 1 {
		item.TitleID = match[1]
	}

	container := link.Closest("div.title-details")
	if container.Length() == 0 {
		container = link.Parent()
	}
	row := container.Closest("div.spost")
	if row.Length() == 0 {
		row = container
	}

	for _, text := range htmlutil.StrippedStrings(row) {
		switch {
		case strings.HasPrefix(text, "מחברים:"):
			item.Author = strings.TrimSpace(strings.TrimPrefix(text, "מחברים:"))
		case strings.HasPrefix(text, "מס' מיון:"):
			item.Classification = strings.TrimSpace(strings.TrimPrefix(text, "מס' מיון:"))
		case strings.HasPrefix(text, "סימן מדף:"):
			item.ShelfSign = strings.TrimSpace(strings.TrimPrefix(text, "סימן מדף:"))
		case strings.HasPrefix(text, "מס' בסדרה:"):
			item.SeriesNumber = strings.TrimSpace(strings.TrimPrefix(text, "מס' בסדרה:"))
		case strings.HasPrefix(text, "סדרה:"):
			item.Series = strings.TrimSpace(strings.TrimPrefix(text, "סדרה:"))
		}
	}

	return item, true
}
