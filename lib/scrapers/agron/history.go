package agron

import (
	"context"
	"fmt"

	"libraryil/lib/hebdate"
	"libraryil/lib/tablescan"

	"go.opentelemetry.io/otel/codes"
)

var historyShape = tablescan.Shape{
	Anchor: "מחבר",
	Columns: map[string][]string{
		"media":    {"מדיה"},
		"barcode":  {"מספר עותק"},
		"author":   {"מחבר"},
		"title":    {"כותר"},
		"checkout": {"תאריך השאלה"},
		"returned": {"תאריך החזרה"},
	},
	Require: []string{"title"},
}

// CheckoutHistory fetches the previously borrowed titles. The portals
// render the whole history in a single page. Requires an authenticated
// session.
func (c *Client) CheckoutHistory(ctx context.Context) ([]HistoryItem, error) {
	ctx, span := tracer.Start(ctx, "client:CheckoutHistory")
	defer span.End()

	if err := c.ensureAuthenticated(); err != nil {
		return nil, err
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get("/loans-history")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("GET /loans-history: %s", res.Status())
	}
	if err := c.checkSessionExpired(res); err != nil {
		span.SetStatus(codes.Error, "session expired")
		return nil, err
	}

	doc, err := parseDoc(res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	rows := tablescan.Scan(doc, historyShape)
	items := make([]HistoryItem, 0, len(rows))
	for _, row := range rows {
		item := HistoryItem{
			Title:     row.Fields["title"],
			Author:    row.Fields["author"],
			Barcode:   row.Fields["barcode"],
			MediaType: row.Fields["media"],
			Library:   c.Slug,
		}
		if date, ok := hebdate.Parse(row.Fields["checkout"]); ok {
			item.CheckoutDate = &date
		}
		if date, ok := hebdate.Parse(row.Fields["returned"]); ok {
			item.ReturnDate = &date
		}
		items = append(items, item)
	}
	return items, nil
}
