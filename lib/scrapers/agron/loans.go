package agron

import (
	"context"
	"fmt"

	"libraryil/lib/hebdate"
	"libraryil/lib/tablescan"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

// CheckedOutBooks fetches the currently loaned titles. Requires an
// authenticated session.
func (c *Client) CheckedOutBooks(ctx context.Context) ([]CheckedOutBook, error) {
	ctx, span := tracer.Start(ctx, "client:CheckedOutBooks")
	defer span.End()

	if err := c.ensureAuthenticated(); err != nil {
		return nil, err
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get("/user-loans")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("GET /user-loans: %s", res.Status())
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

	return c.parseLoansPage(doc), nil
}

// parseLoansPage extracts the loans table. The column order of this
// table is not consistent across portals, so cells are classified by
// content rather than by header position.
func (c *Client) parseLoansPage(doc *goquery.Document) []CheckedOutBook {
	rows := tablescan.Scan(doc, tablescan.Shape{Anchor: "כותר"})

	var books []CheckedOutBook
	for _, row := range rows {
		book, ok := c.loanFromRow(row)
		if ok {
			books = append(books, book)
		}
	}
	return books
}

func (c *Client) loanFromRow(row tablescan.Row) (CheckedOutBook, bool) {
	if len(row.Cells) < 5 {
		return CheckedOutBook{}, false
	}

	// the renewal checkbox carries the copy barcode as its value; a
	// checkbox without one cannot be submitted, so it is not renewable
	checkbox := row.Selection.Find(`input[name='cid[]']`)
	barcode := checkbox.AttrOr("value", "")
	book := CheckedOutBook{
		Library:  c.Slug,
		Barcode:  barcode,
		CanRenew: barcode != "",
	}

	cells := row.Selection.Find("td")
	for i, text := range row.Cells {
		// a linked pure-digit cell is the barcode column
		if cells.Eq(i).Find("a").Length() > 0 && tablescan.ClassifyCell(text) == tablescan.KindNumber {
			if book.Barcode == "" {
				book.Barcode = text
			}
			continue
		}

		switch tablescan.ClassifyCell(text) {
		case tablescan.KindDate:
			date, _ := hebdate.Parse(text)
			if book.CheckoutDate == nil {
				book.CheckoutDate = &date
			} else if book.DueDate == nil {
				book.DueDate = &date
			}
		case tablescan.KindMediaKind:
			if book.MediaType == "" {
				book.MediaType = text
			}
		case tablescan.KindNumber:
			// row number or days-remaining, not interesting
		case tablescan.KindTitle:
			book.Title = text
		}
	}

	if book.Title == "" {
		return CheckedOutBook{}, false
	}
	return book, true
}
