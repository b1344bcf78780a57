package agron

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"libraryil/lib/htmlutil"

	"go.opentelemetry.io/otel/codes"
)

// Outcome is the tri-state result of classifying a portal response by
// its localized keywords. The portals never answer with a structured
// status, so this is a known-approximate oracle kept behind one pure
// function; refining the keyword lists must not touch any control flow.
type Outcome int

const (
	OutcomeAmbiguous Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

var successKeywords = []string{"הוארך", "הצלחה", "חודש", "הארכה בוצעה"}
var failureKeywords = []string{"שגיאה", "נכשל", "לא ניתן", "אי אפשר"}

// ClassifyOutcome reports failure when any failure keyword appears,
// success when a success keyword appears without one, and ambiguous
// otherwise. Callers treat ambiguous as failure.
func ClassifyOutcome(text string) Outcome {
	for _, kw := range failureKeywords {
		if strings.Contains(text, kw) {
			return OutcomeFailure
		}
	}
	for _, kw := range successKeywords {
		if strings.Contains(text, kw) {
			return OutcomeSuccess
		}
	}
	return OutcomeAmbiguous
}

// RenewBooks submits one batch renewal for every book that has a
// barcode; books without one get an immediate failure result and are
// never sent. Updated due dates are recovered by re-parsing the loans
// table the portal renders in its response; a barcode absent from that
// table yields a nil new due date.
func (c *Client) RenewBooks(ctx context.Context, books []CheckedOutBook) ([]RenewalResult, error) {
	ctx, span := tracer.Start(ctx, "client:RenewBooks")
	defer span.End()

	if err := c.ensureAuthenticated(); err != nil {
		return nil, err
	}

	var barcodes []string
	for _, book := range books {
		if book.Barcode != "" {
			barcodes = append(barcodes, book.Barcode)
		}
	}

	results := make([]RenewalResult, 0, len(books))
	if len(barcodes) == 0 {
		for _, book := range books {
			results = append(results, RenewalResult{
				Book:    book,
				Success: false,
				Message: "no barcode available",
			})
		}
		return results, nil
	}

	form := url.Values{
		"task":       {"length"},
		"boxchecked": {strconv.Itoa(len(barcodes))},
		"cid[]":      barcodes,
	}
	res, err := c.Http.R().
		SetContext(ctx).
		SetFormDataFromValues(form).
		Post("/index.php/user-loans?task=length&view=loans")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit renewal")
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("POST renewal: %s", res.Status())
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

	message := htmlutil.CleanText(doc.Find("#system-message-container"))
	outcome := ClassifyOutcome(doc.Text())

	newDueDates := map[string]*CheckedOutBook{}
	for _, book := range c.parseLoansPage(doc) {
		if book.Barcode != "" {
			book := book
			newDueDates[book.Barcode] = &book
		}
	}

	for _, book := range books {
		if book.Barcode == "" {
			results = append(results, RenewalResult{
				Book:    book,
				Success: false,
				Message: "no barcode available",
			})
			continue
		}
		result := RenewalResult{
			Book:    book,
			Success: outcome == OutcomeSuccess,
			Message: message,
		}
		if updated, ok := newDueDates[book.Barcode]; ok {
			result.NewDueDate = updated.DueDate
		}
		results = append(results, result)
	}
	return results, nil
}

// RenewAll renews every currently loaned book the portal marks
// renewable.
func (c *Client) RenewAll(ctx context.Context) ([]RenewalResult, error) {
	books, err := c.CheckedOutBooks(ctx)
	if err != nil {
		return nil, err
	}

	var renewable []CheckedOutBook
	for _, book := range books {
		if book.CanRenew && book.Barcode != "" {
			renewable = append(renewable, book)
		}
	}
	if len(renewable) == 0 {
		return nil, nil
	}
	return c.RenewBooks(ctx, renewable)
}
