package agron

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"libraryil/lib/hebdate"
	"libraryil/lib/htmlutil"
	"libraryil/lib/tablescan"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

var copiesShape = tablescan.Shape{
	Anchor: "מיקום",
	Columns: map[string][]string{
		"barcode":        {"מספר"},
		"status":         {"סטטוס"},
		"location":       {"מיקום"},
		"classification": {"מס' מיון"},
		"shelf_sign":     {"סימן מדף"},
		"volume":         {"כרך"},
		"loan_days":      {"ימי השאלה"},
		"return_date":    {"תאריך החזרה"},
	},
	Require: []string{"barcode"},
}

// most-specific labels first: "מס' בסדרה" contains "סדרה"
var metadataLabels = []struct {
	keyword string
	field   string
}{
	{"מס' בסדרה", "series_number"},
	{"מס' מיון", "classification"},
	{"סימן מדף", "shelf_sign"},
	{"סדרה", "series"},
	{"מחבר", "author"},
	{"מדיה", "media_type"},
}

// BookDetails fetches a title's details page: catalog metadata plus the
// copy list. No login is required, but authenticated sessions see extra
// copy columns (status, loan days, return date) and the hold count;
// their absence is never an error.
func (c *Client) BookDetails(ctx context.Context, titleID string) (BookDetails, error) {
	ctx, span := tracer.Start(ctx, "client:BookDetails")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/index.php?option=com_agronsearch&view=details&titleId=%s", titleID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return BookDetails{}, err
	}
	if res.IsError() {
		return BookDetails{}, fmt.Errorf("GET details %s: %s", titleID, res.Status())
	}
	doc, err := parseDoc(res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return BookDetails{}, err
	}

	details := BookDetails{
		TitleID: titleID,
		Library: c.Slug,
		Title:   findPageTitle(doc),
	}
	if details.Title == "" {
		return BookDetails{}, fmt.Errorf("no title found on details page for %s", titleID)
	}

	details.HoldCount = parseHoldCount(doc)
	details.Copies = c.parseCopies(doc)

	for key, value := range parseMetadataTable(doc) {
		switch key {
		case "author":
			details.Author = value
		case "classification":
			details.Classification = value
		case "shelf_sign":
			details.ShelfSign = value
		case "media_type":
			details.MediaType = value
		case "series":
			details.Series = value
		case "series_number":
			details.SeriesNumber = value
		}
	}

	return details, nil
}

func findPageTitle(doc *goquery.Document) string {
	heading := doc.Find("h1").First()
	if heading.Length() == 0 {
		heading = doc.Find("h2").First()
	}
	if heading.Length() > 0 {
		if title := htmlutil.CleanText(heading); title != "" {
			return title
		}
	}
	for _, text := range htmlutil.StrippedStrings(doc.Selection) {
		if len([]rune(text)) > 5 && !strings.HasPrefix(text, "http") {
			return text
		}
	}
	return ""
}

var holdCountRegex = regexp.MustCompile(`כמות הזמנות לכותר[:\s]*(\d+)`)

// hold count only renders for authenticated sessions
func parseHoldCount(doc *goquery.Document) *int {
	for _, text := range htmlutil.StrippedStrings(doc.Selection) {
		match := holdCountRegex.FindStringSubmatch(text)
		if len(match) > 1 {
			count, err := strconv.Atoi(match[1])
			if err == nil {
				return &count
			}
		}
	}
	return nil
}

func (c *Client) parseCopies(doc *goquery.Document) []BookCopy {
	rows := tablescan.Scan(doc, copiesShape)

	copies := make([]BookCopy, 0, len(rows))
	for _, row := range rows {
		bc := BookCopy{
			Barcode:        row.Fields["barcode"],
			Status:         row.Fields["status"],
			Location:       row.Fields["location"],
			Classification: row.Fields["classification"],
			ShelfSign:      row.Fields["shelf_sign"],
			Volume:         row.Fields["volume"],
			Library:        c.Slug,
		}
		if days := row.Fields["loan_days"]; days != "" {
			if n, err := strconv.Atoi(days); err == nil {
				bc.LoanDays = &n
			}
		}
		if date, ok := hebdate.Parse(row.Fields["return_date"]); ok {
			bc.ReturnDate = &date
		}
		copies = append(copies, bc)
	}
	return copies
}

// parseMetadataTable reads the vertical label/value table on the details
// page. Author values sometimes carry a "מחבר/ת:" prefix which is
// stripped.
func parseMetadataTable(doc *goquery.Document) map[string]string {
	metadata := map[string]string{}

	for _, pair := range tablescan.ScanVertical(doc, "מחבר") {
		label, value := pair[0], pair[1]
		if value == "" {
			continue
		}
		for _, mapping := range metadataLabels {
			if !strings.Contains(label, mapping.keyword) {
				continue
			}
			if mapping.field == "author" {
				if idx := strings.Index(value, ":"); idx >= 0 {
					value = strings.TrimSpace(value[idx+1:])
				}
			}
			if value != "" {
				metadata[mapping.field] = value
			}
			break
		}
	}
	return metadata
}
