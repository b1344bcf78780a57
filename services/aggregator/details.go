package aggregator

import (
	"context"
	"sync"

	"libraryil/lib/scrapers/agron"
)

// CombinedDetails fetches one title's details page on each referenced
// portal and joins them. The descriptive fields come from the first
// reference (in input order) whose portal answered; failures per portal
// land in the error map.
func (a *Aggregator) CombinedDetails(ctx context.Context, refs []TitleRef) CombinedBookDetails {
	ctx, span := tracer.Start(ctx, "aggregator:CombinedDetails")
	defer span.End()

	combined := CombinedBookDetails{
		ByPortal: map[string]agron.BookDetails{},
		Errors:   map[string]string{},
	}

	clients := make([]*agron.Client, len(refs))
	for i, ref := range refs {
		client, err := a.anonymousClient(ctx, ref.Slug)
		if err != nil {
			combined.Errors[ref.Slug] = err.Error()
			continue
		}
		clients[i] = client
	}

	details := make([]agron.BookDetails, len(refs))
	fetchErrs := make([]error, len(refs))
	var wg sync.WaitGroup
	for i, ref := range refs {
		if clients[i] == nil {
			continue
		}
		wg.Add(1)
		go func(i int, ref TitleRef) {
			defer wg.Done()
			details[i], fetchErrs[i] = clients[i].BookDetails(ctx, ref.TitleID)
		}(i, ref)
	}
	wg.Wait()

	filled := false
	for i, ref := range refs {
		if clients[i] == nil {
			continue
		}
		if fetchErrs[i] != nil {
			combined.Errors[ref.Slug] = fetchErrs[i].Error()
			continue
		}
		combined.ByPortal[ref.Slug] = details[i]
		if !filled {
			filled = true
			combined.Title = details[i].Title
			combined.Author = details[i].Author
			combined.MediaType = details[i].MediaType
			combined.Series = details[i].Series
			combined.SeriesNumber = details[i].SeriesNumber
		}
	}
	return combined
}
