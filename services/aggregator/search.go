package aggregator

import (
	"context"
	"sort"

	"libraryil/lib/scrapers/agron"
)

// Search queries every portal's public catalog concurrently and merges
// the hits into distinct titles. Portal failures land in the outcome's
// error map; the merged entries cover whatever portals answered.
func (a *Aggregator) Search(ctx context.Context, query agron.Query) SearchOutcome {
	ctx, span := tracer.Start(ctx, "aggregator:Search")
	defer span.End()

	clients := map[string]*agron.Client{}
	errs := map[string]string{}
	for _, slug := range a.slugs() {
		client, err := a.anonymousClient(ctx, slug)
		if err != nil {
			errs[slug] = err.Error()
			continue
		}
		clients[slug] = client
	}

	result := fanOut(ctx, clients, errs, func(ctx context.Context, client *agron.Client) ([]agron.SearchResults, error) {
		results, err := client.Search(ctx, query)
		if err != nil {
			return nil, err
		}
		return []agron.SearchResults{results}, nil
	})

	outcome := SearchOutcome{Errors: result.Errors}
	byPortal := map[string][]agron.SearchResult{}
	for slug, wrapped := range result.ByPortal {
		results := wrapped[0]
		byPortal[slug] = results.Items
		outcome.Infos = append(outcome.Infos, SearchInfo{
			Slug:         slug,
			TotalCount:   results.TotalCount,
			FetchedCount: len(results.Items),
		})
	}
	sort.Slice(outcome.Infos, func(i, j int) bool {
		return outcome.Infos[i].Slug < outcome.Infos[j].Slug
	})

	outcome.Entries = mergeAndRank(byPortal)
	return outcome
}

type rankedHit struct {
	rank   int
	portal string
	result agron.SearchResult
}

type mergeGroup struct {
	members []rankedHit
}

// mergeAndRank groups the per-portal hits into distinct titles by their
// punctuation-insensitive (title, author) key and orders the groups by
// a relevance score favoring titles held by many portals and ranked
// high in their native result lists. Every hit stays in its group's
// member list; a portal appearing twice in a group still counts once
// toward the score.
func mergeAndRank(byPortal map[string][]agron.SearchResult) []MergedEntry {
	portals := make([]string, 0, len(byPortal))
	for portal := range byPortal {
		portals = append(portals, portal)
	}
	sort.Strings(portals)

	groups := map[string]*mergeGroup{}
	var order []string
	for _, portal := range portals {
		for rank, hit := range byPortal[portal] {
			key := hit.GroupKey()
			group, ok := groups[key]
			if !ok {
				group = &mergeGroup{}
				groups[key] = group
				order = append(order, key)
			}
			group.members = append(group.members, rankedHit{
				rank:   rank,
				portal: portal,
				result: hit,
			})
		}
	}

	entries := make([]MergedEntry, 0, len(order))
	for _, key := range order {
		entries = append(entries, buildEntry(groups[key]))
	}
	// score descending; equal scores keep first-seen order
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

func buildEntry(group *mergeGroup) MergedEntry {
	members := group.members
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].rank != members[j].rank {
			return members[i].rank < members[j].rank
		}
		return members[i].portal < members[j].portal
	})

	portals := map[string]bool{}
	for _, member := range members {
		portals[member.portal] = true
	}

	representative := members[0].result
	bestRank := members[0].rank
	score := 10 * len(portals)
	if bestRank < 20 {
		score += 20 - bestRank
	}

	entry := MergedEntry{
		Title:        representative.Title,
		Author:       representative.Author,
		Series:       representative.Series,
		SeriesNumber: representative.SeriesNumber,
		Score:        score,
	}
	for _, member := range members {
		entry.Members = append(entry.Members, member.result)
	}
	return entry
}
