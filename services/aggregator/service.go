// Package aggregator fans user operations out across several library
// portals and joins the per-portal outcomes. One portal failing never
// hides what the others returned.
package aggregator

import (
	"context"
	"sort"
	"sync"

	"libraryil/lib/scrapers/agron"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/aggregator")

// Aggregator owns one scraping client per account plus one anonymous
// client per portal for the public operations. Clients are created
// lazily and cached for the aggregator's lifetime.
//
// Lazy creation is not synchronized; the fan-out methods resolve all
// clients before spawning goroutines, so an Aggregator is safe for the
// usual one-operation-at-a-time use but not for concurrent calls.
type Aggregator struct {
	accounts []Account

	clients   map[string]*agron.Client
	anonymous map[string]*agron.Client
}

func New(accounts []Account) *Aggregator {
	return &Aggregator{
		accounts:  accounts,
		clients:   map[string]*agron.Client{},
		anonymous: map[string]*agron.Client{},
	}
}

// FromSlugs builds an aggregator over credential-less portals, enough
// for the public operations (search, details).
func FromSlugs(slugs []string) *Aggregator {
	accounts := make([]Account, 0, len(slugs))
	for _, slug := range slugs {
		accounts = append(accounts, Account{Slug: slug})
	}
	return New(accounts)
}

// Accounts returns the configured accounts in their original order.
func (a *Aggregator) Accounts() []Account {
	return a.accounts
}

func (a *Aggregator) client(ctx context.Context, account Account) (*agron.Client, error) {
	id := account.ID()
	if client, ok := a.clients[id]; ok {
		return client, nil
	}
	client, err := agron.NewClient(ctx, agron.Options{
		Slug:     account.Slug,
		BaseUrl:  account.BaseURL,
		Username: account.Username,
		Password: account.Password,
	})
	if err != nil {
		return nil, err
	}
	a.clients[id] = client
	return client, nil
}

// anonymousClient returns the shared credential-less client for a
// portal, creating it on first use. An account's BaseURL override
// carries over so tests can point public operations at fixtures.
func (a *Aggregator) anonymousClient(ctx context.Context, slug string) (*agron.Client, error) {
	if client, ok := a.anonymous[slug]; ok {
		return client, nil
	}
	baseURL := ""
	for _, account := range a.accounts {
		if account.Slug == slug && account.BaseURL != "" {
			baseURL = account.BaseURL
			break
		}
	}
	client, err := agron.NewClient(ctx, agron.Options{Slug: slug, BaseUrl: baseURL})
	if err != nil {
		return nil, err
	}
	a.anonymous[slug] = client
	return client, nil
}

// slugs returns the distinct portal slugs across the accounts, sorted.
func (a *Aggregator) slugs() []string {
	seen := map[string]bool{}
	var slugs []string
	for _, account := range a.accounts {
		if !seen[account.Slug] {
			seen[account.Slug] = true
			slugs = append(slugs, account.Slug)
		}
	}
	sort.Strings(slugs)
	return slugs
}

// authenticatedClients resolves the clients of every account that holds
// a live session. Client construction failures land in errs.
func (a *Aggregator) authenticatedClients(ctx context.Context) (map[string]*agron.Client, map[string]string) {
	clients := map[string]*agron.Client{}
	errs := map[string]string{}
	for _, account := range a.accounts {
		if account.Username == "" {
			continue
		}
		client, err := a.client(ctx, account)
		if err != nil {
			errs[account.ID()] = err.Error()
			continue
		}
		if client.State() == agron.StateAuthenticated {
			clients[account.ID()] = client
		}
	}
	return clients, errs
}

// fanOut runs op against every client concurrently and joins the
// outcomes. Every client lands in exactly one of the result's maps; a
// failing portal never cancels its siblings.
func fanOut[T any](ctx context.Context, clients map[string]*agron.Client, errs map[string]string, op func(context.Context, *agron.Client) ([]T, error)) Result[T] {
	result := Result[T]{
		ByPortal: map[string][]T{},
		Errors:   map[string]string{},
	}
	for id, msg := range errs {
		result.Errors[id] = msg
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	for id, client := range clients {
		wg.Add(1)
		go func(id string, client *agron.Client) {
			defer wg.Done()
			items, err := op(ctx, client)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors[id] = err.Error()
				return
			}
			result.ByPortal[id] = items
		}(id, client)
	}
	wg.Wait()

	return result
}

// LoginAll logs every credentialed account in concurrently. The
// returned map carries one message per failing account; accounts absent
// from it hold a live session.
func (a *Aggregator) LoginAll(ctx context.Context) map[string]string {
	ctx, span := tracer.Start(ctx, "aggregator:LoginAll")
	defer span.End()

	clients := map[string]*agron.Client{}
	errs := map[string]string{}
	for _, account := range a.accounts {
		if account.Username == "" {
			continue
		}
		client, err := a.client(ctx, account)
		if err != nil {
			errs[account.ID()] = err.Error()
			continue
		}
		clients[account.ID()] = client
	}

	result := fanOut(ctx, clients, errs, func(ctx context.Context, client *agron.Client) ([]struct{}, error) {
		return nil, client.Login(ctx, "", "")
	})
	return result.Errors
}

// CheckedOutBooks fetches current loans across every logged-in account.
func (a *Aggregator) CheckedOutBooks(ctx context.Context) Result[agron.CheckedOutBook] {
	ctx, span := tracer.Start(ctx, "aggregator:CheckedOutBooks")
	defer span.End()

	clients, errs := a.authenticatedClients(ctx)
	return fanOut(ctx, clients, errs, func(ctx context.Context, client *agron.Client) ([]agron.CheckedOutBook, error) {
		return client.CheckedOutBooks(ctx)
	})
}

// CheckoutHistory fetches loan history across every logged-in account.
func (a *Aggregator) CheckoutHistory(ctx context.Context) Result[agron.HistoryItem] {
	ctx, span := tracer.Start(ctx, "aggregator:CheckoutHistory")
	defer span.End()

	clients, errs := a.authenticatedClients(ctx)
	return fanOut(ctx, clients, errs, func(ctx context.Context, client *agron.Client) ([]agron.HistoryItem, error) {
		return client.CheckoutHistory(ctx)
	})
}

// RenewAll renews every renewable loan across every logged-in account.
func (a *Aggregator) RenewAll(ctx context.Context) Result[agron.RenewalResult] {
	ctx, span := tracer.Start(ctx, "aggregator:RenewAll")
	defer span.End()

	clients, errs := a.authenticatedClients(ctx)
	return fanOut(ctx, clients, errs, func(ctx context.Context, client *agron.Client) ([]agron.RenewalResult, error) {
		return client.RenewAll(ctx)
	})
}

// Close releases every owned client, concurrently and best-effort.
func (a *Aggregator) Close() {
	var wg sync.WaitGroup
	closeAll := func(clients map[string]*agron.Client) {
		for _, client := range clients {
			wg.Add(1)
			go func(client *agron.Client) {
				defer wg.Done()
				client.Close()
			}(client)
		}
	}
	closeAll(a.clients)
	closeAll(a.anonymous)
	wg.Wait()
}
