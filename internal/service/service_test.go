package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/realtime-lead-scraper/internal/export"
	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
	"github.com/JakeFAU/realtime-lead-scraper/internal/scheduler"
	"github.com/JakeFAU/realtime-lead-scraper/internal/scrape"
	"github.com/JakeFAU/realtime-lead-scraper/internal/storage/memory"
	"github.com/JakeFAU/realtime-lead-scraper/internal/targets"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func (c fixedClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

// pageRunner returns leads for each URL from a fixed table.
type pageRunner struct {
	mu    sync.Mutex
	pages map[string][]string
	seen  []lead.Target
	err   error
}

func (r *pageRunner) Run(_ context.Context, target lead.Target) scrape.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, target)
	if r.err != nil {
		return scrape.Result{Err: r.err}
	}
	var leads []lead.Lead
	for _, email := range r.pages[target.URL] {
		leads = append(leads, lead.Lead{
			ID:         "id-" + email,
			Email:      email,
			Industry:   target.Industry,
			Location:   target.Location,
			SourceURL:  target.URL,
			SourceName: target.SourceName,
		})
	}
	if len(leads) == 0 {
		return scrape.Result{
			Failure: lead.FailureNetwork,
			Err: &lead.FetchError{
				Kind: lead.FailureNetwork,
				URL:  target.URL,
				Err:  errors.New("dial tcp: no such host"),
			},
		}
	}
	return scrape.Result{Leads: leads}
}

type noPause struct{}

func (noPause) Pause(context.Context) error { return nil }

type fixture struct {
	svc      *Service
	store    *memory.LeadStore
	registry *targets.Registry
	runner   *pageRunner
	now      time.Time
}

func newFixture(t *testing.T, initial []lead.Target) *fixture {
	t.Helper()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := fixedClock{now: now}
	store := memory.NewLeadStore()
	registry := targets.NewRegistry(clock, initial)
	runner := &pageRunner{pages: map[string][]string{}}
	sched := scheduler.New(runner, store, noPause{}, clock, scheduler.Config{}, nil)
	return &fixture{
		svc:      New(store, registry, runner, sched, clock, nil),
		store:    store,
		registry: registry,
		runner:   runner,
		now:      now,
	}
}

func requireValidation(t *testing.T, err error, field, message string) {
	t.Helper()
	var ve *lead.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, field, ve.Field)
	assert.Equal(t, message, ve.Message)
	assert.True(t, IsValidation(err))
}

func TestTriggerScrapeAppliesDefaultsAndCountsDuplicates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.runner.pages["https://dir.test/a"] = []string{"a@acme.io", "b@beta.io"}
	_, err := f.store.InsertIfAbsent(context.Background(), lead.Lead{Email: "a@acme.io"})
	require.NoError(t, err)

	res, err := f.svc.TriggerScrape(context.Background(), TriggerRequest{URL: "https://dir.test/a"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Scraped)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Duplicates)
	require.Len(t, res.Leads, 2)

	require.Len(t, f.runner.seen, 1)
	assert.Equal(t, lead.Target{
		URL:        "https://dir.test/a",
		Industry:   UnknownField,
		Location:   UnknownField,
		SourceName: ManualSource,
	}, f.runner.seen[0])
}

func TestTriggerScrapeFailedFetchIsEmptySuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	res, err := f.svc.TriggerScrape(context.Background(), TriggerRequest{URL: "https://down.test"})
	require.NoError(t, err)
	assert.Zero(t, res.Scraped)
	assert.NotNil(t, res.Leads)
}

type stubFetcher struct {
	body string
	err  error
}

func (f stubFetcher) Fetch(_ context.Context, url string) (lead.FetchResponse, error) {
	if f.err != nil {
		return lead.FetchResponse{}, f.err
	}
	return lead.FetchResponse{URL: url, StatusCode: 200, Body: []byte(f.body)}, nil
}

type stubIDGen struct{ err error }

func (g stubIDGen) NewID() (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return "lead-1", nil
}

func newJobService(t *testing.T, fetcher lead.Fetcher, ids lead.IDGenerator) (*Service, *memory.LeadStore) {
	t.Helper()
	clock := fixedClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.NewLeadStore()
	job := scrape.NewJob(fetcher, lead.NewAssembler(clock, ids, lead.DefaultPhoneRegion), nil)
	sched := scheduler.New(job, store, noPause{}, clock, scheduler.Config{}, nil)
	return New(store, targets.NewRegistry(clock, nil), job, sched, clock, nil), store
}

func TestTriggerScrapeWithJobContainsFetchFailures(t *testing.T) {
	t.Parallel()

	kinds := []lead.FailureKind{
		lead.FailureNetwork,
		lead.FailureTimeout,
		lead.FailureForbidden,
		lead.FailureRateLimited,
	}
	for _, kind := range kinds {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			svc, store := newJobService(t, stubFetcher{err: &lead.FetchError{
				Kind: kind,
				URL:  "https://bad.test",
				Err:  errors.New("dial tcp: no such host"),
			}}, stubIDGen{})

			res, err := svc.TriggerScrape(context.Background(), TriggerRequest{URL: "https://bad.test"})
			require.NoError(t, err)
			assert.Equal(t, TriggerResult{Leads: []lead.Lead{}}, res)

			n, err := store.Count(context.Background())
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestTriggerScrapeWithJobStoresLeads(t *testing.T) {
	t.Parallel()

	svc, _ := newJobService(t, stubFetcher{body: "<p>jane@acme.io</p>"}, stubIDGen{})
	res, err := svc.TriggerScrape(context.Background(), TriggerRequest{URL: "https://acme.test"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Scraped)
	assert.Equal(t, 1, res.Added)
	require.Len(t, res.Leads, 1)
	assert.Equal(t, "jane@acme.io", res.Leads[0].Email)
}

func TestTriggerScrapeWithJobAssemblyErrorFails(t *testing.T) {
	t.Parallel()

	svc, _ := newJobService(t, stubFetcher{body: "<p>jane@acme.io</p>"}, stubIDGen{err: errors.New("entropy exhausted")})
	_, err := svc.TriggerScrape(context.Background(), TriggerRequest{URL: "https://acme.test"})
	require.ErrorContains(t, err, "entropy exhausted")
	assert.False(t, IsValidation(err))
}

func TestTriggerScrapeValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	_, err := f.svc.TriggerScrape(context.Background(), TriggerRequest{URL: "  "})
	requireValidation(t, err, "url", "URL is required")
	assert.Empty(t, f.runner.seen)

	f.runner.err = errors.New("entropy exhausted")
	_, err = f.svc.TriggerScrape(context.Background(), TriggerRequest{URL: "https://x.test"})
	require.ErrorContains(t, err, "entropy exhausted")
	assert.False(t, IsValidation(err))
}

func TestBulkScrape(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	f.runner.pages["https://one.test"] = []string{"a@acme.io", "b@beta.io"}
	f.runner.pages["https://two.test"] = []string{"b@beta.io", "c@gamma.io"}

	res, err := f.svc.BulkScrape(context.Background(), []lead.Target{
		{URL: "https://one.test", Industry: "Technology"},
		{URL: "https://two.test", SourceName: "Yelp"},
		{URL: "https://empty.test"},
	})
	require.NoError(t, err)
	assert.Equal(t, BulkResult{Scraped: 4, Added: 3, Duplicates: 1, TotalLeads: 3}, res)

	require.Len(t, f.runner.seen, 3)
	assert.Equal(t, BulkSource, f.runner.seen[0].SourceName)
	assert.Equal(t, "Yelp", f.runner.seen[1].SourceName)
}

func TestBulkScrapeRequiresEveryURL(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	_, err := f.svc.BulkScrape(context.Background(), []lead.Target{{URL: "https://ok.test"}, {}})
	requireValidation(t, err, "targets[1].url", "Each target must include a URL")
	assert.Empty(t, f.runner.seen)
}

func seed(t *testing.T, store lead.Store, leads ...lead.Lead) {
	t.Helper()
	_, err := store.BulkInsert(context.Background(), leads)
	require.NoError(t, err)
}

func TestSearch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	seed(t, f.store,
		lead.Lead{Email: "a@acme.io", Industry: "Technology", Location: "San Francisco"},
		lead.Lead{Email: "b@beta.io", Industry: "Healthcare", Location: "San Diego"},
		lead.Lead{Email: "c@gamma.io", Industry: "Tech Services", Location: "Austin"},
	)

	got, q, err := f.svc.Search(context.Background(), SearchRequest{Industry: "tech", Location: "san"})
	require.NoError(t, err)
	assert.Equal(t, SearchQuery{Industry: "tech", Location: "san", Limit: DefaultSearchLimit}, q)
	require.Len(t, got, 1)
	assert.Equal(t, "a@acme.io", got[0].Email)

	got, _, err = f.svc.Search(context.Background(), SearchRequest{Industry: lead.AllIndustries, Location: "san", Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a@acme.io", got[0].Email)

	_, _, err = f.svc.Search(context.Background(), SearchRequest{Location: "san"})
	requireValidation(t, err, "industry", "Industry and location are required")
	_, _, err = f.svc.Search(context.Background(), SearchRequest{Industry: "tech"})
	requireValidation(t, err, "location", "Industry and location are required")
}

func TestListDefaultsAndPaging(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	for i := range 5 {
		seed(t, f.store, lead.Lead{Email: fmt.Sprintf("u%d@acme.io", i)})
	}

	page, err := f.svc.List(context.Background(), 0, -3)
	require.NoError(t, err)
	assert.Equal(t, DefaultListLimit, page.Limit)
	assert.Zero(t, page.Offset)
	assert.Equal(t, 5, page.Total)
	assert.Len(t, page.Leads, 5)

	page, err = f.svc.List(context.Background(), 2, 4)
	require.NoError(t, err)
	require.Len(t, page.Leads, 1)
	assert.Equal(t, "u4@acme.io", page.Leads[0].Email)
}

func TestStatsExportDedupeClear(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	ctx := context.Background()

	_, _, err := f.svc.Export(ctx)
	require.ErrorIs(t, err, export.ErrEmptyExport)

	seed(t, f.store, lead.Lead{Email: "a@acme.io", Company: "Acme", ScrapedAt: f.now})

	stats, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Recent)

	body, name, err := f.svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("leads_%d.csv", f.now.UnixMilli()), name)
	assert.True(t, strings.HasPrefix(body, export.Header+"\n"))

	removed, remaining, err := f.svc.Dedupe(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, 1, remaining)

	n, err := f.svc.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	total, targetsLen, err := f.svc.Health(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, targetsLen)
}

func TestAddAndListTargets(t *testing.T) {
	t.Parallel()

	f := newFixture(t, targets.Defaults())
	before := f.registry.Len()

	_, _, err := f.svc.AddTarget(TargetRequest{URL: "https://x.test", Industry: "Retail"})
	requireValidation(t, err, "location", "URL, industry, and location are required")

	added, total, err := f.svc.AddTarget(TargetRequest{URL: "https://x.test", Industry: "Retail", Location: "Reno"})
	require.NoError(t, err)
	assert.Equal(t, before+1, total)
	assert.Equal(t, CustomTargetSource, added.SourceName)
	assert.Equal(t, f.now, added.AddedAt)

	filtered, all := f.svc.ListTargets(lead.TargetQuery{Location: "reno"})
	assert.Equal(t, before+1, all)
	require.Len(t, filtered, 1)
	assert.Equal(t, "https://x.test", filtered[0].URL)
}

func TestSourceBreakdown(t *testing.T) {
	t.Parallel()

	f := newFixture(t, targets.Defaults())
	got := f.svc.SourceBreakdown()
	assert.Equal(t, 10, got["yellowPages"])
	assert.Equal(t, 8, got["yelp"])
	assert.Equal(t, 3, got["linkedin"])

	sum := 0
	for _, n := range got {
		sum += n
	}
	assert.Equal(t, f.registry.Len(), sum)
}
