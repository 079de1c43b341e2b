package scrape

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
)

type fakeFetcher struct {
	body string
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (lead.FetchResponse, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return lead.FetchResponse{}, f.err
	}
	return lead.FetchResponse{URL: url, StatusCode: 200, Body: []byte(f.body)}, nil
}

type fakeClock struct{ now time.Time }

func (c fakeClock) Now() time.Time { return c.now }

func (c fakeClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

type fakeIDGen struct {
	n   int
	err error
}

func (g *fakeIDGen) NewID() (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.n++
	return fmt.Sprintf("id-%d", g.n), nil
}

const page = `<html><body>
<h1>Acme Corporation</h1>
<p class="contact-name">Jane Doe</p>
<p>Email jane@acme.com or info@acme.com, not noreply@acme.com. Call (212) 736-5000.</p>
</body></html>`

func TestJobRunExtractsLeads(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{body: page}
	job := NewJob(fetcher, lead.NewAssembler(fakeClock{now: now}, &fakeIDGen{}, ""), zap.NewNop())
	target := lead.Target{URL: "https://dir.test", Industry: "Technology", Location: "USA", SourceName: "G2"}

	res := job.Run(context.Background(), target)
	require.NoError(t, res.Err)
	assert.Equal(t, lead.FailureNone, res.Failure)
	require.Len(t, res.Leads, 2)
	assert.Equal(t, "jane@acme.com", res.Leads[0].Email)
	assert.Equal(t, "Jane Doe", res.Leads[0].Name)
	assert.Equal(t, "Acme Corporation", res.Leads[0].Company)
	assert.Equal(t, "+12127365000", res.Leads[0].PhoneE164)
	assert.Equal(t, "info@acme.com", res.Leads[1].Email)
	assert.Equal(t, "G2", res.Leads[1].SourceName)
	assert.Equal(t, now, res.Leads[1].ScrapedAt)
	assert.Equal(t, []string{"https://dir.test"}, fetcher.urls)
}

func TestJobRunLogsClassifiedFailure(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	fetcher := &fakeFetcher{err: &lead.FetchError{Kind: lead.FailureRateLimited, URL: "https://yelp.test", StatusCode: 429}}
	job := NewJob(fetcher, lead.NewAssembler(fakeClock{}, &fakeIDGen{}, ""), zap.New(core))

	res := job.Run(context.Background(), lead.Target{URL: "https://yelp.test", SourceName: "Yelp"})
	assert.Empty(t, res.Leads)
	assert.Equal(t, lead.FailureRateLimited, res.Failure)
	require.ErrorIs(t, res.Err, lead.ErrFetchRateLimited)

	entries := logs.FilterMessage("fetch failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "rate_limited", entries[0].ContextMap()["reason"])
}

func TestJobRunUnclassifiedErrorIsNetwork(t *testing.T) {
	t.Parallel()

	job := NewJob(&fakeFetcher{err: errors.New("dns")}, lead.NewAssembler(fakeClock{}, &fakeIDGen{}, ""), nil)
	res := job.Run(context.Background(), lead.Target{URL: "https://bad.test"})
	assert.Equal(t, lead.FailureNetwork, res.Failure)
	assert.Empty(t, res.Leads)
}

func TestJobRunPageWithoutEmails(t *testing.T) {
	t.Parallel()

	job := NewJob(&fakeFetcher{body: "<h1>Nothing here</h1>"}, lead.NewAssembler(fakeClock{}, &fakeIDGen{}, ""), nil)
	res := job.Run(context.Background(), lead.Target{URL: "https://empty.test"})
	require.NoError(t, res.Err)
	assert.Empty(t, res.Leads)
}

func TestJobRunAssembleFailure(t *testing.T) {
	t.Parallel()

	job := NewJob(&fakeFetcher{body: page}, lead.NewAssembler(fakeClock{}, &fakeIDGen{err: errors.New("entropy")}, ""), nil)
	res := job.Run(context.Background(), lead.Target{URL: "https://dir.test"})
	require.Error(t, res.Err)
	assert.Empty(t, res.Leads)
}
