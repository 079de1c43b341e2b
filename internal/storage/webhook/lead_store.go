// Package webhook proxies lead storage to a remote JSON endpoint, such as a
// spreadsheet script, that owns the collection.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
)

const defaultTimeout = 30 * time.Second

// Remote actions understood by the webhook endpoint.
const (
	ActionInsert = "insert"
	ActionFilter = "filter"
	ActionList   = "list"
	ActionDedupe = "dedupe"
	ActionClear  = "clear"
	ActionCount  = "count"
)

// Config points the store at its remote endpoint.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Request is the JSON body POSTed for every action.
type Request struct {
	Action string      `json:"action"`
	Leads  []lead.Lead `json:"leads,omitempty"`
	Query  *Query      `json:"query,omitempty"`
	Limit  int         `json:"limit,omitempty"`
	Offset int         `json:"offset,omitempty"`
}

// Query carries filter fields for ActionFilter.
type Query struct {
	Industry string `json:"industry,omitempty"`
	Location string `json:"location,omitempty"`
	Source   string `json:"source,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Response is the JSON body returned by the endpoint. Fields not relevant
// to an action are left zero.
type Response struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	Added   int         `json:"added"`
	Removed int         `json:"removed"`
	Total   int         `json:"total"`
	Leads   []lead.Lead `json:"leads"`
}

// LeadStore implements lead.Store against a webhook endpoint.
type LeadStore struct {
	url    string
	client *http.Client
}

// Option customizes the LeadStore.
type Option func(*LeadStore)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *LeadStore) {
		s.client = c
	}
}

// New validates cfg and returns a LeadStore.
func New(cfg Config, opts ...Option) (*LeadStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook.url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	s := &LeadStore{url: cfg.URL, client: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// InsertIfAbsent implements lead.Store.
func (s *LeadStore) InsertIfAbsent(ctx context.Context, l lead.Lead) (bool, error) {
	n, err := s.BulkInsert(ctx, []lead.Lead{l})
	return n == 1, err
}

// BulkInsert implements lead.Store. The remote decides which leads are new.
func (s *LeadStore) BulkInsert(ctx context.Context, leads []lead.Lead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}
	resp, err := s.call(ctx, Request{Action: ActionInsert, Leads: leads})
	if err != nil {
		return 0, err
	}
	return resp.Added, nil
}

// Dedupe implements lead.Store.
func (s *LeadStore) Dedupe(ctx context.Context) (int, error) {
	resp, err := s.call(ctx, Request{Action: ActionDedupe})
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

// Filter implements lead.Store.
func (s *LeadStore) Filter(ctx context.Context, q lead.LeadQuery) ([]lead.Lead, error) {
	resp, err := s.call(ctx, Request{Action: ActionFilter, Query: &Query{
		Industry: q.Industry,
		Location: q.Location,
		Source:   q.Source,
		Limit:    q.Limit,
	}})
	if err != nil {
		return nil, err
	}
	return nonNil(resp.Leads), nil
}

// List implements lead.Store.
func (s *LeadStore) List(ctx context.Context, limit, offset int) ([]lead.Lead, int, error) {
	resp, err := s.call(ctx, Request{Action: ActionList, Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, err
	}
	return nonNil(resp.Leads), resp.Total, nil
}

// Clear implements lead.Store.
func (s *LeadStore) Clear(ctx context.Context) (int, error) {
	resp, err := s.call(ctx, Request{Action: ActionClear})
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

// Stats summarizes the full remote collection locally.
func (s *LeadStore) Stats(ctx context.Context, now time.Time) (lead.Stats, error) {
	leads, err := s.Filter(ctx, lead.LeadQuery{})
	if err != nil {
		return lead.Stats{}, err
	}
	return lead.Summarize(leads, now), nil
}

// Count implements lead.Store.
func (s *LeadStore) Count(ctx context.Context) (int, error) {
	resp, err := s.call(ctx, Request{Action: ActionCount})
	if err != nil {
		return 0, err
	}
	return resp.Total, nil
}

func (s *LeadStore) call(ctx context.Context, body Request) (Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return Response{}, fmt.Errorf("marshal webhook %s: %w", body.Action, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("build webhook %s: %w", body.Action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := s.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("call webhook %s: %w", body.Action, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 32<<20))
	if err != nil {
		return Response{}, fmt.Errorf("read webhook %s: %w", body.Action, err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return Response{}, fmt.Errorf("webhook %s: unexpected status %d", body.Action, httpResp.StatusCode)
	}
	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return Response{}, fmt.Errorf("decode webhook %s: %w", body.Action, err)
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "remote reported failure"
		}
		return Response{}, fmt.Errorf("webhook %s: %s", body.Action, msg)
	}
	return out, nil
}

func nonNil(leads []lead.Lead) []lead.Lead {
	if leads == nil {
		return []lead.Lead{}
	}
	return leads
}
