// Package service implements the lead operations behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-lead-scraper/internal/export"
	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
	"github.com/JakeFAU/realtime-lead-scraper/internal/scrape"
	"github.com/JakeFAU/realtime-lead-scraper/internal/targets"
)

// Defaults applied to requests that leave fields empty.
const (
	DefaultSearchLimit = 50
	DefaultListLimit   = 100

	UnknownField       = "Unknown"
	ManualSource       = "Manual"
	BulkSource         = "Bulk"
	CustomTargetSource = "Custom"

	// TargetAddedMessage accompanies a newly registered target.
	TargetAddedMessage = "Target added successfully"
)

// Runner scrapes one target.
type Runner interface {
	Run(ctx context.Context, target lead.Target) scrape.Result
}

// CycleRunner scrapes a list of targets with pacing.
type CycleRunner interface {
	RunCycle(ctx context.Context, targets []lead.Target) lead.CycleReport
}

// Service coordinates the lead store, the target registry and scraping.
type Service struct {
	store    lead.Store
	registry *targets.Registry
	job      Runner
	cycles   CycleRunner
	clock    lead.Clock
	logger   *zap.Logger
}

// New constructs a Service.
func New(
	store lead.Store,
	registry *targets.Registry,
	job Runner,
	cycles CycleRunner,
	clock lead.Clock,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:    store,
		registry: registry,
		job:      job,
		cycles:   cycles,
		clock:    clock,
		logger:   logger.Named("service"),
	}
}

// TriggerRequest asks for a single URL to be scraped now.
type TriggerRequest struct {
	URL      string `json:"url"`
	Industry string `json:"industry"`
	Location string `json:"location"`
	Source   string `json:"source"`
}

// TriggerResult reports a manual scrape.
type TriggerResult struct {
	Scraped    int
	Added      int
	Duplicates int
	Leads      []lead.Lead
}

// TriggerScrape scrapes req.URL once and stores any new leads.
func (s *Service) TriggerScrape(ctx context.Context, req TriggerRequest) (TriggerResult, error) {
	if strings.TrimSpace(req.URL) == "" {
		return TriggerResult{}, lead.NewValidationError("url", "URL is required")
	}
	target := lead.Target{
		URL:        req.URL,
		Industry:   orDefault(req.Industry, UnknownField),
		Location:   orDefault(req.Location, UnknownField),
		SourceName: orDefault(req.Source, ManualSource),
	}
	res := s.job.Run(ctx, target)
	switch {
	case res.Err != nil && res.Failure == lead.FailureNone:
		return TriggerResult{}, fmt.Errorf("scrape %s: %w", target.URL, res.Err)
	case res.Failure != lead.FailureNone:
		// A failed fetch yields no leads; the request itself still succeeds.
		s.logger.Warn("manual scrape fetch failed",
			zap.String("url", target.URL),
			zap.String("reason", string(res.Failure)),
		)
	}
	leads := res.Leads
	if leads == nil {
		leads = []lead.Lead{}
	}
	added, err := s.store.BulkInsert(ctx, leads)
	if err != nil {
		return TriggerResult{}, fmt.Errorf("insert leads: %w", err)
	}
	s.logger.Info("manual scrape finished",
		zap.String("url", target.URL),
		zap.Int("scraped", len(leads)),
		zap.Int("added", added),
	)
	return TriggerResult{
		Scraped:    len(leads),
		Added:      added,
		Duplicates: len(leads) - added,
		Leads:      leads,
	}, nil
}

// BulkResult reports a bulk scrape.
type BulkResult struct {
	Scraped    int
	Added      int
	Duplicates int
	TotalLeads int
}

// BulkScrape runs one paced pass over targets. Every target needs a URL;
// an empty source becomes "Bulk".
func (s *Service) BulkScrape(ctx context.Context, list []lead.Target) (BulkResult, error) {
	prepared := make([]lead.Target, 0, len(list))
	for i, t := range list {
		if strings.TrimSpace(t.URL) == "" {
			return BulkResult{}, lead.NewValidationError(
				fmt.Sprintf("targets[%d].url", i), "Each target must include a URL")
		}
		t.SourceName = orDefault(t.SourceName, BulkSource)
		prepared = append(prepared, t)
	}
	report := s.cycles.RunCycle(ctx, prepared)
	total, err := s.store.Count(ctx)
	if err != nil {
		return BulkResult{}, fmt.Errorf("count leads: %w", err)
	}
	return BulkResult{
		Scraped:    report.Found,
		Added:      report.Scraped,
		Duplicates: report.Found - report.Scraped,
		TotalLeads: total,
	}, nil
}

// SearchRequest filters stored leads. Industry and location are required.
type SearchRequest struct {
	Industry string
	Location string
	Limit    int
}

// SearchQuery echoes the effective search parameters.
type SearchQuery struct {
	Industry string `json:"industry"`
	Location string `json:"location"`
	Limit    int    `json:"limit"`
}

// Search returns stored leads matching req, at most req.Limit (default 50).
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]lead.Lead, SearchQuery, error) {
	if req.Industry == "" || req.Location == "" {
		field := "industry"
		if req.Industry != "" {
			field = "location"
		}
		return nil, SearchQuery{}, lead.NewValidationError(field, "Industry and location are required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := SearchQuery{Industry: req.Industry, Location: req.Location, Limit: limit}
	leads, err := s.store.Filter(ctx, lead.LeadQuery{
		Industry: req.Industry,
		Location: req.Location,
		Limit:    limit,
	})
	if err != nil {
		return nil, q, fmt.Errorf("search leads: %w", err)
	}
	return leads, q, nil
}

// Page is one slice of the stored collection.
type Page struct {
	Leads  []lead.Lead
	Total  int
	Limit  int
	Offset int
}

// List pages through stored leads in insertion order.
func (s *Service) List(ctx context.Context, limit, offset int) (Page, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	leads, total, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return Page{}, fmt.Errorf("list leads: %w", err)
	}
	return Page{Leads: leads, Total: total, Limit: limit, Offset: offset}, nil
}

// Stats summarizes the stored collection.
func (s *Service) Stats(ctx context.Context) (lead.Stats, error) {
	stats, err := s.store.Stats(ctx, s.clock.Now())
	if err != nil {
		return lead.Stats{}, fmt.Errorf("compute stats: %w", err)
	}
	return stats, nil
}

// Export renders every stored lead as CSV and suggests a file name.
func (s *Service) Export(ctx context.Context) (string, string, error) {
	leads, err := s.store.Filter(ctx, lead.LeadQuery{})
	if err != nil {
		return "", "", fmt.Errorf("load leads: %w", err)
	}
	body, err := export.CSV(leads)
	if err != nil {
		return "", "", err
	}
	return body, fmt.Sprintf("leads_%d.csv", s.clock.Now().UnixMilli()), nil
}

// Dedupe removes duplicate emails and reports removed and remaining counts.
func (s *Service) Dedupe(ctx context.Context) (int, int, error) {
	removed, err := s.store.Dedupe(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("dedupe leads: %w", err)
	}
	remaining, err := s.store.Count(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("count leads: %w", err)
	}
	return removed, remaining, nil
}

// Clear deletes every stored lead.
func (s *Service) Clear(ctx context.Context) (int, error) {
	n, err := s.store.Clear(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear leads: %w", err)
	}
	s.logger.Info("leads cleared", zap.Int("count", n))
	return n, nil
}

// TargetRequest registers a new scrape target.
type TargetRequest struct {
	URL      string `json:"url"`
	Industry string `json:"industry"`
	Location string `json:"location"`
	Source   string `json:"source"`
}

// AddTarget validates req and appends it to the registry. It returns the
// stored target and the new registry size.
func (s *Service) AddTarget(req TargetRequest) (lead.Target, int, error) {
	for _, f := range []struct{ name, value string }{
		{"url", req.URL},
		{"industry", req.Industry},
		{"location", req.Location},
	} {
		if f.value == "" {
			return lead.Target{}, 0, lead.NewValidationError(f.name, "URL, industry, and location are required")
		}
	}
	t := s.registry.Add(lead.Target{
		URL:        req.URL,
		Industry:   req.Industry,
		Location:   req.Location,
		SourceName: orDefault(req.Source, CustomTargetSource),
	})
	return t, s.registry.Len(), nil
}

// ListTargets filters the registry and reports the unfiltered total.
func (s *Service) ListTargets(q lead.TargetQuery) ([]lead.Target, int) {
	return s.registry.Query(q), s.registry.Len()
}

// TargetSources lists the distinct source names in the registry.
func (s *Service) TargetSources() []string {
	return s.registry.Sources()
}

// Health reports store and registry sizes.
func (s *Service) Health(ctx context.Context) (int, int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, s.registry.Len(), fmt.Errorf("count leads: %w", err)
	}
	return n, s.registry.Len(), nil
}

// namedSources are reported individually on the index route; everything
// else is counted as industry specific.
var namedSources = []struct {
	key    string
	source string
}{
	{"yellowPages", "YellowPages"},
	{"yelp", "Yelp"},
	{"linkedin", "LinkedIn"},
	{"crunchbase", "Crunchbase"},
	{"angelList", "AngelList"},
	{"productHunt", "Product Hunt"},
}

// SourceBreakdown counts registry targets per well-known source.
func (s *Service) SourceBreakdown() map[string]int {
	out := make(map[string]int, len(namedSources)+1)
	named := 0
	for _, ns := range namedSources {
		n := s.registry.CountBySource(ns.source)
		out[ns.key] = n
		named += n
	}
	out["industrySpecific"] = s.registry.Len() - named
	return out
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	var ve *lead.ValidationError
	return errors.As(err, &ve)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
