// Package scrape runs the fetch, extract and assemble pipeline for one target.
package scrape

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-lead-scraper/internal/extract"
	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
	"github.com/JakeFAU/realtime-lead-scraper/internal/metrics"
)

// Result is the outcome of a single Job.Run.
type Result struct {
	Leads   []lead.Lead
	Failure lead.FailureKind
	Err     error
}

// Job turns one target into leads.
type Job struct {
	fetcher   lead.Fetcher
	assembler *lead.Assembler
	logger    *zap.Logger
}

// NewJob constructs a Job.
func NewJob(fetcher lead.Fetcher, assembler *lead.Assembler, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Job{fetcher: fetcher, assembler: assembler, logger: logger.Named("scrape")}
}

// Run fetches target and extracts its leads. Failures are logged and
// reported in the Result; Run itself never fails.
func (j *Job) Run(ctx context.Context, target lead.Target) Result {
	resp, err := j.fetcher.Fetch(ctx, target.URL)
	if err != nil {
		kind := lead.KindOf(err)
		metrics.ObserveFetch(target.URL, string(kind), 0)
		j.logger.Warn("fetch failed",
			zap.String("url", target.URL),
			zap.String("source", target.SourceName),
			zap.String("reason", string(kind)),
			zap.Error(err),
		)
		return Result{Failure: kind, Err: err}
	}
	metrics.ObserveFetch(target.URL, "success", len(resp.Body))

	candidates := extract.All(string(resp.Body))
	leads, err := j.assembler.Assemble(candidates, target)
	if err != nil {
		j.logger.Error("assemble leads failed", zap.String("url", target.URL), zap.Error(err))
		return Result{Err: err}
	}
	metrics.ObserveLeadsFound(target.SourceName, len(leads))
	j.logger.Debug("page scraped",
		zap.String("url", target.URL),
		zap.Int("emails", len(candidates.Emails)),
		zap.Int("leads", len(leads)),
		zap.Bool("headless", resp.UsedHeadless),
	)
	return Result{Leads: leads}
}
