// Package fetcher composes probe and headless fetchers.
package fetcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
	"github.com/JakeFAU/realtime-lead-scraper/internal/metrics"
)

// Promoting fetches with a plain HTTP probe first and re-renders the page in
// a headless browser when the detector says the probe body is an app shell.
type Promoting struct {
	probe    lead.Fetcher
	headless lead.Fetcher
	detector lead.HeadlessDetector
	logger   *zap.Logger
}

// NewPromoting wires a probe fetcher to a headless fallback.
func NewPromoting(probe, headless lead.Fetcher, detector lead.HeadlessDetector, logger *zap.Logger) *Promoting {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Promoting{
		probe:    probe,
		headless: headless,
		detector: detector,
		logger:   logger.Named("promoting_fetcher"),
	}
}

// Fetch implements lead.Fetcher. Probe failures are returned unchanged; a
// failed headless render falls back to the probe response.
func (p *Promoting) Fetch(ctx context.Context, rawURL string) (lead.FetchResponse, error) {
	resp, err := p.probe.Fetch(ctx, rawURL)
	if err != nil {
		return lead.FetchResponse{}, err
	}
	if p.headless == nil || p.detector == nil || !p.detector.ShouldPromote(resp) {
		return resp, nil
	}

	rendered, err := p.headless.Fetch(ctx, rawURL)
	if err != nil {
		metrics.ObserveHeadlessPromotion("fallback")
		p.logger.Warn("headless render failed, using probe body",
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return resp, nil
	}
	metrics.ObserveHeadlessPromotion("rendered")
	rendered.Duration += resp.Duration
	return rendered, nil
}
