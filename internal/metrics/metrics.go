// Package metrics exposes Prometheus collectors for the lead scraper service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fetchTotal                 *prometheus.CounterVec
	fetchBytesTotal            *prometheus.CounterVec
	leadsFoundTotal            *prometheus.CounterVec
	leadsInsertedTotal         prometheus.Counter
	targetsTotal               *prometheus.CounterVec
	cycleDurationSeconds       prometheus.Histogram
	storeLeads                 prometheus.Gauge
	robotsFallbackTotal        prometheus.Counter
	headlessPromotionsTotal    *prometheus.CounterVec
	rateLimitDelaySeconds      *prometheus.HistogramVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscraper_fetch_total",
				Help: "Total number of page fetches, labeled by site and outcome.",
			},
			[]string{"site", "outcome"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscraper_fetch_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		leadsFoundTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscraper_leads_found_total",
				Help: "Leads assembled from fetched pages, labeled by source name.",
			},
			[]string{"source"},
		)

		leadsInsertedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "leadscraper_leads_inserted_total",
				Help: "Leads newly added to the store.",
			},
		)

		targetsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscraper_targets_total",
				Help: "Targets processed by scrape cycles, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		cycleDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "leadscraper_cycle_duration_seconds",
				Help:    "Wall time of complete scrape cycles.",
				Buckets: []float64{10, 30, 60, 120, 300, 600, 1200},
			},
		)

		storeLeads = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "leadscraper_store_leads",
				Help: "Number of leads held by the store after the last cycle.",
			},
		)

		robotsFallbackTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "leadscraper_robots_fallback_total",
				Help: "robots.txt probes that timed out and fell back to allow-all.",
			},
		)

		headlessPromotionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leadscraper_headless_promotions_total",
				Help: "Probe fetches promoted to a headless browser, labeled by result.",
			},
			[]string{"result"},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "leadscraper_rate_limit_delay_seconds",
				Help:    "Histogram of per-host rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one fetch attempt. outcome is "success" or a failure kind.
func ObserveFetch(site, outcome string, bytesFetched int) {
	Init()
	sanitizedSite := SanitizeSite(site)
	fetchTotal.WithLabelValues(sanitizedSite, outcome).Inc()
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(sanitizedSite).Add(float64(bytesFetched))
	}
}

// ObserveLeadsFound adds n assembled leads for source.
func ObserveLeadsFound(source string, n int) {
	Init()
	if source == "" {
		source = "Unknown"
	}
	leadsFoundTotal.WithLabelValues(source).Add(float64(n))
}

// ObserveLeadsInserted adds n newly stored leads.
func ObserveLeadsInserted(n int) {
	Init()
	leadsInsertedTotal.Add(float64(n))
}

// ObserveTarget increments the per-outcome target counter
// ("success", "failed" or "skipped").
func ObserveTarget(outcome string) {
	Init()
	targetsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCycle records a finished cycle and the resulting store size.
func ObserveCycle(duration time.Duration, storeSize int) {
	Init()
	cycleDurationSeconds.Observe(duration.Seconds())
	storeLeads.Set(float64(storeSize))
}

// ObserveRobotsFallback increments the robots.txt fallback counter.
func ObserveRobotsFallback() {
	Init()
	robotsFallbackTotal.Inc()
}

// ObserveHeadlessPromotion records a headless refetch with result
// "rendered" or "fallback".
func ObserveHeadlessPromotion(result string) {
	Init()
	headlessPromotionsTotal.WithLabelValues(result).Inc()
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	rateLimitDelaySeconds.WithLabelValues(domain).Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
