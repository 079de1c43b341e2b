// Package api hosts the HTTP server, middleware, and REST handlers for the
// lead scraper. Notable routes:
//   - GET /health, /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /api/scrape/trigger and /api/scrape/bulk to scrape on demand.
//   - /api/leads/... to search, page, export, dedupe and clear leads.
//   - /api/scrape/targets to list and register scrape targets.
package api
