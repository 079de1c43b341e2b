// Package main hosts the lead scraper service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes the scrape, search, listing, export, and target endpoints plus
//     health and metrics. Handlers delegate to internal/service, which validates input and talks to the store.
//   - Scheduler: internal/scheduler walks the target registry once per interval, pacing requests with a random
//     delay. Each cycle ends with hooks that publish a cycle event and, when enabled, archive a CSV snapshot.
//   - Fetch pipeline: the Colly fetcher retrieves pages with browser-like headers and an optional per-host rate
//     limiter. When headless is enabled, thin pages are promoted to a Chromedp fetch.
//   - Extraction: internal/extract pulls emails, phone numbers, and names out of markup; internal/lead assembles
//     them into leads, and the store drops emails it has already seen.
//   - Persistence: leads live in memory, Postgres, or a remote webhook store. CSV exports can be archived to
//     memory, local disk, or GCS.
//
// Quick checklist:
//   - Configure env vars: LEADS_SERVER_PORT, LEADS_STORE_BACKEND, LEADS_DATABASE_DSN, LEADS_WEBHOOK_URL,
//     LEADS_AUTH_ENABLED/LEADS_AUTH_API_KEY, LEADS_SCHEDULE_ENABLED, and LEADS_PUBSUB_* when publishing cycles.
//   - Run locally: go run ./cmd/leadscraper -config config.yaml (or rely solely on env overrides).
package main
