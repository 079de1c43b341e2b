// Package lead defines the core types shared across the scraping pipeline.
package lead

import (
	"time"
)

// UnknownSource labels leads whose target carried no source name.
const UnknownSource = "Unknown"

// Target describes one page to scrape and the metadata its leads inherit.
type Target struct {
	URL          string    `json:"url" mapstructure:"url"`
	Industry     string    `json:"industry" mapstructure:"industry"`
	Location     string    `json:"location" mapstructure:"location"`
	SourceName   string    `json:"source" mapstructure:"source"`
	RequiresAuth bool      `json:"requiresAuth,omitempty" mapstructure:"requires_auth"`
	AddedAt      time.Time `json:"addedAt,omitempty" mapstructure:"-"`
}

// Lead is one discovered contact. Email is the identity key.
type Lead struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Company    string    `json:"company"`
	Phone      string    `json:"phone"`
	PhoneE164  string    `json:"phoneE164,omitempty"`
	Industry   string    `json:"industry"`
	Location   string    `json:"location"`
	SourceURL  string    `json:"source"`
	SourceName string    `json:"sourceName"`
	ScrapedAt  time.Time `json:"scrapedAt"`
	Verified   bool      `json:"verified"`
}

// Candidates holds the raw signals pulled out of one document.
type Candidates struct {
	Emails        []string
	Phones        []string
	Organizations []string
	People        []string
}

// Stats aggregates the current contents of a Store.
type Stats struct {
	Total       int            `json:"total"`
	ByIndustry  map[string]int `json:"byIndustry"`
	ByLocation  map[string]int `json:"byLocation"`
	BySource    map[string]int `json:"bySource"`
	Verified    int            `json:"verified"`
	Recent      int            `json:"recent"`
	WithPhone   int            `json:"withPhone"`
	WithCompany int            `json:"withCompany"`
	WithName    int            `json:"withName"`
}

// CycleReport summarizes one pass of the scheduler over a target list.
type CycleReport struct {
	// Scraped counts leads that were newly inserted into the store.
	Scraped int `json:"scrapedCount"`
	// Found counts every lead returned by jobs, duplicates included.
	Found      int       `json:"foundCount"`
	Succeeded  int       `json:"successCount"`
	Failed     int       `json:"failedCount"`
	Skipped    int       `json:"skippedCount"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Duration reports how long the cycle ran.
func (r CycleReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL          string
	StatusCode   int
	Body         []byte
	Duration     time.Duration
	UsedHeadless bool
}

// RecentWindow is how far back a lead counts as recent in Stats.
const RecentWindow = 24 * time.Hour

// Summarize computes Stats over leads relative to now.
func Summarize(leads []Lead, now time.Time) Stats {
	stats := Stats{
		Total:      len(leads),
		ByIndustry: map[string]int{},
		ByLocation: map[string]int{},
		BySource:   map[string]int{},
	}
	cutoff := now.Add(-RecentWindow)
	for _, l := range leads {
		stats.ByIndustry[l.Industry]++
		stats.ByLocation[l.Location]++
		source := l.SourceName
		if source == "" {
			source = UnknownSource
		}
		stats.BySource[source]++
		if l.Verified {
			stats.Verified++
		}
		if l.ScrapedAt.After(cutoff) {
			stats.Recent++
		}
		if l.Phone != "" {
			stats.WithPhone++
		}
		if l.Company != "" {
			stats.WithCompany++
		}
		if l.Name != "" {
			stats.WithName++
		}
	}
	return stats
}
