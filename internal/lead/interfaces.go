package lead

import (
	"context"
	"io"
	"time"
)

// Store persists leads keyed by email.
type Store interface {
	InsertIfAbsent(ctx context.Context, l Lead) (bool, error)
	BulkInsert(ctx context.Context, leads []Lead) (int, error)
	Dedupe(ctx context.Context) (int, error)
	Filter(ctx context.Context, q LeadQuery) ([]Lead, error)
	List(ctx context.Context, limit, offset int) ([]Lead, int, error)
	Clear(ctx context.Context) (int, error)
	Stats(ctx context.Context, now time.Time) (Stats, error)
	Count(ctx context.Context) (int, error)
}

// Fetcher fetches a URL and returns the raw document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResponse, error)
}

// HeadlessDetector decides whether a headless fetch is warranted.
type HeadlessDetector interface {
	ShouldPromote(probe FetchResponse) bool
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes content digests.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time and schedules wakeups (useful for testing).
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// IDGenerator produces lead IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
