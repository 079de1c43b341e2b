package export

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
)

const csvContentType = "text/csv; charset=utf-8"

// Archiver writes CSV snapshots to a blob store, addressed by content hash.
type Archiver struct {
	blobs  lead.BlobStore
	hasher lead.Hasher
	clock  lead.Clock
	prefix string
}

// NewArchiver constructs an Archiver. Snapshots land at
// <prefix>/<yyyy-mm-dd>/<sha256>.csv.
func NewArchiver(blobs lead.BlobStore, hasher lead.Hasher, clock lead.Clock, prefix string) *Archiver {
	return &Archiver{
		blobs:  blobs,
		hasher: hasher,
		clock:  clock,
		prefix: strings.Trim(prefix, "/"),
	}
}

// Archive stores leads as CSV and returns the blob URI.
func (a *Archiver) Archive(ctx context.Context, leads []lead.Lead) (string, error) {
	body, err := CSV(leads)
	if err != nil {
		return "", err
	}
	digest, err := a.hasher.Hash([]byte(body))
	if err != nil {
		return "", fmt.Errorf("hash export: %w", err)
	}
	key := path.Join(a.prefix, a.clock.Now().UTC().Format("2006-01-02"), digest+".csv")
	uri, err := a.blobs.PutObject(ctx, key, csvContentType, strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("store export: %w", err)
	}
	return uri, nil
}

// ArchiveHook snapshots the whole store after each scheduled cycle.
type ArchiveHook struct {
	store    lead.Store
	archiver *Archiver
	logger   *zap.Logger
}

// NewArchiveHook constructs an ArchiveHook.
func NewArchiveHook(store lead.Store, archiver *Archiver, logger *zap.Logger) *ArchiveHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveHook{store: store, archiver: archiver, logger: logger.Named("archive")}
}

// AfterCycle archives the current collection. An empty store is not an error.
func (h *ArchiveHook) AfterCycle(ctx context.Context, _ lead.CycleReport) error {
	leads, err := h.store.Filter(ctx, lead.LeadQuery{})
	if err != nil {
		return fmt.Errorf("load leads for archive: %w", err)
	}
	if len(leads) == 0 {
		return nil
	}
	uri, err := h.archiver.Archive(ctx, leads)
	if err != nil {
		return fmt.Errorf("archive leads: %w", err)
	}
	h.logger.Info("lead snapshot archived", zap.String("uri", uri), zap.Int("leads", len(leads)))
	return nil
}
