// Package gcs archives lead export snapshots in Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const producer = "leadscraper"

// Config names the bucket that receives export snapshots.
type Config struct {
	Bucket string
}

// BlobStore writes export snapshots to a configured GCS bucket.
type BlobStore struct {
	client *storage.Client
	bucket string
}

// New creates a GCS-backed blob store.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, errors.New("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}
	return &BlobStore{client: client, bucket: cfg.Bucket}, nil
}

// PutObject uploads a snapshot to key and returns its gs:// URI. Keys of the
// form <prefix>/<yyyy-mm-dd>/<digest>.csv are served as a dated leads_*.csv
// download and tagged with the export date and digest.
func (s *BlobStore) PutObject(ctx context.Context, key string, contentType string, r io.Reader) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("path is required")
	}
	writer := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	meta := snapshotMeta(key)
	writer.ContentDisposition = fmt.Sprintf("attachment; filename=%q", meta.filename)
	writer.Metadata = meta.attrs()
	if _, err := io.Copy(writer, r); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return "", fmt.Errorf("upload export %s: %w (close writer: %v)", key, err, closeErr)
		}
		return "", fmt.Errorf("upload export %s: %w", key, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize export %s: %w", key, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, key), nil
}

type snapshot struct {
	filename string
	date     string
	digest   string
}

func snapshotMeta(key string) snapshot {
	base := path.Base(key)
	digest := strings.TrimSuffix(base, path.Ext(base))
	date := path.Base(path.Dir(key))
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return snapshot{filename: base, digest: digest}
	}
	return snapshot{
		filename: "leads_" + date + path.Ext(base),
		date:     date,
		digest:   digest,
	}
}

func (s snapshot) attrs() map[string]string {
	out := map[string]string{"producer": producer, "sha256": s.digest}
	if s.date != "" {
		out["exportDate"] = s.date
	}
	return out
}
