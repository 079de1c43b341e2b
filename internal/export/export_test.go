package export

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/realtime-lead-scraper/internal/hash/sha256"
	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
	"github.com/JakeFAU/realtime-lead-scraper/internal/storage/memory"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func (c fixedClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func sampleLead() lead.Lead {
	return lead.Lead{
		Email:      "jane@acme.com",
		Name:       `Jane "JD" Doe`,
		Company:    "Acme",
		Phone:      "(212) 736-5000",
		Industry:   "Technology",
		Location:   "New York",
		SourceURL:  "https://dir.test/list",
		SourceName: "YellowPages",
		ScrapedAt:  time.Date(2024, 5, 1, 12, 30, 0, 250_000_000, time.UTC),
	}
}

func TestCSV(t *testing.T) {
	t.Parallel()

	out, err := CSV([]lead.Lead{sampleLead()})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, Header, lines[0])
	assert.Equal(t,
		`"jane@acme.com","Jane ""JD"" Doe","Acme","(212) 736-5000","Technology","New York",`+
			`"https://dir.test/list","YellowPages","2024-05-01T12:30:00.250Z","No"`,
		lines[1])
	assert.Contains(t, lines[1], `"Acme"`)
	assert.Contains(t, lines[1], `"No"`)
}

func TestCSVVerifiedAndLocalTime(t *testing.T) {
	t.Parallel()

	l := sampleLead()
	l.Verified = true
	l.ScrapedAt = time.Date(2024, 5, 1, 8, 0, 0, 0, time.FixedZone("EDT", -4*3600))
	out, err := CSV([]lead.Lead{l, {Email: "b@beta.io"}})
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[1], `"2024-05-01T12:00:00.000Z","Yes"`))
	assert.True(t, strings.HasPrefix(lines[2], `"b@beta.io","",""`))
}

func TestCSVEmpty(t *testing.T) {
	t.Parallel()

	_, err := CSV(nil)
	require.ErrorIs(t, err, ErrEmptyExport)
}

func TestArchiverWritesContentAddressedSnapshot(t *testing.T) {
	t.Parallel()

	blobs := memory.NewBlobStore()
	now := time.Date(2024, 5, 2, 23, 0, 0, 0, time.UTC)
	a := NewArchiver(blobs, sha256.New(), fixedClock{now: now}, "/exports/")

	leads := []lead.Lead{sampleLead()}
	uri, err := a.Archive(context.Background(), leads)
	require.NoError(t, err)

	body, _ := CSV(leads)
	digest, _ := sha256.New().Hash([]byte(body))
	key := "exports/2024-05-02/" + digest + ".csv"
	assert.Equal(t, "memory://"+key, uri)

	stored, ok := blobs.Get(key)
	require.True(t, ok)
	assert.Equal(t, body, string(stored))

	_, err = a.Archive(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyExport)
}

type failingBlobs struct{}

func (failingBlobs) PutObject(context.Context, string, string, io.Reader) (string, error) {
	return "", errors.New("bucket missing")
}

func TestArchiverBlobFailure(t *testing.T) {
	t.Parallel()

	a := NewArchiver(failingBlobs{}, sha256.New(), fixedClock{}, "")
	_, err := a.Archive(context.Background(), []lead.Lead{sampleLead()})
	require.ErrorContains(t, err, "store export")
}

func TestArchiveHook(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewLeadStore()
	blobs := memory.NewBlobStore()
	hook := NewArchiveHook(store, NewArchiver(blobs, sha256.New(), fixedClock{}, "snap"), nil)

	require.NoError(t, hook.AfterCycle(ctx, lead.CycleReport{}))
	assert.Empty(t, blobs.Paths(), "empty store writes nothing")

	_, err := store.InsertIfAbsent(ctx, sampleLead())
	require.NoError(t, err)
	require.NoError(t, hook.AfterCycle(ctx, lead.CycleReport{}))
	require.Len(t, blobs.Paths(), 1)
	assert.True(t, strings.HasPrefix(blobs.Paths()[0], "snap/0001-01-01/"))
}
