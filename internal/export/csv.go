// Package export serializes leads for download and archiving.
package export

import (
	"errors"
	"strings"
	"time"

	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
)

// ErrEmptyExport is returned when there are no leads to serialize.
var ErrEmptyExport = errors.New("no leads to export")

// Header is the first line of every CSV export.
const Header = "Email,Name,Company,Phone,Industry,Location,Source,Source Name,Scraped At,Verified"

const scrapedAtLayout = "2006-01-02T15:04:05.000Z"

// CSV renders leads as CSV text. Every value is double-quoted with embedded
// quotes doubled; rows are separated by a single newline with none trailing.
func CSV(leads []lead.Lead) (string, error) {
	if len(leads) == 0 {
		return "", ErrEmptyExport
	}
	var b strings.Builder
	b.WriteString(Header)
	for _, l := range leads {
		b.WriteByte('\n')
		writeRow(&b, []string{
			l.Email,
			l.Name,
			l.Company,
			l.Phone,
			l.Industry,
			l.Location,
			l.SourceURL,
			l.SourceName,
			formatTime(l.ScrapedAt),
			yesNo(l.Verified),
		})
	}
	return b.String(), nil
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(scrapedAtLayout)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
