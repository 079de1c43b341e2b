// Package detector decides when a fetched page needs a headless render.
package detector

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
)

const defaultBodyLengthThreshold = 2048

// Heuristic flags pages that look like client-rendered applications.
type Heuristic struct {
	BodyLengthThreshold int
}

// NewHeuristic creates a new detector. A zero threshold uses 2048 bytes.
func NewHeuristic(threshold int) *Heuristic {
	if threshold <= 0 {
		threshold = defaultBodyLengthThreshold
	}
	return &Heuristic{BodyLengthThreshold: threshold}
}

var appShellMarkers = [][]byte{
	[]byte(`id="__next"`),
	[]byte(`id="__nuxt"`),
	[]byte(`id="root"></div>`),
	[]byte(`id="app"></div>`),
	[]byte("data-reactroot"),
	[]byte("ng-version="),
}

// ShouldPromote reports whether resp should be refetched headless. Only
// successful responses that carry no address of their own qualify.
func (h *Heuristic) ShouldPromote(resp lead.FetchResponse) bool {
	if resp.StatusCode != http.StatusOK {
		return false
	}
	body := resp.Body
	if len(body) == 0 {
		return true
	}
	if bytes.IndexByte(body, '@') >= 0 && bytes.Contains(body, []byte("mailto:")) {
		return false
	}
	if len(body) < h.BodyLengthThreshold && scriptShare(body) >= 25 {
		return true
	}
	for _, marker := range appShellMarkers {
		if bytes.Contains(body, marker) {
			return true
		}
	}
	return false
}

// scriptShare returns the percentage of body covered by <script> elements.
// An unterminated script counts through the end of the document.
func scriptShare(body []byte) int {
	lower := strings.ToLower(string(body))
	total := len(lower)
	if total == 0 {
		return 0
	}

	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	covered := 0
	pos := 0
	for {
		rel := strings.Index(lower[pos:], openTag)
		if rel == -1 {
			break
		}
		start := pos + rel
		end := total
		if tagClose := strings.IndexByte(lower[start:], '>'); tagClose != -1 {
			contentStart := start + tagClose + 1
			if relEnd := strings.Index(lower[contentStart:], closeTag); relEnd != -1 {
				end = contentStart + relEnd + len(closeTag)
			}
		}
		covered += end - start
		pos = end
		if pos >= total {
			break
		}
	}
	return covered * 100 / total
}
