// Package targets holds the mutable list of pages the scheduler visits.
package targets

import (
	"sync"

	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
)

// Registry is a concurrency-safe, append-only list of targets.
type Registry struct {
	mu      sync.RWMutex
	targets []lead.Target
	clock   lead.Clock
}

// NewRegistry seeds a registry with initial targets. clock stamps targets
// added later.
func NewRegistry(clock lead.Clock, initial []lead.Target) *Registry {
	return &Registry{
		targets: append([]lead.Target(nil), initial...),
		clock:   clock,
	}
}

// Add appends t with its AddedAt set and returns the stored copy. Duplicate
// URLs are allowed.
func (r *Registry) Add(t lead.Target) lead.Target {
	t.AddedAt = r.clock.Now()
	r.mu.Lock()
	r.targets = append(r.targets, t)
	r.mu.Unlock()
	return t
}

// All returns a snapshot of every target in insertion order.
func (r *Registry) All() []lead.Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]lead.Target(nil), r.targets...)
}

// Query returns the targets matching q.
func (r *Registry) Query(q lead.TargetQuery) []lead.Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]lead.Target, 0)
	for _, t := range r.targets {
		if q.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of targets.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.targets)
}

// CountBySource counts targets whose SourceName equals name exactly.
func (r *Registry) CountBySource(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, t := range r.targets {
		if t.SourceName == name {
			n++
		}
	}
	return n
}

// Sources lists distinct source names in first-seen order.
func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, t := range r.targets {
		if _, ok := seen[t.SourceName]; ok {
			continue
		}
		seen[t.SourceName] = struct{}{}
		out = append(out, t.SourceName)
	}
	return out
}
