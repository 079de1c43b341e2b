// Package memory provides in-process stores for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
)

// LeadStore keeps leads in insertion order with an email index.
type LeadStore struct {
	mu    sync.Mutex
	leads []lead.Lead
	index map[string]struct{}
}

// NewLeadStore constructs an empty LeadStore.
func NewLeadStore() *LeadStore {
	return &LeadStore{index: make(map[string]struct{})}
}

// InsertIfAbsent appends l unless a lead with the same email exists.
func (s *LeadStore) InsertIfAbsent(_ context.Context, l lead.Lead) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(l), nil
}

// BulkInsert inserts each lead in order and returns how many were new.
func (s *LeadStore) BulkInsert(_ context.Context, leads []lead.Lead) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, l := range leads {
		if s.insertLocked(l) {
			added++
		}
	}
	return added, nil
}

func (s *LeadStore) insertLocked(l lead.Lead) bool {
	if _, ok := s.index[l.Email]; ok {
		return false
	}
	s.index[l.Email] = struct{}{}
	s.leads = append(s.leads, l)
	return true
}

// Dedupe keeps the first lead per email and reports how many were removed.
func (s *LeadStore) Dedupe(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.leads)
	kept := s.leads[:0]
	seen := make(map[string]struct{}, before)
	for _, l := range s.leads {
		if _, ok := seen[l.Email]; ok {
			continue
		}
		seen[l.Email] = struct{}{}
		kept = append(kept, l)
	}
	clear(s.leads[len(kept):])
	s.leads = kept
	s.index = seen
	return before - len(kept), nil
}

// Filter returns matching leads in insertion order, at most q.Limit when set.
func (s *LeadStore) Filter(_ context.Context, q lead.LeadQuery) ([]lead.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]lead.Lead, 0)
	for _, l := range s.leads {
		if !q.Matches(l) {
			continue
		}
		out = append(out, l)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// List returns one page of leads plus the total count. A non-positive limit
// returns everything after offset.
func (s *LeadStore) List(_ context.Context, limit, offset int) ([]lead.Lead, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.leads)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []lead.Lead{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	page := make([]lead.Lead, end-offset)
	copy(page, s.leads[offset:end])
	return page, total, nil
}

// Clear removes every lead and returns how many there were.
func (s *LeadStore) Clear(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.leads)
	s.leads = nil
	s.index = make(map[string]struct{})
	return n, nil
}

// Stats summarizes the collection as of now.
func (s *LeadStore) Stats(_ context.Context, now time.Time) (lead.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lead.Summarize(s.leads, now), nil
}

// Count returns the number of stored leads.
func (s *LeadStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.leads), nil
}
