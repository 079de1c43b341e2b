package scheduler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
)

// Default pause bounds between consecutive fetches.
const (
	DefaultPaceMin = 2 * time.Second
	DefaultPaceMax = 5 * time.Second
)

// Pacer pauses between consecutive fetch attempts.
type Pacer interface {
	Pause(ctx context.Context) error
}

// RandomPacer waits a uniformly random duration in [Min, Max].
type RandomPacer struct {
	clock lead.Clock
	min   time.Duration
	max   time.Duration
}

// NewRandomPacer builds a RandomPacer. Bounds that are unset or inverted
// fall back to the defaults.
func NewRandomPacer(clock lead.Clock, minDelay, maxDelay time.Duration) *RandomPacer {
	if minDelay <= 0 && maxDelay <= 0 {
		minDelay, maxDelay = DefaultPaceMin, DefaultPaceMax
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &RandomPacer{clock: clock, min: minDelay, max: maxDelay}
}

// Pause blocks for the next delay or until ctx is done.
func (p *RandomPacer) Pause(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("pacing canceled: %w", ctx.Err())
	case <-p.clock.After(p.next()):
		return nil
	}
}

func (p *RandomPacer) next() time.Duration {
	span := p.max - p.min
	if span <= 0 {
		return p.min
	}
	return p.min + rand.N(span+1)
}
