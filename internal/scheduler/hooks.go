package scheduler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/realtime-lead-scraper/internal/lead"
)

// CycleCompletedEvent is the name carried by every published cycle event.
const CycleCompletedEvent = "leads.cycle.completed"

// CycleEvent is the payload PublishHook sends after each cycle.
type CycleEvent struct {
	Event           string           `json:"event"`
	Report          lead.CycleReport `json:"report"`
	DurationSeconds float64          `json:"durationSeconds"`
}

// PublishHook announces finished cycles on a topic.
type PublishHook struct {
	publisher lead.Publisher
	topic     string
	logger    *zap.Logger
}

// NewPublishHook constructs a PublishHook. An empty topic defers to the
// publisher's default.
func NewPublishHook(publisher lead.Publisher, topic string, logger *zap.Logger) *PublishHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishHook{publisher: publisher, topic: topic, logger: logger.Named("publish")}
}

// AfterCycle implements CycleHook.
func (h *PublishHook) AfterCycle(ctx context.Context, report lead.CycleReport) error {
	id, err := h.publisher.Publish(ctx, h.topic, CycleEvent{
		Event:           CycleCompletedEvent,
		Report:          report,
		DurationSeconds: report.Duration().Seconds(),
	})
	if err != nil {
		return fmt.Errorf("publish cycle event: %w", err)
	}
	h.logger.Debug("cycle event published", zap.String("message_id", id))
	return nil
}
