package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event names fired after successful workflow mutations.
const (
	EventReportCardChanged    = "report_card.changed"
	EventCalendarChanged      = "calendar.changed"
	EventExamResultsSaved     = "exam_results.saved"
	EventExamResultsPublished = "exam_results.published"
)

// Broadcaster notifies subscribed views that records changed. Payloads
// carry the updated record or record id so clients can refresh without a
// full reload.
type Broadcaster interface {
	Notify(ctx context.Context, event string, payload interface{}) error
}

// RedisBroadcaster publishes change events on a Redis channel.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisBroadcaster constructs a broadcaster for the given channel.
func NewRedisBroadcaster(client *redis.Client, channel string, logger *zap.Logger) *RedisBroadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	if channel == "" {
		channel = "portal.events"
	}
	return &RedisBroadcaster{client: client, channel: channel, logger: logger}
}

type envelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// Notify publishes the event. Broadcast failures are logged, not
// propagated: the mutation has already been applied and returned.
func (b *RedisBroadcaster) Notify(ctx context.Context, event string, payload interface{}) error {
	if b.client == nil {
		return nil
	}
	raw, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event, err)
	}
	if err := b.client.Publish(ctx, b.channel, raw).Err(); err != nil {
		b.logger.Warn("failed to broadcast event", zap.String("event", event), zap.Error(err))
		return fmt.Errorf("publish event %s: %w", event, err)
	}
	return nil
}

// Nop is a Broadcaster that drops every event. Used in tests and when
// Redis is not configured.
type Nop struct{}

// Notify implements Broadcaster.
func (Nop) Notify(context.Context, string, interface{}) error { return nil }
