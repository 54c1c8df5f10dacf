package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"marketplace.backend/pkg/logger"
)

// Event is the domain event broadcast on the events channel
type Event struct {
	EventType  string                 `json:"event_type"`
	UserID     string                 `json:"user_id"`
	Title      string                 `json:"title,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
	Timestamp  int64                  `json:"timestamp"`
}

// EventPublisher fans seller lifecycle events out over Redis pub/sub
type EventPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewEventPublisher(rdb *redis.Client, channel string) *EventPublisher {
	return &EventPublisher{rdb: rdb, channel: channel}
}

// Publish sends evt to every subscriber of the channel
func (p *EventPublisher) Publish(ctx context.Context, evt Event) error {
	if p == nil || p.rdb == nil {
		return nil
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	evt.Timestamp = evt.OccurredAt.Unix()

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	receivers, err := p.rdb.Publish(ctx, p.channel, data).Result()
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", evt.EventType, err)
	}

	logger.Debug(ctx, "Event published",
		zap.String("channel", p.channel),
		zap.String("event_type", evt.EventType),
		zap.Int64("receivers", receivers),
	)
	return nil
}
