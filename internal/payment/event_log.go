package payment

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	eventKeyPrefix = "payment:webhook:event:"
	EventTTL       = 72 * time.Hour
)

// EventLog remembers webhook event ids that were fully processed so exact
// redeliveries can be acknowledged without touching the database.
type EventLog struct {
	client *redis.Client
	ttl    time.Duration
}

func NewEventLog(client *redis.Client) *EventLog {
	return &EventLog{client: client, ttl: EventTTL}
}

func (l *EventLog) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := l.client.Exists(ctx, eventKeyPrefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkProcessed records eventID. It reports false when the id was already
// recorded.
func (l *EventLog) MarkProcessed(ctx context.Context, eventID string, eventType EventType) (bool, error) {
	return l.client.SetNX(ctx, eventKeyPrefix+eventID, string(eventType), l.ttl).Result()
}
