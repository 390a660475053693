package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taskboard/taskboard-api/internal/core/domain"
)

const DefaultEventsChannel = "taskboard:events"

// EventPublisher implements ports.EventPublisher with Redis PUBLISH. Events are
// fire-and-forget: subscribers that are not connected miss them.
type EventPublisher struct {
	client  redis.UniversalClient
	channel string
}

func NewEventPublisher(client redis.UniversalClient, channel string) *EventPublisher {
	if channel == "" {
		channel = DefaultEventsChannel
	}
	return &EventPublisher{client: client, channel: channel}
}

func (p *EventPublisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}
