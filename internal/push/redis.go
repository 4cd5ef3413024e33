package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis pub/sub channel the dashboards listen on.
const DefaultChannel = "careNest:events"

// RedisBus carries push events over a Redis pub/sub channel so independently
// running clients see the same notifications.
type RedisBus struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisBus(client *redis.Client, channel string, logger *slog.Logger) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBus{client: client, channel: channel, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal push event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish push event: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context) <-chan Event {
	sub := b.client.Subscribe(ctx, b.channel)
	out := make(chan Event, 16)

	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					b.logger.Warn("discarding malformed push event", "error", err)
					continue
				}
				select {
				case out <- evt:
				default:
					// Drop when the consumer is slow; polling catches up.
				}
			}
		}
	}()

	return out
}
