package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Bus publishes and subscribes to Redis PubSub channels.
type Bus struct {
	rdb *redis.Client
}

// NewBus creates a new Bus.
func NewBus(rdb *redis.Client) *Bus {
	return &Bus{rdb: rdb}
}

// Publish sends payload on channel.
func (b *Bus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe returns a channel that receives one signal per published message.
// The returned function closes the subscription; the signal channel is closed
// once ctx is done or the subscription ends.
func (b *Bus) Subscribe(ctx context.Context, channel string) (<-chan struct{}, func() error) {
	pubsub := b.rdb.Subscribe(ctx, channel)
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				// Coalesce bursts: one pending signal is enough to trigger a poll.
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out, pubsub.Close
}
