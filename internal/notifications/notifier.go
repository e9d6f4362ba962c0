package notifications

import (
	"context"
	"log"
	"runtime/debug"

	"github.com/redis/go-redis/v9"
)

// BoardChannel is the Redis channel board events travel on. Every API
// instance publishes to it and subscribes to it, so events reach clients
// connected to any instance.
const BoardChannel = "board:events"

// Notifier publishes board events into Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishBoard sends a board event payload to all instances.
func (n *Notifier) PublishBoard(ctx context.Context, payload string) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, BoardChannel, payload).Err()
}

// StartBoardSubscriber subscribes to the board channel and calls onMessage
// for each incoming message. onMessage receives channel and payload.
func (n *Notifier) StartBoardSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, BoardChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in BoardSubscriber: %v\n%s", r, debug.Stack())
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
