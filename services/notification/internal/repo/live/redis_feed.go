package live

import (
	"context"
	"encoding/json"
	"fmt"

	"ma-siu/services/notification/internal/entity"

	"github.com/redis/go-redis/v9"
)

func Channel(userID string) string {
	return fmt.Sprintf("notifications:%s", userID)
}

// RedisFeed pushes finished notifications to the user's pub/sub channel,
// where connected websocket sessions pick them up.
type RedisFeed struct {
	client *redis.Client
}

func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

func (f *RedisFeed) Publish(ctx context.Context, n *entity.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := f.client.Publish(ctx, Channel(n.UserID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Listen subscribes to the user's channel and streams payloads until ctx is
// done. The returned channel is closed when the subscription ends.
func (f *RedisFeed) Listen(ctx context.Context, userID string) (<-chan []byte, error) {
	pubsub := f.client.Subscribe(ctx, Channel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to live feed: %w", err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer pubsub.Close()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
