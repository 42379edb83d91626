package channel

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis broadcasts over one pub/sub channel, standing in for the game's
// group addon channel.
type Redis struct {
	client   *redis.Client
	name     string
	maxBytes int
}

func NewRedis(ctx context.Context, addr, name string, maxBytes int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	log.Infof("action: redis_connect | result: success | addr: %s | channel: %s", addr, name)
	return &Redis{client: client, name: name, maxBytes: maxBytes}, nil
}

func (r *Redis) Publish(ctx context.Context, msg string) error {
	if err := checkSize(msg, r.maxBytes); err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.name, msg).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", r.name, err)
	}
	return nil
}

// Subscribe delivers payloads until ctx is cancelled.
func (r *Redis) Subscribe(ctx context.Context) (<-chan string, error) {
	pubsub := r.client.Subscribe(ctx, r.name)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", r.name, err)
	}

	out := make(chan string)
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
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
