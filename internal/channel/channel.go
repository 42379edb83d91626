// Package channel carries protocol messages between players. Every transport
// enforces the per-message byte cap of the game's addon channel.
package channel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/op/go-logging"

	"rpitems/internal/logger"
)

var log = logging.MustGetLogger(logger.Module)

const DefaultMaxMessageBytes = 255

var (
	ErrMessageTooLarge = errors.New("message exceeds transport limit")
	ErrClosed          = errors.New("channel closed")
)

type Channel interface {
	Publish(ctx context.Context, msg string) error
	Subscribe(ctx context.Context) (<-chan string, error)
	Close() error
}

func checkSize(msg string, maxBytes int) error {
	if maxBytes > 0 && len(msg) > maxBytes {
		return fmt.Errorf("%d bytes, limit %d: %w", len(msg), maxBytes, ErrMessageTooLarge)
	}
	return nil
}

// SendAll publishes msgs in order, waiting interval between consecutive
// messages. It stops at the first publish error.
func SendAll(ctx context.Context, ch Channel, msgs []string, interval time.Duration) error {
	var tick <-chan time.Time
	if interval > 0 && len(msgs) > 1 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for i, msg := range msgs {
		if i > 0 && tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
		if err := ch.Publish(ctx, msg); err != nil {
			return fmt.Errorf("publishing message %d of %d: %w", i+1, len(msgs), err)
		}
	}
	log.Debugf("action: send_all | result: success | messages: %d", len(msgs))
	return nil
}
