package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"rpitems/internal/channel"
	"rpitems/internal/message"
	"rpitems/internal/status"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [player]",
		Short: "Ask which collection version another player holds",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var target string
			if len(args) == 1 {
				target = args[0]
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Status.Timeout)
			defer cancel()

			ch, err := openChannel(ctx, cfg)
			if err != nil {
				return err
			}
			defer ch.Close()

			resp, err := requestStatus(ctx, ch, status.NewTracker(cfg.Status.Timeout), target, cfg.Player)
			if err != nil {
				return err
			}
			r := resp.Result
			fmt.Fprintf(os.Stdout, "%s: %s v%d %s (%s)\n", r.Sender, r.DatabaseID, r.Version, r.Checksum, resp.Latency.Round(time.Millisecond))
			return nil
		},
	}
}

// requestStatus sends one STATUS request and waits for the first matching
// RESULT. An empty target accepts a reply from anyone.
func requestStatus(ctx context.Context, ch channel.Channel, tracker *status.Tracker, target, player string) (status.Response, error) {
	msgs, err := ch.Subscribe(ctx)
	if err != nil {
		return status.Response{}, err
	}

	req, msg := tracker.Begin(target, player, time.Now())
	if err := ch.Publish(ctx, msg); err != nil {
		return status.Response{}, err
	}
	log.Debugf("action: status_request | result: success | id: %s | target: %s", req.ID, target)

	for {
		select {
		case <-ctx.Done():
			return status.Response{}, fmt.Errorf("waiting for status of %s: %w", describeTarget(target), ctx.Err())
		case raw, ok := <-msgs:
			if !ok {
				return status.Response{}, fmt.Errorf("waiting for status: %w", channel.ErrClosed)
			}
			t, fields := message.Parse(raw)
			if t != message.TypeResult {
				continue
			}
			if target != "" && message.DecodeResult(fields).Sender != target {
				continue
			}
			if resp, ok := tracker.Resolve(fields, time.Now()); ok {
				return resp, nil
			}
		}
	}
}

func describeTarget(target string) string {
	if target == "" {
		return "any player"
	}
	return target
}
