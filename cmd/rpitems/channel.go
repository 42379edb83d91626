package main

import (
	"context"

	"rpitems/internal/channel"
	"rpitems/internal/config"
)

func openChannel(ctx context.Context, cfg *config.ProjectConfig) (channel.Channel, error) {
	return channel.NewRedis(ctx, cfg.Transport.RedisAddr, cfg.Transport.Channel, cfg.Transport.MaxMessageBytes)
}
