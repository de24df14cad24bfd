package realtime

import (
	"context"
	"strconv"
	"strings"

	"backend-antrian-klinik/internal/logger"

	"github.com/redis/go-redis/v9"
)

const boardChannelPrefix = "antrian:board:"

func boardChannel(providerID int64) string {
	return boardChannelPrefix + strconv.FormatInt(providerID, 10)
}

// RedisBridge fans board updates out to every server instance.
type RedisBridge struct {
	client *redis.Client
	hub    *Hub
}

// AttachRedis makes Notify publish through Redis. Run must be started for
// updates to reach local clients.
func AttachRedis(hub *Hub, client *redis.Client) *RedisBridge {
	b := &RedisBridge{client: client, hub: hub}
	hub.publish = b.publish
	return b
}

func (b *RedisBridge) publish(ctx context.Context, providerID int64) error {
	return b.client.Publish(ctx, boardChannel(providerID), "").Err()
}

// Run listens for updates until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) {
	sub := b.client.PSubscribe(ctx, boardChannelPrefix+"*")
	defer sub.Close()

	logger.Logger.Info("[board] redis bridge aktif")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			id, err := strconv.ParseInt(strings.TrimPrefix(msg.Channel, boardChannelPrefix), 10, 64)
			if err != nil {
				logger.Logger.WithField("channel", msg.Channel).Warn("[board] channel tidak dikenal")
				continue
			}
			b.hub.schedule(id)
		}
	}
}
