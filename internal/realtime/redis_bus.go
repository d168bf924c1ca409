package realtime

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BroadcastChannel is the Redis Pub/Sub channel every instance listens on.
const BroadcastChannel = "realtime:broadcast"

// RedisBus is a Bus over Redis Pub/Sub.
type RedisBus struct {
	rdb     *redis.Client
	channel string
	logger  *zap.Logger
}

func NewRedisBus(rdb *redis.Client, logger *zap.Logger) *RedisBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBus{rdb: rdb, channel: BroadcastChannel, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, message []byte) error {
	return b.rdb.Publish(ctx, b.channel, message).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, deliver func([]byte)) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	// Wait for the subscription confirmation so nothing published after
	// Subscribe returns is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
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
							b.logger.Error("panic delivering realtime message",
								zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
						}
					}()
					deliver([]byte(msg.Payload))
				}()
			}
		}
	}()

	return nil
}
