package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes domain notifications for external consumers such
// as vendor dashboards. Publishing is best effort everywhere it is
// called.
type Notifier interface {
	Publish(ctx context.Context, channel string, payload any) error
}

const (
	ChannelPayments = "ratixpay:pagamentos"
	ChannelSaques   = "ratixpay:saques"
)

// RedisNotifier publishes JSON-encoded notifications over Redis pub/sub.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(addr string) *RedisNotifier {
	return &RedisNotifier{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

func (n *RedisNotifier) Publish(ctx context.Context, channel string, payload any) error {
	body, err := json.Marshal(payload)

	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := n.client.Publish(ctx, channel, body).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

// NopNotifier discards notifications. Used when no Redis address is
// configured.
type NopNotifier struct{}

func (NopNotifier) Publish(ctx context.Context, channel string, payload any) error {
	return nil
}
