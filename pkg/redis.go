package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/config"
	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 10 * time.Second

// NewRedisClient connects the client shared by the draft cache and the audio
// link redeem store.
func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
