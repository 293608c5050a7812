package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/session"
	"github.com/redis/go-redis/v9"
)

// Store is the subset of the redis client the cache needs.
type Store interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// DraftCache keeps unsent writing drafts in redis, scoped per user.
type DraftCache struct {
	client Store
	ttl    time.Duration
	logger *slog.Logger
}

func NewDraftCache(client Store, ttl time.Duration, logger *slog.Logger) *DraftCache {
	return &DraftCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// ForUser returns a session.DraftStore whose keys are prefixed with the user id.
func (d *DraftCache) ForUser(userID string) session.DraftStore {
	return &userDrafts{cache: d, userID: userID}
}

func (d *DraftCache) key(userID string, key session.DraftKey) string {
	return fmt.Sprintf("user:%s:%s", userID, key.String())
}

type userDrafts struct {
	cache  *DraftCache
	userID string
}

func (u *userDrafts) Save(ctx context.Context, key session.DraftKey, content string) error {
	if err := u.cache.client.Set(ctx, u.cache.key(u.userID, key), content, u.cache.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

func (u *userDrafts) Load(ctx context.Context, key session.DraftKey) (string, bool, error) {
	content, err := u.cache.client.Get(ctx, u.cache.key(u.userID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to load draft: %w", err)
	}
	return content, true, nil
}

func (u *userDrafts) Clear(ctx context.Context, key session.DraftKey) error {
	if err := u.cache.client.Del(ctx, u.cache.key(u.userID, key)).Err(); err != nil {
		u.cache.logger.Warn("Failed to clear draft", "user_id", u.userID, "key", key.String(), "error", err)
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	return nil
}
