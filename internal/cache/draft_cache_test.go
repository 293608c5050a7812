package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/models"
	"github.com/SAP-F-2025/practice-service/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.values[key] = value.(string)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryStore) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := m.values[k]; ok {
			delete(m.values, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestDraftCacheRoundTrip(t *testing.T) {
	store := newMemoryStore()
	c := NewDraftCache(store, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()
	key := session.DraftKey{PromptID: "p1", Mode: models.ModePractice, Attempt: 2}

	drafts := c.ForUser("u1")
	_, ok, err := drafts.Load(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, drafts.Save(ctx, key, "hello"))
	assert.Contains(t, store.values, "user:u1:writing_draft::p1::practice::2")
	assert.Equal(t, time.Hour, store.ttls["user:u1:writing_draft::p1::practice::2"])

	content, ok, err := drafts.Load(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hello", content)

	_, ok, err = c.ForUser("u2").Load(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "drafts are scoped per user")

	require.NoError(t, drafts.Clear(ctx, key))
	_, ok, _ = drafts.Load(ctx, key)
	assert.False(t, ok)
}

func TestDraftCacheLoadError(t *testing.T) {
	store := newMemoryStore()
	store.getErr = errors.New("connection refused")
	c := NewDraftCache(store, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, _, err := c.ForUser("u1").Load(context.Background(), session.DraftKey{PromptID: "p"})
	assert.Error(t, err)
}
