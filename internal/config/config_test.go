package config

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/SAP-F-2025/practice-service/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AUTOSAVE_DEBOUNCE", "3s")
	t.Setenv("EXAM_MAX_PLAYS", "3")
	t.Setenv("EVENTS_ENABLED", "false")
	t.Setenv("SUGGEST_LIMIT", "not-a-number")
	t.Setenv("ADMIN_EMAILS", "lead@example.com, ,reviewer@example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.Session.AutosaveDebounce)
	assert.Equal(t, 3, cfg.Session.MaxPlays)
	assert.Equal(t, 10, cfg.Session.SuggestLimit, "invalid values fall back to the default")
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.DraftCacheTTL)
	assert.Equal(t, []string{"lead@example.com", "reviewer@example.com"}, cfg.Auth.AdminEmails)
}

func TestNewPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("memory", func(t *testing.T) {
		for _, cfg := range []EventConfig{
			{Enabled: false, Publisher: PublisherKafka},
			{Enabled: true, Publisher: PublisherMemory},
		} {
			pub, err := cfg.NewPublisher(logger)
			require.NoError(t, err)
			assert.IsType(t, &events.MemoryPublisher{}, pub)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		for _, cfg := range []EventConfig{
			{Enabled: true, Publisher: "rabbit"},
			{Enabled: true, Publisher: PublisherKafka},
		} {
			_, err := cfg.NewPublisher(logger)
			assert.Error(t, err)
		}
	})
}

func TestKafkaBrokersFromEnvironment(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Events.KafkaBrokers)
}
