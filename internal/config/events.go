package config

import (
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/practice-service/internal/events"
)

const (
	PublisherKafka  = "kafka"
	PublisherMemory = "memory"
)

// EventConfig selects where practice events go.
type EventConfig struct {
	Enabled       bool
	Publisher     string
	KafkaBrokers  []string
	PracticeTopic string
}

// NewPublisher returns the kafka publisher, or the in-memory one when events
// are disabled or the memory publisher is requested.
func (c EventConfig) NewPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled || c.Publisher == PublisherMemory {
		logger.Info("Practice events are kept in memory", "enabled", c.Enabled)
		return events.NewMemoryPublisher(logger), nil
	}
	if c.Publisher != PublisherKafka {
		return nil, fmt.Errorf("unknown event publisher %q", c.Publisher)
	}
	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("kafka publisher needs at least one broker")
	}

	logger.Info("Publishing practice events to kafka",
		"brokers", c.KafkaBrokers,
		"topic", c.PracticeTopic)
	return events.NewKafkaPublisher(events.KafkaConfig{
		Brokers: c.KafkaBrokers,
		Topic:   c.PracticeTopic,
		Logger:  logger,
	})
}
