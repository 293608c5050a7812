package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

const partitionKeyHeader = "partition_key"

// EventPublisher sends practice events to downstream consumers.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *PracticeEvent) error
	Close() error
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Logger  *slog.Logger
}

// KafkaPublisher writes events to a single topic through watermill. Events
// that share a partition key (the learner id) keep their order.
type KafkaPublisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers: cfg.Brokers,
		Marshaler: kafka.NewWithPartitioningMarshaler(func(_ string, msg *message.Message) (string, error) {
			return msg.Metadata.Get(partitionKeyHeader), nil
		}),
	}, watermill.NewSlogLogger(cfg.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}

	return &KafkaPublisher{
		publisher: publisher,
		topic:     cfg.Topic,
		logger:    cfg.Logger,
	}, nil
}

func (p *KafkaPublisher) PublishEvent(ctx context.Context, event *PracticeEvent) error {
	msg, err := toMessage(ctx, event)
	if err != nil {
		return err
	}

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	p.logger.Debug("Published practice event",
		"event_id", event.ID,
		"event_type", event.Type,
		"topic", p.topic)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.publisher.Close()
}

// toMessage encodes the envelope as the payload and mirrors the routing
// fields into headers so consumers can filter without decoding.
func toMessage(ctx context.Context, event *PracticeEvent) (*message.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", event.Type, err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("source", event.Source)
	msg.Metadata.Set("version", event.Version)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339))
	msg.Metadata.Set(partitionKeyHeader, event.Key)
	return msg, nil
}

// MemoryPublisher records events instead of sending them. It backs tests and
// runs with publishing disabled.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []PracticeEvent
	logger *slog.Logger
}

func NewMemoryPublisher(logger *slog.Logger) *MemoryPublisher {
	return &MemoryPublisher{logger: logger}
}

func (m *MemoryPublisher) PublishEvent(_ context.Context, event *PracticeEvent) error {
	m.mu.Lock()
	m.events = append(m.events, *event)
	m.mu.Unlock()

	m.logger.Debug("Recorded practice event",
		"event_id", event.ID,
		"event_type", event.Type)
	return nil
}

func (m *MemoryPublisher) Close() error {
	return nil
}

// Published returns a copy of the recorded events, oldest first.
func (m *MemoryPublisher) Published() []PracticeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PracticeEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MemoryPublisher) Reset() {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
}
