package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the forwarder uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		RequiredAcks: kafka.RequireOne,
	}
}

type envelope struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// KafkaForwarder publishes bus events to a Kafka topic as JSON envelopes.
type KafkaForwarder struct {
	writer       MessageWriter
	logger       *slog.Logger
	writeTimeout time.Duration
}

func NewKafkaForwarder(writer MessageWriter, logger *slog.Logger) *KafkaForwarder {
	return &KafkaForwarder{
		writer:       writer,
		logger:       logger,
		writeTimeout: 5 * time.Second,
	}
}

// Register subscribes the forwarder to every schedule event on bus.
func (f *KafkaForwarder) Register(bus *EventBus) {
	bus.SubscribeAll(f.Handle)
}

func (f *KafkaForwarder) Handle(ctx context.Context, event Event) error {
	payload, err := json.Marshal(envelope{
		ID:         event.EventID(),
		Type:       event.EventType(),
		OccurredAt: event.OccurredAt(),
		Data:       event.Payload(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.EventID(), err)
	}

	msg := kafka.Message{
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType())},
		},
	}
	if keyed, ok := event.(Keyed); ok {
		msg.Key = []byte(keyed.PartitionKey())
	}

	ctx, cancel := context.WithTimeout(ctx, f.writeTimeout)
	defer cancel()

	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		f.logger.Error("failed to forward event to kafka",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"error", err)
		return err
	}

	f.logger.Debug("event forwarded to kafka",
		"event_type", event.EventType(),
		"event_id", event.EventID())
	return nil
}

func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}
