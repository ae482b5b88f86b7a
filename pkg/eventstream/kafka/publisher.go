// Package kafka provides a Kafka-backed eventstream publisher.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/inkwellco/inkwell/pkg/eventstream"
)

// DefaultTopic is the topic post events are published to.
const DefaultTopic = "inkwell.posts"

// Publisher publishes post events to a Kafka topic. Messages are keyed by
// post id so events for the same post land on the same partition in order.
type Publisher struct {
	writer *kafkago.Writer
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string

	// Topic is the destination topic. Defaults to DefaultTopic if empty.
	Topic string
}

// NewPublisher creates a Kafka-backed eventstream publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafkago.Writer{
		Addr:     kafkago.TCP(cfg.Brokers...),
		Topic:    topic,
		Balancer: &kafkago.Hash{},
	}

	return &Publisher{writer: writer}, nil
}

// PublishPost writes the event to the configured topic.
func (p *Publisher) PublishPost(ctx context.Context, event *eventstream.PostEvent) error {
	if event == nil {
		return eventstream.ErrNilPostEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling post event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.PostID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("writing post event: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
