package nop

import (
	"context"

	"github.com/inkwellco/inkwell/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishPost validates input and otherwise does nothing.
func (p *Publisher) PublishPost(_ context.Context, event *eventstream.PostEvent) error {
	if event == nil {
		return eventstream.ErrNilPostEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
