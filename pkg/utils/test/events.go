package testutils

import (
	"context"
	"fmt"

	"github.com/inkwellco/inkwell/pkg/eventstream"
)

// MockPublisher is a test eventstream publisher that records published events.
type MockPublisher struct {
	Events []*eventstream.PostEvent

	// FailPublish forces PublishPost to return an error.
	FailPublish bool
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishPost(_ context.Context, event *eventstream.PostEvent) error {
	if event == nil {
		return eventstream.ErrNilPostEvent
	}

	if m.FailPublish {
		return fmt.Errorf("mock publish failure")
	}

	m.Events = append(m.Events, event)
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}
