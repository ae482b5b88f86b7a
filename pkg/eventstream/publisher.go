package eventstream

import "context"

// Publisher publishes post events to an event stream backend.
type Publisher interface {
	PublishPost(ctx context.Context, event *PostEvent) error
	Close() error
}
