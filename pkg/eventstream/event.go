// Package eventstream records post lifecycle events. Index synchronization
// failures are captured here rather than propagated to callers: the content
// store commit has already succeeded by the time these events fire.
package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypePostIndexed is emitted after a post's index entry is upserted.
	EventTypePostIndexed = "inkwell.post.indexed"

	// EventTypePostIndexFailed is emitted when embedding or index upsert
	// fails after a successful content store commit.
	EventTypePostIndexFailed = "inkwell.post.index_failed"

	// EventTypePostRemoved is emitted after a post is deleted from the
	// content store, regardless of whether the index delete succeeded.
	EventTypePostRemoved = "inkwell.post.removed"
)

// PostEvent is a transport-neutral event payload for a post lifecycle change.
type PostEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`
	PostID        string    `json:"post_id"`
	Title         string    `json:"title,omitempty"`

	// Reason carries the failure detail for index_failed events.
	Reason string `json:"reason,omitempty"`
}

// NewPostEvent builds a PostEvent with a fresh event id and timestamp.
func NewPostEvent(eventType, postID, title string) *PostEvent {
	return &PostEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		PostID:        postID,
		Title:         title,
	}
}
