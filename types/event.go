package types

import "time"

// PostEventType names a change to a post.
type PostEventType string

const (
	PostCreated PostEventType = "post.created"
	PostUpdated PostEventType = "post.updated"
	PostDeleted PostEventType = "post.deleted"
	PostLiked   PostEventType = "post.liked"
	PostUnliked PostEventType = "post.unliked"
)

// PostEvent is published on the message queue after a post changes.
type PostEvent struct {
	Type PostEventType `json:"type"`

	// PostID is the post that changed.
	PostID string `json:"post_id"`

	// UserID is the user who made the change.
	UserID string `json:"user_id"`

	// ImageKey is the storage key of the post's image, set on deletion so
	// consumers can release the object.
	ImageKey string `json:"image_key,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}
