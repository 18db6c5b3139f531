package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/mq"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/types"
)

// Publisher sends raw messages to a channel. *mq.MQ satisfies it.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// PostEvents publishes post changes as JSON on a single channel.
type PostEvents struct {
	publisher Publisher
	channel   string
}

func NewPostEvents(publisher Publisher, channel string) *PostEvents {
	return &PostEvents{publisher: publisher, channel: channel}
}

// Publish encodes and sends the event. Events for one post share an
// ordering key.
func (e *PostEvents) Publish(ctx context.Context, event types.PostEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = e.publisher.Publish(ctx, e.channel, data, map[string]string{
		mq.AttrContentType: "application/json",
		mq.AttrOrderingKey: event.PostID,
		"event_type":       string(event.Type),
	})
	return err
}

// DecodePostEvent parses a post event message.
func DecodePostEvent(msg mq.Message) (types.PostEvent, error) {
	var event types.PostEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return types.PostEvent{}, fmt.Errorf("decode post event %s: %w", msg.ID, err)
	}
	return event, nil
}

// ImageReleaser returns a queue handler that deletes the stored image of
// every deleted post. Other event types are acknowledged and ignored.
func ImageReleaser(store ImageStore) mq.Handler {
	return func(ctx context.Context, msg mq.Message) error {
		event, err := DecodePostEvent(msg)
		if err != nil {
			// Malformed payloads will never succeed; drop them.
			return nil
		}
		if event.Type != types.PostDeleted || event.ImageKey == "" {
			return nil
		}
		if err := store.Delete(ctx, event.ImageKey); err != nil {
			return fmt.Errorf("release image %s: %w", event.ImageKey, err)
		}
		return nil
	}
}
