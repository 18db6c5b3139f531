package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/mq"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/storage"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPostEvents_PublishSetsAttributes(t *testing.T) {
	publisher := new(MockPublisher)
	events := NewPostEvents(publisher, "post-events")

	event := types.PostEvent{
		Type:       types.PostLiked,
		PostID:     "post-1",
		UserID:     "user-1",
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	publisher.On("Publish", mock.Anything, "post-events", mock.Anything, map[string]string{
		mq.AttrContentType: "application/json",
		mq.AttrOrderingKey: "post-1",
		"event_type":       "post.liked",
	}).Return("msg-1", nil)

	require.NoError(t, events.Publish(context.Background(), event))
	publisher.AssertExpectations(t)

	data := publisher.Calls[0].Arguments.Get(2).([]byte)
	decoded, err := DecodePostEvent(mq.Message{ID: "msg-1", Data: data})
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}

func TestImageReleaser(t *testing.T) {
	local, err := storage.NewLocalClient(t.TempDir())
	require.NoError(t, err)
	objects := storage.NewStorage(local)
	ctx := context.Background()

	require.NoError(t, objects.Put(ctx, "image-1.png", bytes.NewReader([]byte("png")), 3, "image/png"))
	require.NoError(t, objects.Put(ctx, "image-2.png", bytes.NewReader([]byte("png")), 3, "image/png"))

	release := ImageReleaser(objects)
	encode := func(event types.PostEvent) mq.Message {
		data, err := json.Marshal(event)
		require.NoError(t, err)
		return mq.Message{ID: "m", Data: data}
	}

	t.Run("deleted post releases its image", func(t *testing.T) {
		err := release(ctx, encode(types.PostEvent{Type: types.PostDeleted, PostID: "p1", ImageKey: "image-1.png"}))
		require.NoError(t, err)

		_, err = objects.Get(ctx, "image-1.png")
		assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	})

	t.Run("already released image is not an error", func(t *testing.T) {
		err := release(ctx, encode(types.PostEvent{Type: types.PostDeleted, PostID: "p1", ImageKey: "image-1.png"}))
		assert.NoError(t, err)
	})

	t.Run("other events are ignored", func(t *testing.T) {
		err := release(ctx, encode(types.PostEvent{Type: types.PostUpdated, PostID: "p2", ImageKey: "image-2.png"}))
		require.NoError(t, err)

		object, err := objects.Get(ctx, "image-2.png")
		require.NoError(t, err)
		data, err := io.ReadAll(object.Body)
		require.NoError(t, object.Body.Close())
		require.NoError(t, err)
		assert.Equal(t, "png", string(data))
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		assert.NoError(t, release(ctx, mq.Message{ID: "bad", Data: []byte("{")}))
	})
}
