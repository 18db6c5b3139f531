package store

import (
	"context"
	"testing"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserRepository(t *testing.T) {
	users := NewMemoryStore().Users()
	ctx := context.Background()

	created, err := users.Create(ctx, types.User{Name: "Alice", Email: "Alice@Example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice@example.com", created.Email)

	_, err = users.Create(ctx, types.User{Name: "Again", Email: "alice@example.com"})
	assert.ErrorIs(t, err, ErrConflict)

	found, err := users.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryPostRepository_Ownership(t *testing.T) {
	memory := NewMemoryStore()
	posts := memory.Posts()
	ctx := context.Background()

	post, err := posts.Create(ctx, types.Post{UserID: "alice", Text: "hello"})
	require.NoError(t, err)
	assert.NotNil(t, post.Likes)

	assert.ErrorIs(t, posts.UpdateText(ctx, post.ID, "bob", "nope"), ErrNotOwner)
	assert.ErrorIs(t, posts.UpdateText(ctx, "missing", "alice", "nope"), ErrNotFound)
	require.NoError(t, posts.UpdateText(ctx, post.ID, "alice", ""))

	view, err := posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", view.Text)

	_, err = posts.Delete(ctx, post.ID, "bob")
	assert.ErrorIs(t, err, ErrNotOwner)

	deleted, err := posts.Delete(ctx, post.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, post.ID, deleted.ID)

	_, err = posts.Delete(ctx, post.ID, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryPostRepository_ToggleLike(t *testing.T) {
	posts := NewMemoryStore().Posts()
	ctx := context.Background()

	post, err := posts.Create(ctx, types.Post{UserID: "alice", Text: "hello"})
	require.NoError(t, err)

	liked, err := posts.ToggleLike(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.True(t, liked)
	liked, err = posts.ToggleLike(ctx, post.ID, "carol")
	require.NoError(t, err)
	assert.True(t, liked)

	view, err := posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, view.Likes)

	liked, err = posts.ToggleLike(ctx, post.ID, "bob")
	require.NoError(t, err)
	assert.False(t, liked)

	view, err = posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, view.Likes)

	_, err = posts.ToggleLike(ctx, "missing", "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}
