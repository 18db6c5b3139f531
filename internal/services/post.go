package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/types"
	"github.com/rivo/uniseg"
)

const maxPostGraphemes = 5000

// PostRepository defines persistence operations for posts. UpdateText,
// Delete and ToggleLike must check and write atomically per post.
type PostRepository interface {
	List(ctx context.Context) ([]types.PostView, error)
	ListByAuthor(ctx context.Context, userID string) ([]types.PostView, error)
	Get(ctx context.Context, id string) (types.PostView, error)
	Create(ctx context.Context, post types.Post) (types.Post, error)
	UpdateText(ctx context.Context, id, userID, text string) error
	Delete(ctx context.Context, id, userID string) (types.Post, error)
	ToggleLike(ctx context.Context, id, userID string) (bool, error)
}

// PostService encapsulates post use-cases: authorship checks, like toggling
// and shaping records into view models.
type PostService struct {
	repo   PostRepository
	images *ImageService
	events *PostEvents
}

// NewPostService constructs a PostService. events may be nil, in which case
// images of deleted posts are released inline.
func NewPostService(repo PostRepository, images *ImageService, events *PostEvents) *PostService {
	return &PostService{
		repo:   repo,
		images: images,
		events: events,
	}
}

func (s *PostService) List(ctx context.Context) ([]types.PostView, error) {
	posts, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return sortNewestFirst(posts), nil
}

func (s *PostService) ListByAuthor(ctx context.Context, userID string) ([]types.PostView, error) {
	posts, err := s.repo.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sortNewestFirst(posts), nil
}

// Create stores a new post authored by userID. The image is optional; when
// present it is stored first and released again if the post cannot be saved.
func (s *PostService) Create(ctx context.Context, userID, text string, image *ImageUpload) (types.PostView, error) {
	if userID == "" {
		return types.PostView{}, ErrUnauthenticated
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return types.PostView{}, validationError("please add a text field")
	}
	if err := checkTextLength(text); err != nil {
		return types.PostView{}, err
	}

	post := types.Post{
		UserID: userID,
		Text:   text,
	}

	var imageKey string
	if image != nil {
		if s.images == nil {
			return types.PostView{}, validationError("image uploads are not enabled")
		}
		stored, err := s.images.Save(ctx, *image)
		if err != nil {
			return types.PostView{}, err
		}
		imageKey = stored.Key
		post.ImageURL = stored.URL
	}

	created, err := s.repo.Create(ctx, post)
	if err != nil {
		if imageKey != "" {
			s.images.Release(ctx, imageKey)
		}
		return types.PostView{}, fmt.Errorf("create post: %w", err)
	}

	view, err := s.repo.Get(ctx, created.ID)
	if err != nil {
		return types.PostView{}, mapStoreError(err)
	}

	s.publish(ctx, types.PostCreated, view.ID, userID, "")
	return view, nil
}

// Update replaces the post text when text is non-empty. Only the author may
// update; author and creation time never change.
func (s *PostService) Update(ctx context.Context, userID, postID, text string) (types.PostView, error) {
	if userID == "" {
		return types.PostView{}, ErrUnauthenticated
	}

	text = strings.TrimSpace(text)
	if err := checkTextLength(text); err != nil {
		// Missing post and wrong author take precedence over bad input.
		if ownerErr := s.checkAuthor(ctx, postID, userID); ownerErr != nil {
			return types.PostView{}, ownerErr
		}
		return types.PostView{}, err
	}

	if err := s.repo.UpdateText(ctx, postID, userID, text); err != nil {
		return types.PostView{}, mapStoreError(err)
	}

	view, err := s.repo.Get(ctx, postID)
	if err != nil {
		return types.PostView{}, mapStoreError(err)
	}

	if text != "" {
		s.publish(ctx, types.PostUpdated, postID, userID, "")
	}
	return view, nil
}

func (s *PostService) checkAuthor(ctx context.Context, postID, userID string) error {
	view, err := s.repo.Get(ctx, postID)
	if err != nil {
		return mapStoreError(err)
	}
	if view.UserID != userID {
		return ErrNotAuthor
	}
	return nil
}

// Delete removes a post owned by userID and releases its image.
func (s *PostService) Delete(ctx context.Context, userID, postID string) (string, error) {
	if userID == "" {
		return "", ErrUnauthenticated
	}

	deleted, err := s.repo.Delete(ctx, postID, userID)
	if err != nil {
		return "", mapStoreError(err)
	}

	imageKey := types.ImageKey(deleted.ImageURL)
	published := s.publish(ctx, types.PostDeleted, deleted.ID, userID, imageKey)
	if imageKey != "" && !published && s.images != nil {
		s.images.Release(ctx, imageKey)
	}
	return deleted.ID, nil
}

// ToggleLike adds userID to the post's like set, or removes it when already
// present. Any authenticated user may like any post, including their own.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID string) (types.PostView, error) {
	if userID == "" {
		return types.PostView{}, ErrUnauthenticated
	}

	liked, err := s.repo.ToggleLike(ctx, postID, userID)
	if err != nil {
		return types.PostView{}, mapStoreError(err)
	}

	view, err := s.repo.Get(ctx, postID)
	if err != nil {
		return types.PostView{}, mapStoreError(err)
	}

	eventType := types.PostUnliked
	if liked {
		eventType = types.PostLiked
	}
	s.publish(ctx, eventType, postID, userID, "")
	return view, nil
}

// publish emits a post event and reports whether it was handed to the
// queue. Failures are logged and never fail the request.
func (s *PostService) publish(ctx context.Context, eventType types.PostEventType, postID, userID, imageKey string) bool {
	if s.events == nil {
		return false
	}
	err := s.events.Publish(ctx, types.PostEvent{
		Type:       eventType,
		PostID:     postID,
		UserID:     userID,
		ImageKey:   imageKey,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		slog.WarnContext(ctx, "publish post event", "type", eventType, "post_id", postID, "error", err)
		return false
	}
	return true
}

func checkTextLength(text string) error {
	if uniseg.GraphemeClusterCount(text) > maxPostGraphemes {
		return validationError("text must be at most %d characters", maxPostGraphemes)
	}
	return nil
}

func sortNewestFirst(posts []types.PostView) []types.PostView {
	if posts == nil {
		return []types.PostView{}
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}
