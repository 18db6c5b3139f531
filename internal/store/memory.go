package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/types"
	"github.com/google/uuid"
)

// MemoryStore keeps users and posts in process memory. Data is lost on
// restart; it backs local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]types.User
	byEmail map[string]string
	posts   map[string]*types.Post
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]types.User),
		byEmail: make(map[string]string),
		posts:   make(map[string]*types.Post),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Users returns a user repository over the store.
func (s *MemoryStore) Users() *MemoryUserRepository {
	return &MemoryUserRepository{store: s}
}

// Posts returns a post repository over the store.
func (s *MemoryStore) Posts() *MemoryPostRepository {
	return &MemoryPostRepository{store: s}
}

// MemoryUserRepository handles users in a MemoryStore.
type MemoryUserRepository struct {
	store *MemoryStore
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.users[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.byEmail[strings.ToLower(email)]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return r.store.users[id], nil
}

func (r *MemoryUserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user.Email = strings.ToLower(user.Email)
	if _, taken := r.store.byEmail[user.Email]; taken {
		return types.User{}, ErrConflict
	}

	user.ID = uuid.NewString()
	user.CreatedAt = r.store.now()
	r.store.users[user.ID] = user
	r.store.byEmail[user.Email] = user.ID
	return user, nil
}

// MemoryPostRepository handles posts in a MemoryStore. Every operation runs
// under the store lock, so checks and writes are atomic.
type MemoryPostRepository struct {
	store *MemoryStore
}

func (r *MemoryPostRepository) List(ctx context.Context) ([]types.PostView, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.views(func(*types.Post) bool { return true }), nil
}

func (r *MemoryPostRepository) ListByAuthor(ctx context.Context, userID string) ([]types.PostView, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.views(func(p *types.Post) bool { return p.UserID == userID }), nil
}

func (r *MemoryPostRepository) Get(ctx context.Context, id string) (types.PostView, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	post, ok := r.store.posts[id]
	if !ok {
		return types.PostView{}, ErrNotFound
	}
	return r.store.view(post), nil
}

func (r *MemoryPostRepository) Create(ctx context.Context, post types.Post) (types.Post, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	post.ID = uuid.NewString()
	post.CreatedAt = r.store.now()
	post.Likes = []string{}
	stored := post
	r.store.posts[post.ID] = &stored
	return post, nil
}

func (r *MemoryPostRepository) UpdateText(ctx context.Context, id, userID, text string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	post, err := r.store.owned(id, userID)
	if err != nil {
		return err
	}
	if text != "" {
		post.Text = text
	}
	return nil
}

func (r *MemoryPostRepository) Delete(ctx context.Context, id, userID string) (types.Post, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	post, err := r.store.owned(id, userID)
	if err != nil {
		return types.Post{}, err
	}
	delete(r.store.posts, id)
	return *post, nil
}

func (r *MemoryPostRepository) ToggleLike(ctx context.Context, id, userID string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	post, ok := r.store.posts[id]
	if !ok {
		return false, ErrNotFound
	}
	for i, liker := range post.Likes {
		if liker == userID {
			post.Likes = append(post.Likes[:i:i], post.Likes[i+1:]...)
			return false, nil
		}
	}
	post.Likes = append(post.Likes, userID)
	return true, nil
}

func (s *MemoryStore) owned(id, userID string) (*types.Post, error) {
	post, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if post.UserID != userID {
		return nil, ErrNotOwner
	}
	return post, nil
}

func (s *MemoryStore) view(post *types.Post) types.PostView {
	return types.PostView{
		ID:        post.ID,
		Text:      post.Text,
		ImageURL:  post.ImageURL,
		CreatedAt: post.CreatedAt,
		Likes:     append([]string{}, post.Likes...),
		UserID:    post.UserID,
		UserName:  s.users[post.UserID].Name,
	}
}

func (s *MemoryStore) views(keep func(*types.Post) bool) []types.PostView {
	views := make([]types.PostView, 0, len(s.posts))
	for _, post := range s.posts {
		if keep(post) {
			views = append(views, s.view(post))
		}
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].ID > views[j].ID
		}
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views
}
