package client

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/types"
)

// Phase is the session state of a Container.
type Phase int

const (
	Uninitialized Phase = iota
	Loading
	LoggedOut
	LoggedIn
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case LoggedOut:
		return "logged out"
	case LoggedIn:
		return "logged in"
	default:
		return "unknown"
	}
}

// Service is the remote surface the container talks to. *API satisfies it.
type Service interface {
	Signup(ctx context.Context, name, email, password string) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)
	Me(ctx context.Context, token string) (types.User, error)
	User(ctx context.Context, userID string) (types.User, error)
	ListPosts(ctx context.Context) ([]types.PostView, error)
	ListPostsByAuthor(ctx context.Context, userID string) ([]types.PostView, error)
	CreatePost(ctx context.Context, token, text string, image *Image) (types.PostView, error)
	UpdatePost(ctx context.Context, token, postID, text string) (types.PostView, error)
	DeletePost(ctx context.Context, token, postID string) (string, error)
	ToggleLike(ctx context.Context, token, postID string) (types.PostView, error)
}

// Profile is a user together with their posts, newest first.
type Profile struct {
	Found bool
	User  types.User
	Posts []types.PostView
}

// Container owns the client session: the signed-in user, the working set
// of posts and the search filter. All state changes go through its methods.
// Remote calls are made without holding the lock.
type Container struct {
	service Service
	tokens  TokenStore

	mu     sync.Mutex
	phase  Phase
	token  string
	user   *types.User
	posts  []types.PostView
	search string
}

func NewContainer(service Service, tokens TokenStore) *Container {
	return &Container{
		service: service,
		tokens:  tokens,
		phase:   Uninitialized,
		posts:   []types.PostView{},
	}
}

// Initialize resolves a stored token into a session. Without a usable token
// the container ends up logged out with no posts.
func (c *Container) Initialize(ctx context.Context) error {
	c.mu.Lock()
	c.phase = Loading
	c.mu.Unlock()

	token, err := c.tokens.Load()
	if err != nil || token == "" {
		c.setLoggedOut()
		return err
	}

	user, err := c.service.Me(ctx, token)
	if err != nil {
		_ = c.tokens.Clear()
		c.setLoggedOut()
		if errors.Is(err, ErrAuthentication) || errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}

	c.mu.Lock()
	c.phase = LoggedIn
	c.token = token
	c.user = &user
	c.mu.Unlock()

	return c.refresh(ctx)
}

// Login exchanges credentials for a session and loads the feed. A failed
// login leaves the state untouched.
func (c *Container) Login(ctx context.Context, email, password string) error {
	session, err := c.service.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := c.startSession(session, nil); err != nil {
		return err
	}
	return c.refresh(ctx)
}

// Signup registers a new account. A new user has no posts yet, so the feed
// starts empty.
func (c *Container) Signup(ctx context.Context, name, email, password string) error {
	session, err := c.service.Signup(ctx, name, email, password)
	if err != nil {
		return err
	}
	return c.startSession(session, []types.PostView{})
}

// Logout clears the session locally.
func (c *Container) Logout() error {
	err := c.tokens.Clear()
	c.setLoggedOut()
	return err
}

// CreatePost publishes a post and then reloads the full feed.
func (c *Container) CreatePost(ctx context.Context, text string, image *Image) (types.PostView, error) {
	token, err := c.requireToken()
	if err != nil {
		return types.PostView{}, err
	}

	post, err := c.service.CreatePost(ctx, token, text, image)
	if err != nil {
		return types.PostView{}, c.fail(err)
	}
	return post, c.refresh(ctx)
}

// UpdatePost edits a post and replaces it in the working set.
func (c *Container) UpdatePost(ctx context.Context, postID, text string) (types.PostView, error) {
	token, err := c.requireToken()
	if err != nil {
		return types.PostView{}, err
	}

	post, err := c.service.UpdatePost(ctx, token, postID, text)
	if err != nil {
		return types.PostView{}, c.fail(err)
	}

	c.mu.Lock()
	c.posts = replacePost(c.posts, post)
	c.mu.Unlock()
	return post, nil
}

// DeletePost deletes a post and removes it from the working set.
func (c *Container) DeletePost(ctx context.Context, postID string) error {
	token, err := c.requireToken()
	if err != nil {
		return err
	}

	id, err := c.service.DeletePost(ctx, token, postID)
	if err != nil {
		return c.fail(err)
	}
	if id == "" {
		id = postID
	}

	c.mu.Lock()
	c.posts = removePost(c.posts, id)
	c.mu.Unlock()
	return nil
}

// ToggleLike flips the current user's like and replaces the post in the
// working set.
func (c *Container) ToggleLike(ctx context.Context, postID string) (types.PostView, error) {
	token, err := c.requireToken()
	if err != nil {
		return types.PostView{}, err
	}

	post, err := c.service.ToggleLike(ctx, token, postID)
	if err != nil {
		return types.PostView{}, c.fail(err)
	}

	c.mu.Lock()
	c.posts = replacePost(c.posts, post)
	c.mu.Unlock()
	return post, nil
}

// Profile fetches a user and their posts. The result is not kept in the
// container. A user that cannot be fetched yields Profile{Found: false}.
func (c *Container) Profile(ctx context.Context, userID string) (Profile, error) {
	user, err := c.service.User(ctx, userID)
	if err != nil {
		return Profile{Found: false, Posts: []types.PostView{}}, nil
	}

	posts, err := c.service.ListPostsByAuthor(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{Found: true, User: user, Posts: sortNewestFirst(posts)}, nil
}

// SetSearch sets the local search filter.
func (c *Container) SetSearch(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = query
}

// Search returns the current local search filter.
func (c *Container) Search() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search
}

// VisiblePosts returns the working set filtered by the search query.
func (c *Container) VisiblePosts() []types.PostView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return filterPosts(c.posts, c.search)
}

// Posts returns a copy of the working set.
func (c *Container) Posts() []types.PostView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.PostView{}, c.posts...)
}

func (c *Container) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// User returns the signed-in user.
func (c *Container) User() (types.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return types.User{}, false
	}
	return *c.user, true
}

// refresh replaces the working set with the server's full list.
func (c *Container) refresh(ctx context.Context) error {
	posts, err := c.service.ListPosts(ctx)
	if err != nil {
		return c.fail(err)
	}

	c.mu.Lock()
	c.posts = sortNewestFirst(posts)
	c.mu.Unlock()
	return nil
}

func (c *Container) startSession(session Session, posts []types.PostView) error {
	if err := c.tokens.Save(session.Token); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	user := session.User
	c.phase = LoggedIn
	c.token = session.Token
	c.user = &user
	if posts != nil {
		c.posts = posts
	}
	return nil
}

func (c *Container) requireToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != LoggedIn || c.token == "" {
		return "", &APIError{Status: 401, Code: "AuthenticationError", Message: "not logged in"}
	}
	return c.token, nil
}

// fail forces a logout when the server rejected the token and returns err.
func (c *Container) fail(err error) error {
	if errors.Is(err, ErrAuthentication) {
		_ = c.tokens.Clear()
		c.setLoggedOut()
	}
	return err
}

func (c *Container) setLoggedOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = LoggedOut
	c.token = ""
	c.user = nil
	c.posts = []types.PostView{}
}

func replacePost(posts []types.PostView, post types.PostView) []types.PostView {
	out := make([]types.PostView, len(posts))
	for i, p := range posts {
		if p.ID == post.ID {
			out[i] = post
			continue
		}
		out[i] = p
	}
	return out
}

func removePost(posts []types.PostView, id string) []types.PostView {
	out := make([]types.PostView, 0, len(posts))
	for _, p := range posts {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

func sortNewestFirst(posts []types.PostView) []types.PostView {
	out := append([]types.PostView{}, posts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// filterPosts keeps posts whose text contains query, ignoring case.
func filterPosts(posts []types.PostView, query string) []types.PostView {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]types.PostView, 0, len(posts))
	for _, p := range posts {
		if query == "" || strings.Contains(strings.ToLower(p.Text), query) {
			out = append(out, p)
		}
	}
	return out
}
