package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/types"
)

// Error kinds returned by API calls. Match them with errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrAuthorization  = errors.New("authorization error")
	ErrNotFound       = errors.New("not found")
	ErrAuthentication = errors.New("authentication error")
	ErrConflict       = errors.New("conflict")
	ErrTransport      = errors.New("transport error")
)

const defaultTimeout = 30 * time.Second

// APIError is a failed API response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Is classifies the error by the code in the response body, falling back to
// the status when the body carries none.
func (e *APIError) Is(target error) bool {
	return e.kind() == target
}

func (e *APIError) kind() error {
	switch e.Code {
	case "ValidationError":
		return ErrValidation
	case "AuthorizationError":
		return ErrAuthorization
	case "NotFoundError":
		return ErrNotFound
	case "AuthenticationError":
		return ErrAuthentication
	case "ConflictError":
		return ErrConflict
	case "InternalError":
		return ErrTransport
	}
	switch e.Status {
	case http.StatusBadRequest:
		return ErrValidation
	case http.StatusUnauthorized:
		return ErrAuthentication
	case http.StatusForbidden:
		return ErrAuthorization
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	default:
		return ErrTransport
	}
}

// Session is the result of a successful login or signup.
type Session struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

// Image is an image file attached to a new post.
type Image struct {
	Filename string
	Data     []byte
}

// API is a typed client for the ConnectSphere HTTP surface.
type API struct {
	BaseURL string
	Client  *http.Client
}

func NewAPI(baseURL string) *API {
	return &API{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: defaultTimeout},
	}
}

func (a *API) Signup(ctx context.Context, name, email, password string) (Session, error) {
	var session Session
	body := map[string]string{"name": name, "email": email, "password": password}
	err := a.doJSON(ctx, http.MethodPost, "/users/signup", "", body, &session)
	return session, err
}

func (a *API) Login(ctx context.Context, email, password string) (Session, error) {
	var session Session
	body := map[string]string{"email": email, "password": password}
	err := a.doJSON(ctx, http.MethodPost, "/users/login", "", body, &session)
	return session, err
}

// Me resolves a token into the user it was issued for.
func (a *API) Me(ctx context.Context, token string) (types.User, error) {
	var user types.User
	err := a.doJSON(ctx, http.MethodGet, "/users/me", token, nil, &user)
	return user, err
}

func (a *API) User(ctx context.Context, userID string) (types.User, error) {
	var user types.User
	err := a.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), "", nil, &user)
	return user, err
}

func (a *API) ListPosts(ctx context.Context) ([]types.PostView, error) {
	var posts []types.PostView
	err := a.doJSON(ctx, http.MethodGet, "/posts", "", nil, &posts)
	return posts, err
}

func (a *API) ListPostsByAuthor(ctx context.Context, userID string) ([]types.PostView, error) {
	var posts []types.PostView
	err := a.doJSON(ctx, http.MethodGet, "/posts/by-author/"+url.PathEscape(userID), "", nil, &posts)
	return posts, err
}

// CreatePost sends a multipart form so an image can travel with the text.
func (a *API) CreatePost(ctx context.Context, token, text string, image *Image) (types.PostView, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("text", text); err != nil {
		return types.PostView{}, err
	}
	if image != nil {
		part, err := form.CreateFormFile("image", filepath.Base(image.Filename))
		if err != nil {
			return types.PostView{}, err
		}
		if _, err := part.Write(image.Data); err != nil {
			return types.PostView{}, err
		}
	}
	if err := form.Close(); err != nil {
		return types.PostView{}, err
	}

	var post types.PostView
	err := a.do(ctx, http.MethodPost, "/posts", token, form.FormDataContentType(), &buf, &post)
	return post, err
}

func (a *API) UpdatePost(ctx context.Context, token, postID, text string) (types.PostView, error) {
	var post types.PostView
	body := map[string]string{"text": text}
	err := a.doJSON(ctx, http.MethodPut, "/posts/"+url.PathEscape(postID), token, body, &post)
	return post, err
}

func (a *API) DeletePost(ctx context.Context, token, postID string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := a.doJSON(ctx, http.MethodDelete, "/posts/"+url.PathEscape(postID), token, nil, &resp)
	return resp.ID, err
}

func (a *API) ToggleLike(ctx context.Context, token, postID string) (types.PostView, error) {
	var post types.PostView
	err := a.doJSON(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/like", token, nil, &post)
	return post, err
}

func (a *API) doJSON(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return a.do(ctx, method, path, token, contentType, reader, out)
}

func (a *API) do(ctx context.Context, method, path, token, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Code = payload.Error
			apiErr.Message = payload.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	return nil
}
