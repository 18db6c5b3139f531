package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/services"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/storage"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/store"
	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testAPI struct {
	router http.Handler
	users  *store.MemoryUserRepository
}

func newTestAPI(t *testing.T) testAPI {
	t.Helper()

	memory := store.NewMemoryStore()
	local, err := storage.NewLocalClient(t.TempDir())
	require.NoError(t, err)
	objects := storage.NewStorage(local)

	userService := services.NewUserService(memory.Users())
	postService := services.NewPostService(memory.Posts(), services.NewImageService(objects, 0), nil)

	r := chi.NewRouter()
	r.Get("/healthz", Healthz)
	r.Route("/users", func(r chi.Router) {
		UserRouter(r, userService, testSecret, time.Hour)
	})
	r.Route("/posts", func(r chi.Router) {
		PostRouter(r, postService, 1<<20, RequireAuth(testSecret))
	})
	r.Route("/uploads", func(r chi.Router) {
		UploadRouter(r, objects)
	})

	return testAPI{router: r, users: memory.Users()}
}

func (a testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a testAPI) signup(t *testing.T, name, email string) AuthResponse {
	t.Helper()

	w := a.do(t, http.MethodPost, "/users/signup", "", SignupRequest{Name: name, Email: email, Password: "secret123"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestPostHandlers_Lifecycle(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup(t, "Alice", "alice@example.com")
	bob := api.signup(t, "Bob", "bob@example.com")

	w := api.do(t, http.MethodPost, "/posts", alice.Token, map[string]string{"text": "hello"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[types.PostView](t, w)
	assert.Equal(t, "hello", created.Text)
	assert.Equal(t, alice.User.ID, created.UserID)
	assert.Equal(t, "Alice", created.UserName)

	w = api.do(t, http.MethodGet, "/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	feed := decodeBody[[]types.PostView](t, w)
	require.Len(t, feed, 1)
	assert.Equal(t, created.ID, feed[0].ID)
	assert.Contains(t, w.Body.String(), `"likes":[]`)

	w = api.do(t, http.MethodPost, "/posts/"+created.ID+"/like", bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{bob.User.ID}, decodeBody[types.PostView](t, w).Likes)

	w = api.do(t, http.MethodPost, "/posts/"+created.ID+"/like", bob.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[types.PostView](t, w).Likes)

	w = api.do(t, http.MethodPut, "/posts/"+created.ID, alice.Token, map[string]string{"text": "edited"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "edited", decodeBody[types.PostView](t, w).Text)

	w = api.do(t, http.MethodGet, "/posts/by-author/"+alice.User.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]types.PostView](t, w), 1)

	w = api.do(t, http.MethodGet, "/posts/user/"+bob.User.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody[[]types.PostView](t, w))

	w = api.do(t, http.MethodDelete, "/posts/"+created.ID, alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decodeBody[DeletePostResponse](t, w).ID)

	w = api.do(t, http.MethodDelete, "/posts/"+created.ID, alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeNotFound, decodeBody[ErrorResponse](t, w).Error)
}

func TestPostHandlers_CreateValidation(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup(t, "Alice", "alice@example.com")

	w := api.do(t, http.MethodPost, "/posts", alice.Token, map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeBody[ErrorResponse](t, w)
	assert.Equal(t, CodeValidation, resp.Error)
	assert.Equal(t, "please add a text field", resp.Message)

	w = api.do(t, http.MethodPost, "/posts", alice.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, http.MethodGet, "/posts", "", nil)
	assert.Empty(t, decodeBody[[]types.PostView](t, w))
}

func TestPostHandlers_RequireToken(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		method string
		path   string
		token  string
	}{
		{http.MethodPost, "/posts", ""},
		{http.MethodPut, "/posts/abc", ""},
		{http.MethodDelete, "/posts/abc", "garbage"},
		{http.MethodPost, "/posts/abc/like", "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := api.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, CodeAuthentication, decodeBody[ErrorResponse](t, w).Error)
		})
	}
}

func TestPostHandlers_NonAuthor(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup(t, "Alice", "alice@example.com")
	bob := api.signup(t, "Bob", "bob@example.com")

	w := api.do(t, http.MethodPost, "/posts", alice.Token, map[string]string{"text": "hello"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody[types.PostView](t, w)

	w = api.do(t, http.MethodPut, "/posts/"+created.ID, bob.Token, map[string]string{"text": "hijacked"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeAuthorization, decodeBody[ErrorResponse](t, w).Error)

	w = api.do(t, http.MethodDelete, "/posts/"+created.ID, bob.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeAuthorization, decodeBody[ErrorResponse](t, w).Error)

	w = api.do(t, http.MethodGet, "/posts", "", nil)
	feed := decodeBody[[]types.PostView](t, w)
	require.Len(t, feed, 1)
	assert.Equal(t, "hello", feed[0].Text)
}

func TestPostHandlers_MissingPostStatuses(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup(t, "Alice", "alice@example.com")

	w := api.do(t, http.MethodPut, "/posts/missing", alice.Token, map[string]string{"text": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeNotFound, decodeBody[ErrorResponse](t, w).Error)

	w = api.do(t, http.MethodPost, "/posts/missing/like", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, decodeBody[ErrorResponse](t, w).Error)
}

func TestPostHandlers_UpdateWithEmptyBody(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup(t, "Alice", "alice@example.com")

	w := api.do(t, http.MethodPost, "/posts", alice.Token, map[string]string{"text": "keep me"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody[types.PostView](t, w)

	w = api.do(t, http.MethodPut, "/posts/"+created.ID, alice.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "keep me", decodeBody[types.PostView](t, w).Text)
}

func TestPostHandlers_MultipartCreateAndServeImage(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup(t, "Alice", "alice@example.com")

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 4, 4))))

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("text", "with picture"))
	part, err := form.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/posts", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+alice.Token)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decodeBody[types.PostView](t, w)
	require.True(t, strings.HasPrefix(created.ImageURL, "/uploads/"))

	w = api.do(t, http.MethodGet, created.ImageURL, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, img.Bytes(), w.Body.Bytes())

	w = api.do(t, http.MethodGet, "/uploads/image-missing.png", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostHandlers_MultipartRejectsTwoImages(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signup(t, "Alice", "alice@example.com")

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("text", "two pictures"))
	for _, name := range []string{"a.png", "b.png"} {
		part, err := form.CreateFormFile("image", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("data"))
		require.NoError(t, err)
	}
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/posts", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+alice.Token)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "only one image is allowed", decodeBody[ErrorResponse](t, w).Message)
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestUserIDFromContext(t *testing.T) {
	_, err := userIDFromContext(context.Background())
	assert.Error(t, err)

	ctx := context.WithValue(context.Background(), contextSubjectKey, "  ")
	_, err = userIDFromContext(ctx)
	assert.Error(t, err)

	ctx = context.WithValue(context.Background(), contextSubjectKey, "user-1")
	id, err := userIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
}
