package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/internal/services"
	"github.com/go-chi/chi/v5"
)

const (
	maxMultipartMemory = 8 << 20
	maxJSONBodyBytes   = 1 << 20
	formFieldText      = "text"
	formFieldImage     = "image"
)

// PostHandler provides HTTP handlers for posts.
type PostHandler struct {
	postService   *services.PostService
	maxImageBytes int64
}

// NewPostHandler constructs a handler with the provided service.
func NewPostHandler(postService *services.PostService, maxImageBytes int64) *PostHandler {
	return &PostHandler{
		postService:   postService,
		maxImageBytes: maxImageBytes,
	}
}

// PostRouter registers post routes on the given router.
func PostRouter(
	r chi.Router,
	postService *services.PostService,
	maxImageBytes int64,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewPostHandler(postService, maxImageBytes)

	r.Get("/", handler.ListPosts)
	r.Get("/by-author/{userID}", handler.ListPostsByAuthor)
	r.Get("/user/{userID}", handler.ListPostsByAuthor)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", handler.CreatePost)
		r.Put("/{postID}", handler.UpdatePost)
		r.Delete("/{postID}", handler.DeletePost)
		r.Post("/{postID}/like", handler.ToggleLike)
	})
}

func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.List(r.Context())
	if err != nil {
		writeInternalError(w, r, "failed to list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) ListPostsByAuthor(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.ListByAuthor(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeInternalError(w, r, "failed to list posts", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// CreatePost accepts either a multipart form with a text field and an
// optional image file, or a JSON body with a text field.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, CodeAuthentication, "unauthorized")
		return
	}

	req, err := h.parseCreateRequest(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req.Text, req.Image)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to create post", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

// UpdatePost replaces the text of a post. An empty or missing body leaves
// the post unchanged and returns it.
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, CodeAuthentication, "unauthorized")
		return
	}

	var req UpdatePostRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request")
		return
	}

	post, err := h.postService.Update(r.Context(), userID, chi.URLParam(r, "postID"), req.Text)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update post", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, CodeAuthentication, "unauthorized")
		return
	}

	id, err := h.postService.Delete(r.Context(), userID, chi.URLParam(r, "postID"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to delete post", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, DeletePostResponse{ID: id})
}

func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, CodeAuthentication, "unauthorized")
		return
	}

	post, err := h.postService.ToggleLike(r.Context(), userID, chi.URLParam(r, "postID"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to like post", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// writeServiceError maps service errors to responses. notFoundStatus is
// the status used for a missing post, which differs between routes.
func (h *PostHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, message string, notFoundStatus int) {
	var validation *services.ValidationError
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, CodeValidation, validation.Message)
	case errors.Is(err, services.ErrValidation):
		writeError(w, http.StatusBadRequest, CodeValidation, err.Error())
	case errors.Is(err, services.ErrNotFound):
		writeError(w, notFoundStatus, CodeNotFound, "post not found")
	case errors.Is(err, services.ErrNotAuthor):
		writeError(w, http.StatusUnauthorized, CodeAuthorization, "user not authorized")
	case errors.Is(err, services.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, CodeAuthentication, "unauthorized")
	default:
		writeInternalError(w, r, message, err)
	}
}

type CreatePostRequest struct {
	Text  string                `json:"text"`
	Image *services.ImageUpload `json:"-"`
}

type UpdatePostRequest struct {
	Text string `json:"text"`
}

type DeletePostResponse struct {
	ID string `json:"id"`
}

func (h *PostHandler) parseCreateRequest(w http.ResponseWriter, r *http.Request) (CreatePostRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req CreatePostRequest
		if err := decodeOptionalJSON(w, r, &req); err != nil {
			return CreatePostRequest{}, errors.New("invalid request")
		}
		return req, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+maxMultipartMemory)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return CreatePostRequest{}, errors.New("image is too large")
		}
		return CreatePostRequest{}, errors.New("invalid multipart form")
	}

	req := CreatePostRequest{Text: r.FormValue(formFieldText)}

	files := r.MultipartForm.File[formFieldImage]
	switch len(files) {
	case 0:
		return req, nil
	case 1:
	default:
		return CreatePostRequest{}, errors.New("only one image is allowed")
	}

	upload, err := readUpload(files[0], h.maxImageBytes)
	if err != nil {
		return CreatePostRequest{}, err
	}
	req.Image = &upload
	return req, nil
}

func readUpload(header *multipart.FileHeader, maxBytes int64) (services.ImageUpload, error) {
	if maxBytes > 0 && header.Size > maxBytes {
		return services.ImageUpload{}, errors.New("image is too large")
	}

	file, err := header.Open()
	if err != nil {
		return services.ImageUpload{}, errors.New("failed to read image")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return services.ImageUpload{}, errors.New("failed to read image")
	}

	return services.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// decodeOptionalJSON decodes a JSON body into dst. An empty body leaves dst
// untouched.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	body := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}
