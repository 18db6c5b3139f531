package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	defaultMaxImageBytes = 5 << 20
	maxImageDimension    = 2048
	uploadsPathPrefix    = "/uploads/"
)

var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ImageStore is the subset of object storage the image service needs.
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}

// ImageUpload is an image payload attached to a new post.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// StoredImage identifies a saved image.
type StoredImage struct {
	Key string
	URL string
}

// ImageService validates uploaded images and keeps them in object storage.
type ImageService struct {
	store    ImageStore
	maxBytes int64
}

func NewImageService(store ImageStore, maxBytes int64) *ImageService {
	if maxBytes <= 0 {
		maxBytes = defaultMaxImageBytes
	}
	return &ImageService{store: store, maxBytes: maxBytes}
}

// MaxBytes returns the largest accepted upload.
func (s *ImageService) MaxBytes() int64 {
	return s.maxBytes
}

// Save validates the upload and stores it. Only JPEG and PNG images are
// accepted; images larger than maxImageDimension on either side are scaled
// down before storing.
func (s *ImageService) Save(ctx context.Context, upload ImageUpload) (StoredImage, error) {
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	contentType, ok := imageContentTypes[ext]
	if !ok {
		return StoredImage{}, validationError("images only: jpg, jpeg or png")
	}
	if declared := strings.ToLower(upload.ContentType); declared != "" && !isImageContentType(declared) {
		return StoredImage{}, validationError("images only: jpg, jpeg or png")
	}
	if len(upload.Data) == 0 {
		return StoredImage{}, validationError("image is empty")
	}
	if int64(len(upload.Data)) > s.maxBytes {
		return StoredImage{}, validationError("image must be at most %d bytes", s.maxBytes)
	}

	data, err := normalizeImage(upload.Data, ext)
	if err != nil {
		return StoredImage{}, err
	}

	key := fmt.Sprintf("image-%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
	if err := s.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return StoredImage{}, fmt.Errorf("store image: %w", err)
	}

	return StoredImage{Key: key, URL: uploadsPathPrefix + key}, nil
}

// Release deletes a stored image. Failures are logged only.
func (s *ImageService) Release(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		slog.WarnContext(ctx, "release image", "key", key, "error", err)
	}
}

// normalizeImage applies EXIF orientation and bounds the image to
// maxImageDimension. PNGs within bounds are kept byte for byte; JPEGs are
// always re-encoded so the orientation is baked into the pixels.
func normalizeImage(data []byte, ext string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, validationError("image could not be decoded")
	}

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return nil, validationError("images only: jpg, jpeg or png")
	}

	bounds := img.Bounds()
	oversized := bounds.Dx() > maxImageDimension || bounds.Dy() > maxImageDimension
	if !oversized && format != imaging.JPEG {
		return data, nil
	}
	if oversized {
		img = imaging.Fit(img, maxImageDimension, maxImageDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func isImageContentType(contentType string) bool {
	return strings.Contains(contentType, "jpg") ||
		strings.Contains(contentType, "jpeg") ||
		strings.Contains(contentType, "png") ||
		contentType == "application/octet-stream"
}
