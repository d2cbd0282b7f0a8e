package content

import (
	"blogsite/internal/storage"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gofrs/uuid/v5"
)

// MaxUploadSize bounds a single feature image held in memory before it is stored
const MaxUploadSize = 10 << 20

// supported image types mapped to the extension used in the object key
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Media is a stored object and the public URL it is served from
type Media struct {
	Key string
	URL string
}

// Uploader stores feature images on the media host
type Uploader struct {
	store     storage.Provider
	baseURL   string
	namespace uuid.UUID
	maxSize   int64
}

func NewUploader(store storage.Provider, baseURL string, namespace uuid.UUID) *Uploader {
	return &Uploader{
		store:     store,
		baseURL:   baseURL,
		namespace: namespace,
		maxSize:   MaxUploadSize,
	}
}

// Upload sniffs the image type, stores the bytes under a fresh key and returns where it lives
func (u *Uploader) Upload(ctx context.Context, r io.Reader, name string) (Media, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.maxSize+1))
	if err != nil {
		return Media{}, fmt.Errorf("reading upload %q: %w", name, err)
	}
	if len(data) == 0 {
		return Media{}, ErrEmptyUpload
	}
	if int64(len(data)) > u.maxSize {
		return Media{}, fmt.Errorf("%w: limit is %d bytes", ErrUploadTooLarge, u.maxSize)
	}

	ext, err := imageExt(data)
	if err != nil {
		return Media{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return Media{}, fmt.Errorf("generating key: %w", err)
	}

	return u.save(ctx, id.String()+ext, data)
}

// Import stores a local file under a key derived from its path so repeated imports reuse the same object
func (u *Uploader) Import(ctx context.Context, r io.Reader, relPath string) (Media, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.maxSize+1))
	if err != nil {
		return Media{}, fmt.Errorf("%w: %s: %v", ErrReadingFile, relPath, err)
	}
	if int64(len(data)) > u.maxSize {
		return Media{}, fmt.Errorf("%w: %s", ErrUploadTooLarge, relPath)
	}

	ext, err := imageExt(data)
	if err != nil {
		return Media{}, err
	}

	key := uuid.NewV5(u.namespace, path.Clean(relPath)).String() + ext
	if u.store.Exists(ctx, key) {
		return Media{Key: key, URL: u.URL(key)}, nil
	}

	return u.save(ctx, key, data)
}

func (u *Uploader) save(ctx context.Context, key string, data []byte) (Media, error) {
	if err := u.store.Save(ctx, key, bytes.NewReader(data)); err != nil {
		return Media{}, fmt.Errorf("storing %s: %w", key, err)
	}
	return Media{Key: key, URL: u.URL(key)}, nil
}

// Delete removes a stored object, a missing key is not an error
func (u *Uploader) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return u.store.Delete(ctx, key)
}

// URL is the public address for a key
func (u *Uploader) URL(key string) string {
	if strings.HasSuffix(u.baseURL, "/") {
		return u.baseURL + url.PathEscape(key)
	}
	return u.baseURL + "/" + url.PathEscape(key)
}

func imageExt(data []byte) (string, error) {
	mimeType := http.DetectContentType(data)
	ext, ok := imageTypes[mimeType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, mimeType)
	}
	return ext, nil
}
