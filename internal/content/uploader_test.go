package content

import (
	"blogsite/internal/storage"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/gofrs/uuid/v5"
)

var testNamespace = uuid.Must(uuid.FromString("6ba7b811-9dad-11d1-80b4-00c04fd430c8"))

func newTestUploader(t *testing.T) (*Uploader, *storage.LocalStore) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}
	return NewUploader(store, "/media/", testNamespace), store
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestUploaderUpload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	u, store := newTestUploader(t)

	media, err := u.Upload(ctx, bytes.NewReader(pngBytes(t, 4, 4)), "holiday.png")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if !strings.HasSuffix(media.Key, ".png") {
		t.Errorf("key %q should carry the sniffed extension", media.Key)
	}
	if media.URL != "/media/"+media.Key {
		t.Errorf("url = %q, want /media/%s", media.URL, media.Key)
	}
	if !store.Exists(ctx, media.Key) {
		t.Fatalf("uploaded object missing from store")
	}

	// every upload gets its own key
	again, err := u.Upload(ctx, bytes.NewReader(pngBytes(t, 4, 4)), "holiday.png")
	if err != nil {
		t.Fatalf("second Upload failed: %v", err)
	}
	if again.Key == media.Key {
		t.Errorf("expected distinct keys, both were %q", media.Key)
	}

	if err := u.Delete(ctx, media.Key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if store.Exists(ctx, media.Key) {
		t.Errorf("object still present after Delete")
	}
}

func TestUploaderRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    io.Reader
		wantErr error
	}{
		{name: "empty", body: strings.NewReader(""), wantErr: ErrEmptyUpload},
		{name: "text", body: strings.NewReader("definitely not a picture"), wantErr: ErrUnsupportedMedia},
		{name: "too large", body: io.LimitReader(zeroReader{}, MaxUploadSize+10), wantErr: ErrUploadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			u, _ := newTestUploader(t)
			_, err := u.Upload(context.Background(), tt.body, "x")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUploaderImportIsStable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	u, _ := newTestUploader(t)
	data := pngBytes(t, 2, 2)

	first, err := u.Import(ctx, bytes.NewReader(data), "images/cat.png")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	second, err := u.Import(ctx, bytes.NewReader(data), "images/./cat.png")
	if err != nil {
		t.Fatalf("second Import failed: %v", err)
	}
	if first.Key != second.Key {
		t.Errorf("same path should map to same key: %q vs %q", first.Key, second.Key)
	}
}

func TestUploaderURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base, key, want string
	}{
		{"/media/", "a.png", "/media/a.png"},
		{"/media", "a.png", "/media/a.png"},
		{"https://cdn.example.com/blog/", "a b.png", "https://cdn.example.com/blog/a%20b.png"},
	}
	for _, tt := range tests {
		u := NewUploader(nil, tt.base, testNamespace)
		if got := u.URL(tt.key); got != tt.want {
			t.Errorf("URL(%q) with base %q = %q, want %q", tt.key, tt.base, got, tt.want)
		}
	}
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}
