package blog

import (
	"blogsite/internal/content"
	"blogsite/internal/storage"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// steppingClock advances a day every time it is read
type steppingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.t
	c.t = c.t.Add(24 * time.Hour)
	return now
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

func TestCreatePostUploadFailure(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	media := &fakeMedia{uploadErr: errors.New("media host unreachable")}
	svc := NewService(store, media, discardLogger())

	post, err := svc.CreatePost(context.Background(), NewPost{
		Title: "hello", Image: strings.NewReader("img"), ImageName: "a.png",
	})

	if !errors.Is(err, ErrUpload) {
		t.Fatalf("err = %v, want ErrUpload", err)
	}
	if !strings.Contains(err.Error(), "media host unreachable") {
		t.Errorf("upload error text should be carried, got %q", err)
	}
	if post != nil {
		t.Errorf("no post expected, got %+v", post)
	}
	if store.called("CreatePost") {
		t.Errorf("persistence must not be attempted after an upload failure")
	}
}

func TestCreatePostUploadErrorKeepsCause(t *testing.T) {
	t.Parallel()
	media := &fakeMedia{uploadErr: content.ErrUploadTooLarge}
	svc := NewService(&fakeStore{}, media, discardLogger())

	_, err := svc.CreatePost(context.Background(), NewPost{
		Title: "hello", Image: strings.NewReader("img"), ImageName: "a.png",
	})

	if !errors.Is(err, ErrUpload) || !errors.Is(err, content.ErrUploadTooLarge) {
		t.Errorf("err = %v, want both ErrUpload and the uploader's cause", err)
	}
}

func TestCreatePostEmptyTitle(t *testing.T) {
	t.Parallel()

	for _, title := range []string{"", "   "} {
		store := &fakeStore{}
		media := &fakeMedia{}
		svc := NewService(store, media, discardLogger())

		_, err := svc.CreatePost(context.Background(), NewPost{
			Title: title, Body: "b", Image: strings.NewReader("img"), ImageName: "a.png",
		})

		if !errors.Is(err, ErrTitleRequired) {
			t.Errorf("title %q: err = %v, want ErrTitleRequired", title, err)
		}
		if store.called("CreatePost") {
			t.Errorf("title %q: persistence must not be attempted", title)
		}
		if len(media.deleted) != 1 || media.deleted[0] != "img-a.png" {
			t.Errorf("title %q: uploaded media should be removed, deleted = %v", title, media.deleted)
		}
	}
}

func TestCreatePostSuccess(t *testing.T) {
	t.Parallel()
	clock := &steppingClock{t: time.Date(2024, 5, 10, 23, 0, 0, 0, time.UTC)}
	store := &fakeStore{}
	media := &fakeMedia{now: clock.Now}
	queue := &fakeQueue{}
	svc := NewService(store, media, discardLogger(), WithClock(clock.Now), WithVariants(queue))

	post, err := svc.CreatePost(context.Background(), NewPost{
		Title:     "Trip",
		Body:      "body",
		Category:  "3",
		Published: "on",
		Image:     strings.NewReader("img"),
		ImageName: "trip.jpg",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if post.FeatureImage != "https://media.example.com/img-trip.jpg" {
		t.Errorf("feature image = %q, want the uploaded URL", post.FeatureImage)
	}
	// the upload read the clock first, the post date is the following read
	if want := storage.NewDate(media.uploadAt.Add(24 * time.Hour)); post.PostDate.Compare(want) != 0 {
		t.Errorf("post date = %s, want %s (read after upload)", post.PostDate, want)
	}
	if !post.Published || post.CategoryID != 3 || post.Title != "Trip" || post.Body != "body" {
		t.Errorf("fields not carried verbatim: %+v", post)
	}
	if len(queue.keys) != 1 || queue.keys[0] != "img-trip.jpg" {
		t.Errorf("variants should be queued for the upload, got %v", queue.keys)
	}
	if len(media.deleted) != 0 {
		t.Errorf("nothing should be deleted on success, got %v", media.deleted)
	}
}

func TestCreatePostWithoutImage(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	media := &fakeMedia{}
	queue := &fakeQueue{}
	today := time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)
	svc := NewService(store, media, discardLogger(), WithClock(func() time.Time { return today }), WithVariants(queue))

	post, err := svc.CreatePost(context.Background(), NewPost{Title: "plain", Category: "not-a-number"})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if media.uploads != 0 || post.FeatureImage != "" {
		t.Errorf("no upload expected, got %d uploads and image %q", media.uploads, post.FeatureImage)
	}
	if post.PostDate.String() != "2025-02-03" {
		t.Errorf("post date = %s", post.PostDate)
	}
	if post.CategoryID != 0 || post.Published {
		t.Errorf("expected uncategorised draft, got %+v", post)
	}
	if len(queue.keys) != 0 {
		t.Errorf("no variants expected without an image")
	}
}

func TestCreatePostDateIsUTC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{name: "ahead of UTC", now: time.Date(2025, 3, 1, 1, 30, 0, 0, time.FixedZone("east", 10*3600)), want: "2025-02-28"},
		{name: "behind UTC", now: time.Date(2025, 2, 28, 22, 0, 0, 0, time.FixedZone("west", -5*3600)), want: "2025-03-01"},
		{name: "already UTC", now: time.Date(2025, 2, 28, 12, 0, 0, 0, time.UTC), want: "2025-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := NewService(&fakeStore{}, &fakeMedia{}, discardLogger(), WithClock(func() time.Time { return tt.now }))

			post, err := svc.CreatePost(context.Background(), NewPost{Title: "zoned"})
			if err != nil {
				t.Fatalf("CreatePost failed: %v", err)
			}
			if post.PostDate.String() != tt.want {
				t.Errorf("post date = %s, want %s", post.PostDate, tt.want)
			}
		})
	}
}

func TestCreatePostPersistFailureRollsBack(t *testing.T) {
	t.Parallel()
	store := &fakeStore{createErr: storage.ErrForeignKeyViolation}
	media := &fakeMedia{}
	queue := &fakeQueue{}
	svc := NewService(store, media, discardLogger(), WithVariants(queue))

	_, err := svc.CreatePost(context.Background(), NewPost{
		Title: "t", Category: "42", Image: strings.NewReader("img"), ImageName: "x.png",
	})

	if !errors.Is(err, ErrPersist) || !errors.Is(err, storage.ErrForeignKeyViolation) {
		t.Fatalf("err = %v, want ErrPersist wrapping the store error", err)
	}
	if len(media.deleted) != 1 || media.deleted[0] != "img-x.png" {
		t.Errorf("uploaded media should be rolled back, deleted = %v", media.deleted)
	}
	if len(queue.keys) != 0 {
		t.Errorf("no variants for an unsaved post")
	}
}

func TestParseChecked(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"on": true, "true": true, "1": true, "YES": true,
		"": false, "off": false, "0": false, "false": false,
	}
	for in, want := range tests {
		if got := parseChecked(in); got != want {
			t.Errorf("parseChecked(%q) = %v, want %v", in, got, want)
		}
	}
}
