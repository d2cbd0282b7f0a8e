package blog

import (
	"blogsite/internal/content"
	"blogsite/internal/storage"
	"context"
	"fmt"
	"io"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

// NewPost is the add-post form as submitted. Image is nil when no file was attached.
type NewPost struct {
	Title     string
	Body      string
	Category  string
	Published string
	Image     io.Reader
	ImageName string
}

// CreatePost runs upload, build, guard and persist in that order. Any media
// uploaded before a guard or persist failure is deleted again.
func (s *Service) CreatePost(ctx context.Context, in NewPost) (*storage.Post, error) {
	ctx, span := s.tracer.Start(ctx, "Service.CreatePost")
	defer span.End()

	media, err := s.upload(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload")
		return nil, err
	}

	fields := s.build(in, media)

	err = s.guard(fields)
	var post *storage.Post
	if err == nil {
		post, err = s.persist(ctx, fields)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create post")
		s.rollback(ctx, media)
		return nil, err
	}

	s.metrics.PostsCreatedTotal.Add(ctx, 1)
	span.SetAttributes(attribute.Int64("post.id", post.ID))

	if media.Key != "" && s.variants != nil {
		if err := s.variants.EnqueueVariants(ctx, media.Key); err != nil {
			s.logger.Warn("could not schedule image variants", "key", media.Key, "err", err)
		}
	}

	return post, nil
}

func (s *Service) upload(ctx context.Context, in NewPost) (content.Media, error) {
	if in.Image == nil {
		return content.Media{}, nil
	}

	media, err := s.media.Upload(ctx, in.Image, in.ImageName)
	if err != nil {
		s.metrics.UploadFailuresTotal.Add(ctx, 1)
		return content.Media{}, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	s.metrics.UploadsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("media.kind", "feature_image")))
	return media, nil
}

// build reads the clock only now, after the upload has finished. Post dates are UTC calendar days.
func (s *Service) build(in NewPost, media content.Media) storage.PostFields {
	fields := storage.PostFields{
		Title:           in.Title,
		Body:            in.Body,
		PostDate:        storage.NewDate(s.now().UTC()),
		FeatureImage:    media.URL,
		FeatureImageKey: media.Key,
		Published:       parseChecked(in.Published),
	}
	// an unknown category leaves the post uncategorised, the store rejects dangling ids
	if in.Category != "" {
		if id, err := parseID(in.Category); err == nil {
			fields.CategoryID = id
		}
	}
	return fields
}

func (s *Service) guard(fields storage.PostFields) error {
	if strings.TrimSpace(fields.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}

func (s *Service) persist(ctx context.Context, fields storage.PostFields) (*storage.Post, error) {
	post, err := s.store.CreatePost(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return post, nil
}

func (s *Service) rollback(ctx context.Context, media content.Media) {
	if media.Key == "" {
		return
	}
	// the request may already be gone, cleanup should still happen
	ctx = context.WithoutCancel(ctx)
	if err := s.media.Delete(ctx, media.Key); err != nil {
		s.logger.Error("failed to remove orphaned media", "key", media.Key, "err", err)
		return
	}
	s.logger.Info("removed media of unsaved post", "key", media.Key)
}

func parseChecked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}
