package blog

import (
	"blogsite/internal/content"
	"blogsite/internal/storage"
	"blogsite/internal/telemetry"
	"context"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// MediaHost stores feature images and removes them again on rollback or delete
type MediaHost interface {
	Upload(ctx context.Context, r io.Reader, name string) (content.Media, error)
	Delete(ctx context.Context, key string) error
}

// VariantQueue schedules resized renditions of a stored image
type VariantQueue interface {
	EnqueueVariants(ctx context.Context, key string) error
}

// Service builds view models for the pages and runs the write paths
type Service struct {
	store        storage.Store
	media        MediaHost
	variants     VariantQueue
	logger       *slog.Logger
	metrics      *telemetry.Metrics
	tracer       trace.Tracer
	now          func() time.Time
	fetchTimeout time.Duration
}

type Option func(*Service)

// WithClock replaces time.Now, the post date of new posts is taken from it
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithVariants enables webp renditions after every successful upload
func WithVariants(q VariantQueue) Option {
	return func(s *Service) { s.variants = q }
}

func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithFetchTimeout bounds every repository read made while assembling a view
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) { s.fetchTimeout = d }
}

func NewService(store storage.Store, media MediaHost, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:        store,
		media:        media,
		logger:       logger,
		metrics:      telemetry.NewNoopMetrics(),
		tracer:       otel.Tracer("blogsite/blog"),
		now:          time.Now,
		fetchTimeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fetchContext derives the per-read deadline used by the assembler
func (s *Service) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.fetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.fetchTimeout)
}

func (s *Service) fetchFailed(ctx context.Context, source string, err error) {
	s.logger.Warn("fetch failed", "source", source, "err", err)
	s.metrics.RecordFetchFailure(ctx, source)
}
