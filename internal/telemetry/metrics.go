package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics holds all the metric instruments for the blog
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter
	// blog specific
	PostsCreatedTotal   metric.Int64Counter
	FetchFailuresTotal  metric.Int64Counter
	UploadsTotal        metric.Int64Counter
	UploadFailuresTotal metric.Int64Counter
	// media
	CacheHitsTotal   metric.Int64Counter
	CacheMissesTotal metric.Int64Counter
	// limiter
	RateLimitHitsTotal metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	httpRequestsTotal, err := meter.Int64Counter(
		"http_requests",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests: %w", err)
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http_request_duration",
		metric.WithDescription("HTTP request latency in ms"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration: %w", err)
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_active_requests: %w", err)
	}

	postsCreatedTotal, err := meter.Int64Counter(
		"posts_created",
		metric.WithDescription("Number of posts persisted"),
		metric.WithUnit("{post}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create posts_created: %w", err)
	}

	fetchFailuresTotal, err := meter.Int64Counter(
		"fetch_failures",
		metric.WithDescription("Repository reads absorbed into a view message"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fetch_failures: %w", err)
	}

	uploadsTotal, err := meter.Int64Counter(
		"media_uploads",
		metric.WithDescription("Feature images stored on the media host"),
		metric.WithUnit("{upload}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create media_uploads: %w", err)
	}

	uploadFailuresTotal, err := meter.Int64Counter(
		"media_upload_failures",
		metric.WithDescription("Feature image uploads rejected by the media host"),
		metric.WithUnit("{upload}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create media_upload_failures: %w", err)
	}

	cacheHitsTotal, err := meter.Int64Counter(
		"media_variant_hits",
		metric.WithDescription("Number of media requests served from a ready webp variant"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create media_variant_hits: %w", err)
	}

	cacheMissesTotal, err := meter.Int64Counter(
		"media_variant_misses",
		metric.WithDescription("Number of media requests that fell back to the original"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create media_variant_misses: %w", err)
	}

	rateLimitHitsTotal, err := meter.Int64Counter(
		"rate_limit_hits",
		metric.WithDescription("Number of rate limiter blocked requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate_limit_hits: %w", err)
	}

	return &Metrics{
		HTTPRequestsTotal:   httpRequestsTotal,
		HTTPRequestDuration: httpRequestDuration,
		HTTPActiveRequests:  httpActiveRequests,
		PostsCreatedTotal:   postsCreatedTotal,
		FetchFailuresTotal:  fetchFailuresTotal,
		UploadsTotal:        uploadsTotal,
		UploadFailuresTotal: uploadFailuresTotal,
		CacheHitsTotal:      cacheHitsTotal,
		CacheMissesTotal:    cacheMissesTotal,
		RateLimitHitsTotal:  rateLimitHitsTotal,
	}, nil
}

// NewNoopMetrics returns instruments that record nothing, handy for tests
func NewNoopMetrics() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter(""))
	return m
}

// RecordFetchFailure counts a repository read that degraded a view
func (m *Metrics) RecordFetchFailure(ctx context.Context, source string) {
	m.FetchFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
