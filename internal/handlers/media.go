package handlers

import (
	"blogsite/internal/content"
	"blogsite/internal/storage"
	"blogsite/internal/telemetry"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// VariantScheduler queues the webp renditions of a stored image
type VariantScheduler interface {
	EnqueueVariants(ctx context.Context, key string) error
}

// MediaHandler serves feature images from the media store
type MediaHandler struct {
	Store     storage.Provider
	Processor VariantScheduler
	Tracer    trace.Tracer
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger
}

// keys are never reused so responses can be cached for good
const cacheForAYear = 31536000

func (h *MediaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.Tracer.Start(r.Context(), "MediaHandler.ServeHTTP")
	defer span.End()

	key := r.PathValue("key")
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		http.NotFound(w, r)
		return
	}
	span.SetAttributes(attribute.String("media.key", key))

	if raw := r.URL.Query().Get("w"); raw != "" {
		width, err := strconv.Atoi(raw)
		if err != nil || !slices.Contains(content.VariantWidths, width) {
			http.Error(w, "unsupported width", http.StatusBadRequest)
			return
		}

		variantKey := content.VariantKey(key, width)
		if h.Store.Exists(ctx, variantKey) {
			span.SetAttributes(attribute.String("cache.status", "hit"))
			h.Metrics.CacheHitsTotal.Add(ctx, 1)
			w.Header().Set("X-Cache", "HIT")
			h.serve(ctx, w, r, variantKey)
			return
		}

		span.SetAttributes(attribute.String("cache.status", "miss"))
		h.Metrics.CacheMissesTotal.Add(ctx, 1)
		w.Header().Set("X-Cache", "MISS")

		if h.Store.Exists(ctx, key) && h.Processor != nil {
			// a context that doesn't die when the user leaves the page
			bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			if err := h.Processor.EnqueueVariants(bgCtx, key); err != nil {
				h.Logger.Warn("could not schedule variants", "key", key, "err", err)
			}
			cancel()
		}
	}

	h.serve(ctx, w, r, key)
}

func (h *MediaHandler) serve(ctx context.Context, w http.ResponseWriter, r *http.Request, key string) {
	reader, err := h.Store.Open(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			h.Logger.Error("failed to retrieve media", "key", key, "err", err)
		}
		http.NotFound(w, r)
		return
	}
	defer reader.Close()

	mimeType := mime.TypeByExtension(path.Ext(key))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, immutable", cacheForAYear))

	if _, err := io.Copy(w, reader); err != nil {
		h.Logger.Warn("stream interrupted", "key", key, "err", err)
	}
}
