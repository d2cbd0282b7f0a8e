package content

import (
	"blogsite/internal/storage"
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// VariantWidths are the resized renditions generated for every feature image
var VariantWidths = []int{800, 1200, 1920}

// VariantKey names the webp rendition of key at width, e.g. abc.jpg -> abc_800.webp
func VariantKey(key string, width int) string {
	base := strings.TrimSuffix(key, path.Ext(key))
	return fmt.Sprintf("%s_%d.webp", base, width)
}

type ImageJob struct {
	SourceKey  string
	Width      int
	ParentSpan trace.SpanContext
}

type Processor struct {
	jobs     chan ImageJob
	wg       sync.WaitGroup
	logger   *slog.Logger
	inFlight sync.Map
	store    storage.Provider
	tracer   trace.Tracer
	done     chan struct{}
}

// NewProcessor starts workercount workers that stop once ctx is cancelled
func NewProcessor(ctx context.Context, store storage.Provider, workercount int, logger *slog.Logger) *Processor {
	p := &Processor{
		jobs:   make(chan ImageJob, 25),
		logger: logger,
		store:  store,
		tracer: otel.Tracer("blogsite/content/processor"),
		done:   make(chan struct{}),
	}
	for i := range workercount {
		p.wg.Go(func() {
			p.worker(ctx, i)
		})
	}

	go func() {
		<-ctx.Done()
		p.logger.Info("image processor received shutdown signal")
		p.wg.Wait()
		close(p.done)
		p.logger.Info("image processor shutdown complete")
	}()

	return p
}

// Done is closed once every worker has returned after shutdown
func (p *Processor) Done() <-chan struct{} {
	return p.done
}

func (p *Processor) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.jobs:
			p.ProcessJob(ctx, id, job)
			p.inFlight.Delete(VariantKey(job.SourceKey, job.Width))
		}
	}
}

func (p *Processor) ProcessJob(ctx context.Context, id int, job ImageJob) {
	link := trace.Link{
		SpanContext: job.ParentSpan,
	}

	ctx, span := p.tracer.Start(ctx, "ProcessJob",
		trace.WithAttributes(
			attribute.String("image.key", job.SourceKey),
			attribute.Int("image.width", job.Width),
		),
		trace.WithLinks(link),
	)
	defer span.End()

	destKey := VariantKey(job.SourceKey, job.Width)

	p.logger.Info("worker processing image variant", "worker_id", id, "key", job.SourceKey, "variant", job.Width)

	// any other worker has done this?
	if p.store.Exists(ctx, destKey) {
		return
	}

	if ctx.Err() != nil {
		return
	}

	reader, err := p.store.Open(ctx, job.SourceKey)
	if err != nil {
		p.logger.Error("failed to download source", "key", job.SourceKey, "err", err)
		return
	}
	defer reader.Close()

	_, cpuSpan := p.tracer.Start(ctx, "GenerateVariant.CPU")
	processedBuffer, err := p.generateVariant(ctx, reader, job.Width)
	cpuSpan.End()
	if err != nil {
		p.logger.Error("variant failed", "worker", id, "variant", job.Width, "err", err)
		return
	}

	if err := p.store.Save(ctx, destKey, processedBuffer); err != nil {
		p.logger.Error("failed to upload variant", "key", destKey, "err", err)
	}
}

func (p *Processor) generateVariant(ctx context.Context, r io.Reader, width int) (io.ReadSeeker, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode error: %w", err)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	img = resizeImage(img, width)

	var buf bytes.Buffer
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, 75)
	if err != nil {
		return nil, fmt.Errorf("encoding options: %w", err)
	}

	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, fmt.Errorf("encode error: %w", err)
	}

	return bytes.NewReader(buf.Bytes()), nil
}

func (p *Processor) Enqueue(ctx context.Context, job ImageJob) error {
	key := VariantKey(job.SourceKey, job.Width)

	// no duplicated jobs
	if _, loaded := p.inFlight.LoadOrStore(key, struct{}{}); loaded {
		return nil
	}

	select {
	case <-ctx.Done():
		p.inFlight.Delete(key)
		return ctx.Err()
	case p.jobs <- job:
		return nil
	default:
		p.inFlight.Delete(key)
		return ErrQueueFull
	}
}

// EnqueueVariants asks for every width of a freshly stored image, never blocking the caller
func (p *Processor) EnqueueVariants(ctx context.Context, key string) error {
	parent := trace.SpanFromContext(ctx).SpanContext()
	for _, width := range VariantWidths {
		err := p.Enqueue(ctx, ImageJob{
			SourceKey:  key,
			Width:      width,
			ParentSpan: parent,
		})
		if err != nil {
			return fmt.Errorf("variant %d of %s: %w", width, key, err)
		}
	}
	return nil
}

func resizeImage(source image.Image, maxWidth int) image.Image {
	b := source.Bounds()
	currentWidth := b.Dx()

	// ensure scales down only
	if currentWidth <= maxWidth {
		return source
	}

	newHeight := (b.Dy() * maxWidth) / currentWidth

	dest := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))

	// bilinear has a good quality / speed tradeoff
	draw.BiLinear.Scale(dest, dest.Bounds(), source, source.Bounds(), draw.Over, nil)

	return dest
}
