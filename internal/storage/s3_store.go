package storage

import (
	"blogsite/internal/config"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type S3Store struct {
	client *s3.Client
	bucket string
	tracer trace.Tracer
}

var _ Provider = (*S3Store)(nil)

func NewS3Store(cfg config.S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket cannot be empty")
	}

	opts := s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKey, cfg.SecretKey, "",
		),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &S3Store{
		client: s3.New(opts),
		bucket: cfg.Bucket,
		tracer: otel.Tracer("blogsite/storage/s3"),
	}, nil
}

func (s *S3Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}

	ctx, span := s.tracer.Start(ctx, "S3.Open", trace.WithAttributes(attribute.String("s3.key", key)))

	objOutput, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "get object")
		span.End()
		return nil, mapS3Error(err)
	}

	return &spanClosingReader{
		ReadCloser: objOutput.Body,
		span:       span,
	}, nil
}

func (s *S3Store) Exists(ctx context.Context, key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	return err == nil
}

func (s *S3Store) Save(ctx context.Context, key string, body io.ReadSeeker) error {
	ctx, span := s.tracer.Start(ctx, "S3.Save", trace.WithAttributes(attribute.String("s3.key", key)))
	defer span.End()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "put object")
		return err
	}

	return nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	ctx, span := s.tracer.Start(ctx, "S3.Delete", trace.WithAttributes(attribute.String("s3.key", key)))
	defer span.End()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		span.RecordError(err)
	}

	return err
}

func mapS3Error(err error) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

type spanClosingReader struct {
	io.ReadCloser
	span trace.Span
}

func (r *spanClosingReader) Close() error {
	r.span.End()
	return r.ReadCloser.Close()
}
