package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

type Options struct {
	// Endpoint of an S3 compatible service. Empty means AWS, unless
	// R2AccountID is set.
	Endpoint    string
	Region      string
	AccessKey   string
	SecretKey   string
	R2AccountID string
	// PublicBaseURL serves objects as <base>/<bucket>/<path>.
	PublicBaseURL string
	// BucketPrefix is prepended to every bucket name.
	BucketPrefix string
}

// ObjectAPI is the part of the S3 client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// FileStorage implements backend.Blobs on S3 or Cloudflare R2.
type FileStorage struct {
	client ObjectAPI
	opts   Options
	logger *zap.Logger
}

func New(ctx context.Context, opts Options, logger *zap.Logger) (*FileStorage, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	endpoint := opts.Endpoint
	if endpoint == "" && opts.R2AccountID != "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", opts.R2AccountID)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithClient(client, opts, logger), nil
}

func NewWithClient(client ObjectAPI, opts Options, logger *zap.Logger) *FileStorage {
	return &FileStorage{client: client, opts: opts, logger: logger}
}

func (s *FileStorage) bucket(name string) string {
	return s.opts.BucketPrefix + name
}

// Upload stores body at bucket/path, replacing any existing object.
func (s *FileStorage) Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket(bucket)),
		Key:    aws.String(path),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("could not upload file: %w", err)
	}

	s.logger.Debug("object uploaded", zap.String("bucket", bucket), zap.String("path", path))
	return nil
}

// PublicURL returns the address objects are served from.
func (s *FileStorage) PublicURL(bucket, path string) string {
	escaped := escapePath(path)
	if s.opts.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.opts.PublicBaseURL, s.bucket(bucket), escaped)
	}
	if s.opts.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.opts.Endpoint, "/"), s.bucket(bucket), escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket(bucket), s.opts.Region, escaped)
}

func escapePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
