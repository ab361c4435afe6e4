package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
)

// ObjectPutter is the subset of the S3 client used by S3Sink.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink stores documents in an S3-compatible bucket. An object only becomes visible once
// the upload completes, which gives the same no-partial-file guarantee as LocalSink.
type S3Sink struct {
	client        ObjectPutter
	bucket        string
	prefix        string
	publicBaseURL string
}

// S3Options configures an S3 sink.
type S3Options struct {
	Bucket        string
	Region        string
	Endpoint      string
	Prefix        string
	PublicBaseURL string
}

// NewS3Sink creates an S3 sink. If endpoint is non-empty, path-style addressing is
// enabled (for MinIO and similar).
func NewS3Sink(ctx context.Context, opts S3Options) (*S3Sink, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var s3opts []func(*s3.Options)
	if opts.Endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		})
	}

	return NewS3SinkWithClient(s3.NewFromConfig(cfg, s3opts...), opts), nil
}

// NewS3SinkWithClient wires an existing client.
func NewS3SinkWithClient(client ObjectPutter, opts S3Options) *S3Sink {
	return &S3Sink{
		client:        client,
		bucket:        opts.Bucket,
		prefix:        strings.Trim(opts.Prefix, "/"),
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
	}
}

// Save uploads r under prefix/name.
func (s *S3Sink) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	clean, err := CleanName(name)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", unavailable("read", err)
	}

	key := clean
	if s.prefix != "" {
		key = s.prefix + "/" + clean
	}

	contentType := mimetype.Detect(data).String()
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
	})
	if err != nil {
		return "", unavailable("s3 put object", err)
	}

	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key, nil
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
