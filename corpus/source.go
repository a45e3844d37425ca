// Package corpus loads pre-chunked legal corpora from local files or S3.
package corpus

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source opens a corpus for reading.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// FileSource reads a corpus from the local filesystem.
type FileSource struct {
	Path string
}

// Open opens the file.
func (s FileSource) Open(context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus file: %w", err)
	}
	return f, nil
}

func (s FileSource) String() string {
	return s.Path
}

// ObjectGetter is the part of the S3 client used by S3Source.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads a corpus object from S3.
type S3Source struct {
	Client ObjectGetter
	Bucket string
	Key    string
}

// Open downloads the object.
func (s S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	result, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download corpus from S3: %w", err)
	}
	return result.Body, nil
}

func (s S3Source) String() string {
	return "s3://" + s.Bucket + "/" + s.Key
}

type sourceConfig struct {
	region string
	client ObjectGetter
}

// SourceOption configures how a location is resolved.
type SourceOption func(*sourceConfig)

// WithRegion sets the AWS region used for s3:// locations.
func WithRegion(region string) SourceOption {
	return func(c *sourceConfig) {
		c.region = region
	}
}

// WithS3Client supplies the client used for s3:// locations instead of one
// built from the default AWS configuration.
func WithS3Client(client ObjectGetter) SourceOption {
	return func(c *sourceConfig) {
		c.client = client
	}
}

// ParseSource resolves a location: "s3://bucket/key" becomes an S3Source,
// anything else a FileSource.
func ParseSource(ctx context.Context, location string, opts ...SourceOption) (Source, error) {
	if location == "" {
		return nil, fmt.Errorf("%w: empty location", ErrInvalidSource)
	}
	rest, ok := strings.CutPrefix(location, "s3://")
	if !ok {
		return FileSource{Path: location}, nil
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: %q needs a bucket and a key", ErrInvalidSource, location)
	}

	cfg := &sourceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.client == nil {
		var loadOpts []func(*config.LoadOptions) error
		if cfg.region != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.region))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		cfg.client = s3.NewFromConfig(awsCfg)
	}
	return S3Source{Client: cfg.client, Bucket: bucket, Key: key}, nil
}
