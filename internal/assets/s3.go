package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/liminalpurple/whatsapp-stickerbook/internal/imaging"
	"github.com/liminalpurple/whatsapp-stickerbook/internal/validate"
)

// objectAPI is the subset of the S3 client used here
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configures NewS3Fetcher
type S3Options struct {
	Bucket   string
	Region   string
	Prefix   string
	Endpoint string // Custom endpoint for S3-compatible stores, uses path-style addressing
}

// S3Fetcher reads pack assets from an S3 bucket
type S3Fetcher struct {
	client objectAPI
	bucket string
	prefix string
}

// NewS3Fetcher creates an S3Fetcher using the default AWS credential chain
func NewS3Fetcher(ctx context.Context, opts S3Options) (*S3Fetcher, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	slog.Info("s3_client_init", "bucket", opts.Bucket, "region", opts.Region, "endpoint", opts.Endpoint)

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Fetcher(client, opts.Bucket, opts.Prefix), nil
}

func newS3Fetcher(client objectAPI, bucket, prefix string) *S3Fetcher {
	return &S3Fetcher{client: client, bucket: bucket, prefix: prefix}
}

// Fetch downloads <prefix><packIdentifier>/<fileName>
func (f *S3Fetcher) Fetch(ctx context.Context, packIdentifier, fileName string) ([]byte, error) {
	key, err := f.key(packIdentifier, fileName)
	if err != nil {
		return nil, err
	}

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, validate.NotFound(packIdentifier, fileName)
		}
		slog.Error("s3_get_object_failed", "s3_key", key, "error", err)
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	slog.Debug("s3_get_object_complete", "s3_key", key, "size", len(data))
	return data, nil
}

// Put uploads an asset with a content type sniffed from its bytes
func (f *S3Fetcher) Put(ctx context.Context, packIdentifier, fileName string, data []byte) error {
	key, err := f.key(packIdentifier, fileName)
	if err != nil {
		return err
	}

	_, err = f.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(f.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(imaging.DetectMimeType(data)),
	})
	if err != nil {
		slog.Error("s3_put_object_failed", "s3_key", key, "error", err)
		return fmt.Errorf("failed to put object to S3: %w", err)
	}
	return nil
}

func (f *S3Fetcher) key(packIdentifier, fileName string) (string, error) {
	for _, part := range []string{packIdentifier, fileName} {
		if !safeName(part) {
			return "", fmt.Errorf("invalid asset path component %q", part)
		}
	}
	return f.prefix + path.Join(packIdentifier, fileName), nil
}
