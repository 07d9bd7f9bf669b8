package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"staycal/internal/app/policies"
)

// Publisher stores exported calendar feeds in an S3-compatible bucket
// and serves them over a public URL.
type Publisher struct {
	bucket         string
	prefix         string
	publicBaseURL  string
	client         *minio.Client
	logger         *slog.Logger
	bucketInitOnce sync.Once
	bucketInitErr  error
}

// NewPublisher configures a feed publisher for the provided endpoint and
// credentials. Objects are written under the given key prefix.
func NewPublisher(endpoint string, useSSL bool, accessKey, secretKey, bucket, prefix, publicBaseURL string, logger *slog.Logger) (*Publisher, error) {
	cleanEndpoint := strings.TrimSpace(endpoint)
	if cleanEndpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	if bucket = strings.TrimSpace(bucket); bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(accessKey), strings.TrimSpace(secretKey), ""),
		Secure: useSSL,
	}
	minioClient, err := minio.New(parseEndpoint(cleanEndpoint), opts)
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}

	base := strings.TrimSpace(publicBaseURL)
	if base == "" {
		base = cleanEndpoint
	}

	return &Publisher{
		bucket:        bucket,
		prefix:        strings.Trim(strings.TrimSpace(prefix), "/"),
		publicBaseURL: strings.TrimRight(base, "/"),
		client:        minioClient,
		logger:        logger,
	}, nil
}

// Publish stores the feed content and returns its public URL together
// with the object key used as the artifact's file path.
func (p *Publisher) Publish(ctx context.Context, filename string, content io.Reader) (string, string, error) {
	if content == nil {
		return "", "", errors.New("s3: content is required")
	}
	filename = strings.Trim(strings.TrimSpace(filename), "/")
	if filename == "" {
		return "", "", errors.New("s3: filename is required")
	}
	if err := p.ensureBucket(ctx); err != nil {
		return "", "", err
	}

	key := filename
	if p.prefix != "" {
		key = p.prefix + "/" + filename
	}
	_, err := p.client.PutObject(ctx, p.bucket, key, content, -1, minio.PutObjectOptions{
		ContentType: "text/calendar",
	})
	if err != nil {
		return "", "", fmt.Errorf("s3: put object: %w", err)
	}

	publicURL := p.objectURL(key)
	if p.logger != nil {
		p.logger.Info("export feed published", "bucket", p.bucket, "key", key, "url", publicURL)
	}
	return publicURL, key, nil
}

// Unpublish removes a previously published feed object.
func (p *Publisher) Unpublish(ctx context.Context, filePath string) error {
	filePath = strings.Trim(strings.TrimSpace(filePath), "/")
	if filePath == "" {
		return nil
	}
	if err := p.client.RemoveObject(ctx, p.bucket, filePath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("s3: remove object: %w", err)
	}
	return nil
}

func (p *Publisher) ensureBucket(ctx context.Context) error {
	p.bucketInitOnce.Do(func() {
		exists, err := p.client.BucketExists(ctx, p.bucket)
		if err != nil {
			p.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
			p.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
			return
		}
		if err := p.allowPublicRead(ctx); err != nil {
			p.bucketInitErr = err
		}
	})
	return p.bucketInitErr
}

func (p *Publisher) allowPublicRead(ctx context.Context) error {
	policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, p.bucket)
	if err := p.client.SetBucketPolicy(ctx, p.bucket, policy); err != nil {
		return fmt.Errorf("s3: set bucket policy: %w", err)
	}
	return nil
}

func (p *Publisher) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", p.publicBaseURL, p.bucket, strings.TrimLeft(key, "/"))
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

var _ policies.FeedPublisher = (*Publisher)(nil)
