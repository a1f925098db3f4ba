package audio

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Publisher copies an artifact to shared storage and returns its public URL.
// Unpublish removes the copy again when the artifact is released.
type Publisher interface {
	Publish(ctx context.Context, a *Artifact) (string, error)
	Unpublish(ctx context.Context, a *Artifact) error
}

type S3Config struct {
	Endpoint  string `mapstructure:"s3_endpoint"`
	AccessKey string `mapstructure:"s3_access_key"`
	SecretKey string `mapstructure:"s3_secret_key"`
	Bucket    string `mapstructure:"s3_bucket"`
	Region    string `mapstructure:"s3_region"`
	Secure    bool   `mapstructure:"s3_secure"`
}

// Enabled reports whether enough settings are present to publish.
func (c S3Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

type S3Publisher struct {
	client *minio.Client
	bucket string
	host   string
}

// NewS3Publisher connects to an S3-compatible endpoint and checks that the
// bucket exists.
func NewS3Publisher(ctx context.Context, cfg S3Config) (*S3Publisher, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init S3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist", cfg.Bucket)
	}

	scheme := "http"
	if cfg.Secure {
		scheme = "https"
	}

	return &S3Publisher{
		client: client,
		bucket: cfg.Bucket,
		host:   fmt.Sprintf("%s://%s", scheme, cfg.Endpoint),
	}, nil
}

func (p *S3Publisher) Publish(ctx context.Context, a *Artifact) (string, error) {
	key := ObjectKey(a)

	_, err := p.client.FPutObject(ctx, p.bucket, key, a.Path, minio.PutObjectOptions{
		ContentType:  ContentType,
		UserMetadata: map[string]string{"uploaded-at": a.CreatedAt.Format(time.RFC3339)},
	})
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}

	return publicURL(p.host, p.bucket, key), nil
}

func (p *S3Publisher) Unpublish(ctx context.Context, a *Artifact) error {
	if err := p.client.RemoveObject(ctx, p.bucket, ObjectKey(a), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	return nil
}

// ObjectKey is the bucket path for an artifact: audio/<date>/<id>.mp3.
func ObjectKey(a *Artifact) string {
	return path.Join("audio", a.CreatedAt.UTC().Format("2006-01-02"), a.ID+extension)
}

func publicURL(host, bucket, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(host, "/"), bucket, strings.Join(parts, "/"))
}
