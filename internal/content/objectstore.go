package content

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const defaultMaxObjectBytes = 10 << 20

type MinioOpts func(c *minioConfig)

type minioConfig struct {
	endpoint        string
	bucket          string
	accessKey       string
	secretAccessKey string
	useSSL          bool
	maxObjectBytes  int64
}

func newConfig(opts ...MinioOpts) *minioConfig {
	cfg := &minioConfig{
		useSSL:         false,
		maxObjectBytes: defaultMaxObjectBytes,
	}

	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// ObjectStoreFetcher reads resume files from an S3 compatible bucket. The file
// reference is the object key.
type ObjectStoreFetcher struct {
	cfg    *minioConfig
	client *minio.Client
}

func NewObjectStoreFetcher(opts ...MinioOpts) (*ObjectStoreFetcher, error) {
	cfg := newConfig(opts...)
	if cfg.endpoint == "" || cfg.bucket == "" {
		return nil, errors.New("object store endpoint and bucket are required")
	}

	minioClient, err := minio.New(cfg.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.accessKey, cfg.secretAccessKey, ""),
		Secure: cfg.useSSL,
	})
	if err != nil {
		return nil, err
	}

	return &ObjectStoreFetcher{cfg: cfg, client: minioClient}, nil
}

func (s *ObjectStoreFetcher) Fetch(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", unavailable(ref, errors.New("empty file reference"))
	}

	object, err := s.client.GetObject(ctx, s.cfg.bucket, ref, minio.GetObjectOptions{})
	if err != nil {
		return "", unavailable(ref, err)
	}
	defer object.Close()

	objInfo, err := object.Stat()
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", unavailable(ref, errors.New("object not found"))
		}
		return "", unavailable(ref, err)
	}
	if objInfo.Size > s.cfg.maxObjectBytes {
		return "", unavailable(ref, fmt.Errorf("object is %d bytes, limit is %d", objInfo.Size, s.cfg.maxObjectBytes))
	}

	data, err := io.ReadAll(io.LimitReader(object, s.cfg.maxObjectBytes))
	if err != nil {
		return "", unavailable(ref, err)
	}
	if int64(len(data)) != objInfo.Size {
		return "", unavailable(ref, fmt.Errorf("expected bytes %d received %d", objInfo.Size, len(data)))
	}

	text, err := Extract(ref, data)
	if err != nil {
		return "", unavailable(ref, err)
	}
	return text, nil
}

func (s *ObjectStoreFetcher) Type() string {
	return "minio"
}

func WithEndpoint(endpoint string) MinioOpts {
	return func(c *minioConfig) {
		c.endpoint = endpoint
	}
}

func WithBucket(bucket string) MinioOpts {
	return func(c *minioConfig) {
		c.bucket = bucket
	}
}

func WithAccessKey(accessKey string) MinioOpts {
	return func(c *minioConfig) {
		c.accessKey = accessKey
	}
}

func WithSecretKey(secretKey string) MinioOpts {
	return func(c *minioConfig) {
		c.secretAccessKey = secretKey
	}
}

func WithSSL(useSSL bool) MinioOpts {
	return func(c *minioConfig) {
		c.useSSL = useSSL
	}
}

func WithMaxObjectBytes(n int64) MinioOpts {
	return func(c *minioConfig) {
		if n > 0 {
			c.maxObjectBytes = n
		}
	}
}
