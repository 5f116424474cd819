package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ClientMinio is the part of *minio.Client the store uses.
type ClientMinio interface {
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (info minio.UploadInfo, err error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type MinioStore struct {
	bucket     string
	presignTTL time.Duration
	client     ClientMinio
}

// NewMinioStore connects to the MinIO server at endpoint, which may be a bare
// host:port or a URL; an https scheme turns TLS on.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, presignTTL time.Duration) (*MinioStore, error) {
	host, secure := splitEndpoint(endpoint)

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return newMinioStore(client, bucket, presignTTL), nil
}

func newMinioStore(client ClientMinio, bucket string, presignTTL time.Duration) *MinioStore {
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	return &MinioStore{bucket: bucket, presignTTL: presignTTL, client: client}
}

func (s *MinioStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentTypeOrDefault(contentType)})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *MinioStore) URL(ctx context.Context, key string) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return u.String(), nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func splitEndpoint(endpoint string) (host string, secure bool) {
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		return u.Host, u.Scheme == "https"
	}
	return strings.TrimSuffix(endpoint, "/"), false
}
