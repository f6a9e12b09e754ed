package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/shiftnotes/apiserver/config"
)

// MinioBackend talks to a MinIO (or S3-compatible) endpoint. The endpoint
// and bucket come from config; the access credential comes with each call,
// encoded as "accessKey:secretKey" or "accessKey:secretKey:sessionToken",
// so every user addresses their own storage namespace.
type MinioBackend struct {
	endpoint string
	bucket   string
	useSSL   bool
}

// NewMinioBackend constructs a MinIO backend from config.
func NewMinioBackend(cfg config.MinioConfig) (*MinioBackend, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("minio endpoint is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("minio bucket is required")
	}
	return &MinioBackend{
		endpoint: cfg.Endpoint,
		bucket:   cfg.Bucket,
		useSSL:   cfg.UseSSL,
	}, nil
}

func (m *MinioBackend) client(credential string) (*minio.Client, error) {
	parts := strings.SplitN(credential, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: %w", ErrStore, ErrBadCredential)
	}
	sessionToken := ""
	if len(parts) == 3 {
		sessionToken = parts[2]
	}

	client, err := minio.New(m.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(parts[0], parts[1], sessionToken),
		Secure: m.useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return client, nil
}

// Put uploads an object into the credential's namespace.
func (m *MinioBackend) Put(ctx context.Context, credential, key string, r io.Reader, size int64, contentType string) error {
	client, err := m.client(credential)
	if err != nil {
		return err
	}
	if _, err := client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

// Get opens a reader for an object in the credential's namespace.
func (m *MinioBackend) Get(ctx context.Context, credential, key string) (io.ReadCloser, error) {
	client, err := m.client(credential)
	if err != nil {
		return nil, err
	}
	object, err := client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	// GetObject is lazy; surface missing objects and revoked credentials
	// now instead of on the first read.
	if _, err := object.Stat(); err != nil {
		_ = object.Close()
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return object, nil
}

// Delete removes an object from the credential's namespace. Deleting an
// object that is already gone succeeds.
func (m *MinioBackend) Delete(ctx context.Context, credential, key string) error {
	client, err := m.client(credential)
	if err != nil {
		return err
	}
	if err := client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (m *MinioBackend) Bucket() string {
	return m.bucket
}
