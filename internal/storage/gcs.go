package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gstorage "cloud.google.com/go/storage"
	"github.com/shiftnotes/apiserver/config"
	"google.golang.org/api/option"
)

// GCSBackend talks to Google Cloud Storage. The bucket comes from config;
// the credential comes with each call as a service-account JSON blob, so
// every user addresses their own storage namespace.
type GCSBackend struct {
	bucket    string
	projectID string
}

// NewGCSBackend constructs a GCS backend from config.
func NewGCSBackend(cfg config.GCSConfig) (*GCSBackend, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}
	return &GCSBackend{
		bucket:    cfg.Bucket,
		projectID: cfg.ProjectID,
	}, nil
}

func (g *GCSBackend) client(ctx context.Context, credential string) (*gstorage.Client, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, fmt.Errorf("%w: %w", ErrStore, ErrBadCredential)
	}
	client, err := gstorage.NewClient(ctx, option.WithCredentialsJSON([]byte(credential)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return client, nil
}

// Put uploads an object into the credential's namespace.
func (g *GCSBackend) Put(ctx context.Context, credential, key string, r io.Reader, size int64, contentType string) error {
	client, err := g.client(ctx, credential)
	if err != nil {
		return err
	}
	defer client.Close()

	writer := client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	if strings.TrimSpace(contentType) != "" {
		writer.ContentType = contentType
	}
	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

// Get opens a reader for an object in the credential's namespace.
func (g *GCSBackend) Get(ctx context.Context, credential, key string) (io.ReadCloser, error) {
	client, err := g.client(ctx, credential)
	if err != nil {
		return nil, err
	}

	reader, err := client.Bucket(g.bucket).Object(key).NewReader(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return &gcsObjectReader{ReadCloser: reader, client: client}, nil
}

// Delete removes an object from the credential's namespace. Deleting an
// object that is already gone succeeds.
func (g *GCSBackend) Delete(ctx context.Context, credential, key string) error {
	client, err := g.client(ctx, credential)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.Bucket(g.bucket).Object(key).Delete(ctx); err != nil {
		if errors.Is(err, gstorage.ErrObjectNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

// Bucket returns the configured bucket name.
func (g *GCSBackend) Bucket() string {
	return g.bucket
}

// gcsObjectReader closes the per-credential client together with the
// object reader.
type gcsObjectReader struct {
	io.ReadCloser
	client *gstorage.Client
}

func (r *gcsObjectReader) Close() error {
	err := r.ReadCloser.Close()
	if cerr := r.client.Close(); err == nil {
		err = cerr
	}
	return err
}
