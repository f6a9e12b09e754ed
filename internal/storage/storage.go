package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrStore indicates a provider-side failure: network error, quota
// exceeded, revoked or invalid credential, missing object. Callers decide
// per operation whether the failure is fatal or best-effort.
var ErrStore = errors.New("blob store error")

// ErrBadCredential indicates the supplied credential is malformed for the
// configured backend. Wraps ErrStore.
var ErrBadCredential = errors.New("invalid storage credential")

// Backend defines blob operations against one external object store.
// Every call is scoped to a caller-supplied credential addressing that
// user's storage namespace.
type Backend interface {
	Put(ctx context.Context, credential, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, credential, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, credential, key string) error
}

// Object describes a stored blob.
type Object struct {
	Key         string
	Name        string
	ContentType string
	Size        int64
}

// Storage wraps a Backend with key generation and a per-operation timeout.
// No call through Storage blocks past the configured timeout.
type Storage struct {
	backend Backend
	timeout time.Duration
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend Backend, timeout time.Duration) *Storage {
	return &Storage{backend: backend, timeout: timeout}
}

// Upload stores the blob under a fresh object key in the credential's
// namespace and returns its descriptor.
func (s *Storage) Upload(ctx context.Context, credential string, r io.Reader, size int64, filename, contentType string) (Object, error) {
	key := uuid.NewString() + "/" + sanitizeFilename(filename)

	ctx, cancel := s.opContext(ctx)
	defer cancel()
	if err := s.backend.Put(ctx, credential, key, r, size, contentType); err != nil {
		return Object{}, err
	}
	return Object{
		Key:         key,
		Name:        filename,
		ContentType: contentType,
		Size:        size,
	}, nil
}

// Download opens a reader for the blob addressed by key in the
// credential's namespace. The caller owns the returned reader.
func (s *Storage) Download(ctx context.Context, credential, key string) (io.ReadCloser, error) {
	// No deadline here: the reader outlives the call and streams to the
	// client. The backend applies its own dial/read limits.
	return s.backend.Get(ctx, credential, key)
}

// Delete removes the blob addressed by key from the credential's
// namespace.
func (s *Storage) Delete(ctx context.Context, credential, key string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.backend.Delete(ctx, credential, key)
}

func (s *Storage) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func sanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "." || base == "/" || base == "" {
		return "file"
	}
	return base
}
