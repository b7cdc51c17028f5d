package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/contoso/jobsite-api/internal/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoredObject describes a binary written to the object store
type StoredObject struct {
	Key  string // Opaque key used for later deletion
	URL  string // Durable URL clients can fetch the object from
	Size int64
}

// Storage defines the object store used for job site photos
type Storage interface {
	Upload(ctx context.Context, filename string, contentType string, data io.Reader) (StoredObject, error)
	Delete(ctx context.Context, key string) error
}

// NewStorage creates a new storage instance based on configuration.
// Local mode writes to the filesystem, azure (or cloud) uses Azure Blob Storage
// and supabase uses a Supabase Storage bucket.
func NewStorage(cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Mode {
	case "local":
		return NewLocalStorage(cfg.LocalBasePath, cfg.PublicBaseURL)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewAzureBlobStorage(cfg.CloudConnectionString, cfg.CloudContainer, logger)
	case "supabase":
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return nil, fmt.Errorf("supabase url and key required for supabase storage")
		}
		return NewSupabaseStorage(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// ObjectKey builds a collision free key of the form <uuid>/<base file name>.
// Both slash kinds separate path segments regardless of the host OS.
func ObjectKey(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		name = "upload"
	}
	return uuid.New().String() + "/" + name
}

// escapeKey escapes each key segment for use in a URL path
func escapeKey(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// LocalStorage implements Storage on the local filesystem.
// Files are exposed under publicBaseURL by the router.
type LocalStorage struct {
	basePath      string
	publicBaseURL string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath, publicBaseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath:      basePath,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}, nil
}

// BasePath returns the directory files are written to
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

// Upload writes data to <basePath>/<uuid>/<filename>
func (s *LocalStorage) Upload(ctx context.Context, filename string, contentType string, data io.Reader) (StoredObject, error) {
	key := ObjectKey(filename)
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return StoredObject{}, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return StoredObject{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, data)
	if err != nil {
		os.Remove(fullPath)
		return StoredObject{}, fmt.Errorf("failed to write file: %w", err)
	}

	return StoredObject{
		Key:  key,
		URL:  s.publicBaseURL + "/" + escapeKey(key),
		Size: size,
	}, nil
}

// Delete removes a file; missing files are not an error
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(key))

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	// Drop the per-upload directory once empty
	_ = os.Remove(filepath.Dir(fullPath))
	return nil
}

// countingReader wraps an io.Reader and counts the number of bytes read
type countingReader struct {
	r     io.Reader
	count int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.count += int64(n)
	return n, err
}
