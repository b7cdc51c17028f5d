package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	supabase "github.com/supabase-community/storage-go"
	"go.uber.org/zap"
)

// SupabaseStorage implements Storage on a public Supabase Storage bucket
type SupabaseStorage struct {
	client  *supabase.Client
	bucket  string
	baseURL string
	logger  *zap.Logger
}

// NewSupabaseStorage creates a client for the project at supabaseURL using a service role key
func NewSupabaseStorage(supabaseURL, serviceRoleKey, bucket string, logger *zap.Logger) *SupabaseStorage {
	baseURL := strings.TrimSuffix(supabaseURL, "/")

	return &SupabaseStorage{
		client:  supabase.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil),
		bucket:  bucket,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Upload writes data to the bucket. The storage-go client has no context support.
func (s *SupabaseStorage) Upload(ctx context.Context, filename string, contentType string, data io.Reader) (StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return StoredObject{}, err
	}

	key := ObjectKey(filename)
	opts := supabase.FileOptions{}
	if contentType != "" {
		opts.ContentType = &contentType
	}

	reader := &countingReader{r: data}
	if _, err := s.client.UploadFile(s.bucket, key, reader, opts); err != nil {
		return StoredObject{}, fmt.Errorf("failed to upload file: %w", err)
	}

	s.logger.Info("Photo uploaded to Supabase Storage",
		zap.String("key", key),
		zap.String("bucket", s.bucket),
		zap.Int64("size", reader.count),
	)

	return StoredObject{Key: key, URL: s.PublicURL(key), Size: reader.count}, nil
}

// PublicURL returns the public object URL for key
func (s *SupabaseStorage) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, escapeKey(key))
}

// Delete removes an object from the bucket
func (s *SupabaseStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.client.RemoveFile(s.bucket, []string{key}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
