package storage_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/contoso/jobsite-api/internal/config"
	"github.com/contoso/jobsite-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStorageInterfaceCompliance(t *testing.T) {
	var _ storage.Storage = (*storage.LocalStorage)(nil)
	var _ storage.Storage = (*storage.AzureBlobStorage)(nil)
	var _ storage.Storage = (*storage.SupabaseStorage)(nil)
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"plain name", "site.jpg", "site.jpg"},
		{"strips directories", "../../etc/passwd", "passwd"},
		{"windows path", `C:\photos\north.png`, "north.png"},
		{"windows traversal", `..\..\secrets\keys.txt`, "keys.txt"},
		{"trailing backslash", `photos\`, "photos"},
		{"empty name", "", "upload"},
		{"keeps spaces", "north wall.jpg", "north wall.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := storage.ObjectKey(tt.filename)

			parts := strings.SplitN(key, "/", 2)
			require.Len(t, parts, 2)
			assert.Len(t, parts[0], 36)
			assert.Equal(t, tt.want, parts[1])
		})
	}
}

func TestObjectKey_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		key := storage.ObjectKey("same.jpg")
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}

func TestNewLocalStorage_CreatesDirectory(t *testing.T) {
	basePath := filepath.Join(t.TempDir(), "uploads")

	ls, err := storage.NewLocalStorage(basePath, "http://localhost:8080/uploads")

	require.NoError(t, err)
	assert.NotNil(t, ls)

	info, err := os.Stat(basePath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalStorage_Upload(t *testing.T) {
	tempDir := t.TempDir()
	ls, err := storage.NewLocalStorage(tempDir, "http://localhost:8080/uploads/")
	require.NoError(t, err)

	tests := []struct {
		name     string
		filename string
		content  []byte
	}{
		{"jpeg photo", "photo.jpg", []byte{0xFF, 0xD8, 0xFF, 0xE0}},
		{"name with spaces", "north wall.png", []byte("png")},
		{"empty file", "empty.jpg", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := ls.Upload(context.Background(), tt.filename, "image/jpeg", bytes.NewReader(tt.content))

			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.content)), obj.Size)
			assert.True(t, strings.HasSuffix(obj.Key, "/"+tt.filename))
			assert.True(t, strings.HasPrefix(obj.URL, "http://localhost:8080/uploads/"))
			assert.NotContains(t, obj.URL, " ")

			written, err := os.ReadFile(filepath.Join(tempDir, filepath.FromSlash(obj.Key)))
			require.NoError(t, err)
			assert.Equal(t, tt.content, written)
		})
	}
}

func TestLocalStorage_Delete(t *testing.T) {
	tempDir := t.TempDir()
	ls, err := storage.NewLocalStorage(tempDir, "http://localhost/uploads")
	require.NoError(t, err)

	obj, err := ls.Upload(context.Background(), "delete-me.jpg", "image/jpeg", bytes.NewReader([]byte("x")))
	require.NoError(t, err)

	require.NoError(t, ls.Delete(context.Background(), obj.Key))

	_, err = os.Stat(filepath.Join(tempDir, filepath.FromSlash(obj.Key)))
	assert.True(t, os.IsNotExist(err))

	// Second delete is a no-op
	assert.NoError(t, ls.Delete(context.Background(), obj.Key))
}

func TestLocalStorage_Delete_FileNotFound(t *testing.T) {
	ls, err := storage.NewLocalStorage(t.TempDir(), "http://localhost/uploads")
	require.NoError(t, err)

	assert.NoError(t, ls.Delete(context.Background(), "nonexistent/file.jpg"))
}

type supabaseServer struct {
	mu       sync.Mutex
	requests []string
	bodies   []string
}

func (s *supabaseServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, r.Method+" "+r.URL.Path)
	s.bodies = append(s.bodies, string(body))
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.Method == http.MethodDelete {
		_, _ = w.Write([]byte(`[]`))
		return
	}
	_, _ = w.Write([]byte(`{"Key":"uploads/object","Id":"1"}`))
}

func TestSupabaseStorage_Upload(t *testing.T) {
	srv := &supabaseServer{}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	s := storage.NewSupabaseStorage(ts.URL+"/", "service-key", "uploads", zap.NewNop())

	obj, err := s.Upload(context.Background(), "site.jpg", "image/jpeg", bytes.NewReader([]byte("jpeg-bytes")))
	require.NoError(t, err)

	assert.Equal(t, int64(len("jpeg-bytes")), obj.Size)
	assert.True(t, strings.HasSuffix(obj.Key, "/site.jpg"))
	assert.Equal(t, ts.URL+"/storage/v1/object/public/uploads/"+obj.Key, obj.URL)

	require.Len(t, srv.requests, 1)
	assert.True(t, strings.HasPrefix(srv.requests[0], "POST /storage/v1/object/uploads/"))
	assert.Equal(t, "jpeg-bytes", srv.bodies[0])
}

func TestSupabaseStorage_Delete(t *testing.T) {
	srv := &supabaseServer{}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	s := storage.NewSupabaseStorage(ts.URL, "service-key", "uploads", zap.NewNop())

	require.NoError(t, s.Delete(context.Background(), "abc/site.jpg"))

	require.Len(t, srv.requests, 1)
	assert.Equal(t, "DELETE /storage/v1/object/uploads", srv.requests[0])
	assert.Contains(t, srv.bodies[0], "abc/site.jpg")
}

func TestSupabaseStorage_CanceledContext(t *testing.T) {
	s := storage.NewSupabaseStorage("http://127.0.0.1:1", "key", "uploads", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Upload(ctx, "site.jpg", "image/jpeg", bytes.NewReader(nil))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewStorage(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StorageConfig
		wantErr string
	}{
		{
			name: "local",
			cfg:  config.StorageConfig{Mode: "local", LocalBasePath: t.TempDir(), PublicBaseURL: "http://localhost/uploads"},
		},
		{
			name: "supabase",
			cfg:  config.StorageConfig{Mode: "supabase", SupabaseURL: "https://example.supabase.co", SupabaseKey: "k", SupabaseBucket: "uploads"},
		},
		{
			name:    "azure without connection string",
			cfg:     config.StorageConfig{Mode: "azure"},
			wantErr: "cloud connection string required",
		},
		{
			name:    "supabase without key",
			cfg:     config.StorageConfig{Mode: "supabase", SupabaseURL: "https://example.supabase.co"},
			wantErr: "supabase url and key required",
		},
		{
			name:    "unknown mode",
			cfg:     config.StorageConfig{Mode: "ftp"},
			wantErr: "unsupported storage mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := storage.NewStorage(&tt.cfg, zap.NewNop())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}
