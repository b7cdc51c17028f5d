package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/contoso/jobsite-api/internal/cache"
	"github.com/contoso/jobsite-api/internal/config"
	"github.com/contoso/jobsite-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleJob() *domain.Job {
	return &domain.Job{
		ID:        7,
		Name:      "Harbor Bridge",
		Latitude:  53.30519,
		Longitude: -139.99564,
		Photos: []domain.JobSitePhoto{
			{ID: 1, JobID: 7, PhotoUploadURL: "http://localhost/uploads/a/b.jpg", Heading: 90},
		},
	}
}

func TestNewJobCache_Disabled(t *testing.T) {
	c, err := cache.NewJobCache(&config.CacheConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, c.Set(context.Background(), sampleJob(), 0))
	_, ok := c.Get(context.Background(), 7)
	assert.False(t, ok)
}

func TestNewJobCache_InMemoryWithoutRedisURL(t *testing.T) {
	c, err := cache.NewJobCache(&config.CacheConfig{Enabled: true, TTL: 60}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &cache.InMemoryJobCache{}, c)
}

func TestInMemoryJobCache_SetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	c := cache.NewInMemoryJobCache(time.Minute)

	_, ok := c.Get(ctx, 7)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, sampleJob(), 0))

	got, ok := c.Get(ctx, 7)
	require.True(t, ok)
	assert.Equal(t, sampleJob(), got)

	require.NoError(t, c.Invalidate(ctx, 7))
	_, ok = c.Get(ctx, 7)
	assert.False(t, ok)
}

func TestInMemoryJobCache_SetDroppedAfterInvalidate(t *testing.T) {
	ctx := context.Background()
	c := cache.NewInMemoryJobCache(time.Minute)

	stale, err := c.Generation(ctx, 7)
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, 7))
	require.NoError(t, c.Set(ctx, sampleJob(), stale))
	_, ok := c.Get(ctx, 7)
	assert.False(t, ok)

	current, err := c.Generation(ctx, 7)
	require.NoError(t, err)
	assert.NotEqual(t, stale, current)

	require.NoError(t, c.Set(ctx, sampleJob(), current))
	_, ok = c.Get(ctx, 7)
	assert.True(t, ok)
}

func TestInMemoryJobCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := cache.NewInMemoryJobCache(time.Minute)
	require.NoError(t, c.Set(ctx, sampleJob(), 0))

	got, ok := c.Get(ctx, 7)
	require.True(t, ok)
	got.Name = "changed"
	got.Photos[0].Heading = 0

	again, ok := c.Get(ctx, 7)
	require.True(t, ok)
	assert.Equal(t, "Harbor Bridge", again.Name)
	assert.Equal(t, 90, again.Photos[0].Heading)
}

func TestInMemoryJobCache_Expires(t *testing.T) {
	ctx := context.Background()
	c := cache.NewInMemoryJobCache(time.Millisecond)
	require.NoError(t, c.Set(ctx, sampleJob(), 0))

	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, 7)
	assert.False(t, ok)
}

func TestRedisJobCache(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	c, err := cache.NewRedisJobCache(redisURL, time.Minute, "jobsite:test:job:")
	require.NoError(t, err)
	defer c.Close()

	gen, err := c.Generation(ctx, 7)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, sampleJob(), gen))
	got, ok := c.Get(ctx, 7)
	require.True(t, ok)
	assert.Equal(t, sampleJob(), got)

	require.NoError(t, c.Invalidate(ctx, 7))
	_, ok = c.Get(ctx, 7)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, sampleJob(), gen))
	_, ok = c.Get(ctx, 7)
	assert.False(t, ok)
}
