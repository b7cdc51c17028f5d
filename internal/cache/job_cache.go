// Package cache provides a read-through cache for job lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/contoso/jobsite-api/internal/config"
	"github.com/contoso/jobsite-api/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// JobCache caches fully loaded jobs (including photos) by id.
//
// Every Invalidate bumps the id's generation. Callers read the generation
// before loading a job and pass it to Set, which drops the write when an
// invalidation happened in between.
type JobCache interface {
	Get(ctx context.Context, id int) (*domain.Job, bool)
	Generation(ctx context.Context, id int) (uint64, error)
	Set(ctx context.Context, job *domain.Job, generation uint64) error
	Invalidate(ctx context.Context, id int) error
}

// NewJobCache picks the cache implementation for cfg.
// A disabled cache is a no-op; an enabled cache without a Redis URL stays in process.
func NewJobCache(cfg *config.CacheConfig, logger *zap.Logger) (JobCache, error) {
	if !cfg.Enabled {
		return NopJobCache{}, nil
	}

	if cfg.RedisURL == "" {
		logger.Info("Job cache enabled in memory", zap.Duration("ttl", cfg.TTLDuration()))
		return NewInMemoryJobCache(cfg.TTLDuration()), nil
	}

	c, err := NewRedisJobCache(cfg.RedisURL, cfg.TTLDuration(), cfg.KeyBase)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Job cache enabled in redis", zap.Duration("ttl", cfg.TTLDuration()))
	return c, nil
}

// NopJobCache never stores anything
type NopJobCache struct{}

func (NopJobCache) Get(context.Context, int) (*domain.Job, bool)    { return nil, false }
func (NopJobCache) Generation(context.Context, int) (uint64, error) { return 0, nil }
func (NopJobCache) Set(context.Context, *domain.Job, uint64) error  { return nil }
func (NopJobCache) Invalidate(context.Context, int) error           { return nil }

type cachedJob struct {
	job       domain.Job
	expiresAt time.Time
}

// InMemoryJobCache is a process local JobCache with a fixed TTL
type InMemoryJobCache struct {
	mu          sync.RWMutex
	items       map[int]cachedJob
	generations map[int]uint64
	ttl         time.Duration
}

// NewInMemoryJobCache creates an in-memory cache with the given TTL
func NewInMemoryJobCache(ttl time.Duration) *InMemoryJobCache {
	return &InMemoryJobCache{
		items:       make(map[int]cachedJob),
		generations: make(map[int]uint64),
		ttl:         ttl,
	}
}

func (c *InMemoryJobCache) Get(_ context.Context, id int) (*domain.Job, bool) {
	c.mu.RLock()
	item, ok := c.items[id]
	c.mu.RUnlock()

	if !ok || time.Now().After(item.expiresAt) {
		return nil, false
	}

	job := item.job
	job.Photos = append([]domain.JobSitePhoto(nil), item.job.Photos...)
	return &job, true
}

func (c *InMemoryJobCache) Generation(_ context.Context, id int) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[id], nil
}

func (c *InMemoryJobCache) Set(_ context.Context, job *domain.Job, generation uint64) error {
	stored := *job
	stored.Photos = append([]domain.JobSitePhoto(nil), job.Photos...)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[job.ID] != generation {
		return nil
	}
	c.items[job.ID] = cachedJob{job: stored, expiresAt: time.Now().Add(c.ttl)}
	return nil
}

func (c *InMemoryJobCache) Invalidate(_ context.Context, id int) error {
	c.mu.Lock()
	delete(c.items, id)
	c.generations[id]++
	c.mu.Unlock()
	return nil
}

// RedisJobCache stores jobs as JSON under keyBase+id and the id's
// generation counter under keyBase+id+":gen"
type RedisJobCache struct {
	client  *redis.Client
	ttl     time.Duration
	keyBase string
}

// NewRedisJobCache connects to redisURL and verifies the connection
func NewRedisJobCache(redisURL string, ttl time.Duration, keyBase string) (*RedisJobCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return NewRedisJobCacheWithClient(client, ttl, keyBase), nil
}

// NewRedisJobCacheWithClient wraps an existing client
func NewRedisJobCacheWithClient(client *redis.Client, ttl time.Duration, keyBase string) *RedisJobCache {
	return &RedisJobCache{client: client, ttl: ttl, keyBase: keyBase}
}

func (c *RedisJobCache) key(id int) string {
	return c.keyBase + strconv.Itoa(id)
}

func (c *RedisJobCache) generationKey(id int) string {
	return c.key(id) + ":gen"
}

func (c *RedisJobCache) Get(ctx context.Context, id int) (*domain.Job, bool) {
	val, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		return nil, false
	}

	var job domain.Job
	if err := json.Unmarshal(val, &job); err != nil {
		return nil, false
	}
	return &job, true
}

func (c *RedisJobCache) Generation(ctx context.Context, id int) (uint64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(id)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Set writes job only while the generation key still holds generation.
// WATCH aborts the transaction if an Invalidate lands concurrently.
func (c *RedisJobCache) Set(ctx context.Context, job *domain.Job, generation uint64) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	genKey := c.generationKey(job.ID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(job.ID), data, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

func (c *RedisJobCache) Invalidate(ctx context.Context, id int) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.generationKey(id))
		pipe.Del(ctx, c.key(id))
		return nil
	})
	return err
}

// Close closes the underlying client
func (c *RedisJobCache) Close() error {
	return c.client.Close()
}
