// internal/cache/cache.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ===============================
// CACHE INTERFACE
// ===============================

// Cache stores opaque byte values. Callers own serialization.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Stats() Stats
	Health(ctx context.Context) error
	Close() error
}

// Stats holds hit and miss counters for the process lifetime.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Sets    int64 `json:"sets"`
	Deletes int64 `json:"deletes"`
	Keys    int64 `json:"keys"`
}

// ===============================
// CACHE CONFIGURATION
// ===============================

// Config holds cache configuration
type Config struct {
	Provider        string        // "memory", "redis" or "none"
	TTL             time.Duration // Default TTL
	MaxKeys         int           // Max keys in memory cache
	CleanupInterval time.Duration // Expiry sweep interval for memory cache
	KeyPrefix       string

	RedisURL      string
	RedisDB       int
	RedisPassword string
	PoolSize      int
}

// DefaultConfig returns a default cache configuration
func DefaultConfig() *Config {
	return &Config{
		Provider:        "memory",
		TTL:             15 * time.Minute,
		MaxKeys:         10000,
		CleanupInterval: 5 * time.Minute,
		PoolSize:        10,
	}
}

// NewCache creates the cache selected by config.Provider.
func NewCache(config *Config, logger *zap.Logger) (Cache, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case "memory", "":
		return NewMemoryCache(config, logger), nil
	case "redis":
		return NewRedisCache(config, logger)
	case "none":
		return NewNoopCache(), nil
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", config.Provider)
	}
}

// ===============================
// MEMORY CACHE IMPLEMENTATION
// ===============================

type memoryCache struct {
	mu              sync.RWMutex
	items           map[string]cacheItem
	maxKeys         int
	prefix          string
	cleanupInterval time.Duration
	logger          *zap.Logger
	stats           Stats
	stopCh          chan struct{}
	stopOnce        sync.Once
}

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates an in-process cache with a background expiry sweep.
func NewMemoryCache(config *Config, logger *zap.Logger) Cache {
	maxKeys := config.MaxKeys
	if maxKeys <= 0 {
		maxKeys = DefaultConfig().MaxKeys
	}
	interval := config.CleanupInterval
	if interval <= 0 {
		interval = DefaultConfig().CleanupInterval
	}

	c := &memoryCache{
		items:           make(map[string]cacheItem),
		maxKeys:         maxKeys,
		prefix:          config.KeyPrefix,
		cleanupInterval: interval,
		logger:          logger,
		stopCh:          make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	key = c.prefix + key

	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		delete(c.items, key)
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	return item.value, true
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	key = c.prefix + key

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxKeys {
		c.evictOldest()
	}

	c.items[key] = cacheItem{value: value, expiresAt: time.Now().Add(ttl)}
	c.stats.Sets++
	c.stats.Keys = int64(len(c.items))
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	key = c.prefix + key

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; exists {
		delete(c.items, key)
		c.stats.Deletes++
		c.stats.Keys = int64(len(c.items))
	}
	return nil
}

func (c *memoryCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

func (c *memoryCache) Health(context.Context) error {
	return nil
}

func (c *memoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })
	return nil
}

// evictOldest drops the entry closest to expiry. Caller holds the lock.
func (c *memoryCache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, item := range c.items {
		if oldestKey == "" || item.expiresAt.Before(oldest) {
			oldestKey = k
			oldest = item.expiresAt
		}
	}
	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

func (c *memoryCache) cleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *memoryCache) removeExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, k)
			removed++
		}
	}
	c.stats.Keys = int64(len(c.items))

	if removed > 0 {
		c.logger.Debug("Cache cleanup completed", zap.Int("removed", removed))
	}
}

// ===============================
// REDIS CACHE IMPLEMENTATION
// ===============================

type redisCache struct {
	client *redis.Client
	logger *zap.Logger
	config *Config

	mu    sync.Mutex
	stats Stats
}

// NewRedisCache connects to config.RedisURL and verifies it with a ping.
func NewRedisCache(config *Config, logger *zap.Logger) (Cache, error) {
	options, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	if config.RedisPassword != "" {
		options.Password = config.RedisPassword
	}
	if config.RedisDB > 0 {
		options.DB = config.RedisDB
	}
	if config.PoolSize > 0 {
		options.PoolSize = config.PoolSize
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis cache initialized",
		zap.String("addr", options.Addr),
		zap.Int("db", options.DB),
	)

	return newRedisCache(client, config, logger), nil
}

func newRedisCache(client *redis.Client, config *Config, logger *zap.Logger) *redisCache {
	return &redisCache{client: client, logger: logger, config: config}
}

func (r *redisCache) key(k string) string {
	return r.config.KeyPrefix + k
}

func (r *redisCache) count(f func(*Stats)) {
	r.mu.Lock()
	f(&r.stats)
	r.mu.Unlock()
}

func (r *redisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.count(func(s *Stats) { s.Misses++ })
		return nil, false
	}
	if err != nil {
		r.logger.Error("Failed to get from Redis",
			zap.String("key", key),
			zap.Error(err))
		r.count(func(s *Stats) { s.Misses++ })
		return nil, false
	}
	r.count(func(s *Stats) { s.Hits++ })
	return val, true
}

func (r *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.config.TTL
	}
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	r.count(func(s *Stats) { s.Sets++ })
	return nil
}

func (r *redisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	r.count(func(s *Stats) { s.Deletes++ })
	return nil
}

func (r *redisCache) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *redisCache) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCache) Close() error {
	return r.client.Close()
}

// ===============================
// NO-OP CACHE
// ===============================

type noopCache struct{}

// NewNoopCache returns a cache that stores nothing.
func NewNoopCache() Cache { return noopCache{} }

func (noopCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (noopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (noopCache) Delete(context.Context, string) error { return nil }
func (noopCache) Stats() Stats { return Stats{} }
func (noopCache) Health(context.Context) error { return nil }
func (noopCache) Close() error { return nil }
