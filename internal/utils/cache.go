package utils

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache stores encoded values with a TTL. Expiry is the only invalidation.
// Backends treat their own failures as misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CacheItem 包装缓存数据和过期时间
type CacheItem struct {
	Data      []byte
	ExpiresAt time.Time
}

// MemoryCache is a process-local LRU with per-entry expiry.
type MemoryCache struct {
	lruCache *lru.Cache[string, CacheItem]
	now      func() time.Time
}

// NewMemoryCache 创建指定容量的 LRU 缓存
func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = 500
	}
	l, err := lru.New[string, CacheItem](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{lruCache: l, now: time.Now}, nil
}

// WithClock swaps the time source, for tests.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

// Set 设置缓存，TTL 为过期时间
func (c *MemoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.lruCache.Add(key, CacheItem{
		Data:      data,
		ExpiresAt: c.now().Add(ttl),
	})
	return nil
}

// Get 获取缓存，若不存在或已过期则返回 false
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil, false
	}

	// 检查过期
	if !c.now().Before(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil, false
	}

	return val.Data, true
}

// Delete 删除指定缓存
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.lruCache.Remove(key)
	return nil
}

func (c *MemoryCache) Len() int {
	return c.lruCache.Len()
}
