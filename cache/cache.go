// Package cache 带过期时间的缓存，内存或 Redis 实现
package cache

import (
	"context"
	"sync"
	"time"
)

// Cache 缓存接口，值统一为字符串切片（目前只缓存演讲者首字母）
type Cache interface {
	Get(ctx context.Context, key string) ([]string, bool)
	Set(ctx context.Context, key string, value []string, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

type entry struct {
	value      []string
	expiration time.Time
}

// MemoryCache 进程内缓存
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiration) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value []string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiration: c.now().Add(ttl)}
}

func (c *MemoryCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
