package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/zatekoja/therapistdirectory/internal/domain/providers"
)

type lruEntry struct {
	value     []byte
	expiresAt time.Time
}

// LRUAdapter is a bounded in-process CacheProvider used when Redis is off
type LRUAdapter struct {
	cache *lru.Cache[string, lruEntry]
	now   func() time.Time
}

var _ providers.CacheProvider = (*LRUAdapter)(nil)

// NewLRUAdapter creates a cache holding at most size entries
func NewLRUAdapter(size int) (*LRUAdapter, error) {
	c, err := lru.New[string, lruEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &LRUAdapter{cache: c, now: time.Now}, nil
}

// Get retrieves a value from cache
func (a *LRUAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	entry, ok := a.cache.Get(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && a.now().After(entry.expiresAt) {
		a.cache.Remove(key)
		return nil, providers.ErrCacheMiss
	}
	return entry.value, nil
}

// Set stores a value in cache with expiration. Zero means no expiry.
func (a *LRUAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	entry := lruEntry{value: append([]byte(nil), value...)}
	if expirationSeconds > 0 {
		entry.expiresAt = a.now().Add(time.Duration(expirationSeconds) * time.Second)
	}
	a.cache.Add(key, entry)
	return nil
}

// Delete removes values from cache
func (a *LRUAdapter) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		a.cache.Remove(k)
	}
	return nil
}
