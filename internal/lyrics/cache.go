package lyrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sukalov/songquiz/internal/logger"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores normalized lyrics by Request.Key.
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry Entry) error
	Delete(ctx context.Context, key string) error
}

// MemoryCache is an in-process Cache. A zero ttl keeps entries forever.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	entry   Entry
	expires time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Entry, error) {
	c.mu.RLock()
	stored, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if !stored.expires.IsZero() && c.now().After(stored.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}
	entry := stored.entry
	return &entry, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, entry Entry) error {
	stored := memoryEntry{entry: entry}
	if c.ttl > 0 {
		stored.expires = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = stored
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Tier is one named level of a Tiered cache.
type Tier struct {
	Name  string
	Cache Cache
}

// Tiered reads through its tiers fastest first. A hit in a slower tier is
// copied into the faster ones. Writes and deletes go to every tier.
type Tiered struct {
	tiers []Tier
}

// NewTiered creates a Tiered cache. Tiers with a nil Cache are skipped.
func NewTiered(tiers ...Tier) *Tiered {
	t := &Tiered{}
	for _, tier := range tiers {
		if tier.Cache != nil {
			t.tiers = append(t.tiers, tier)
		}
	}
	return t
}

// Len returns the number of active tiers.
func (t *Tiered) Len() int {
	return len(t.tiers)
}

func (t *Tiered) Get(ctx context.Context, key string) (*Entry, error) {
	for i, tier := range t.tiers {
		entry, err := tier.Cache.Get(ctx, key)
		if errors.Is(err, ErrCacheMiss) {
			continue
		}
		if err != nil {
			logger.Warn(fmt.Sprintf("cache tier %s get %q failed: %v", tier.Name, key, err))
			continue
		}

		for _, faster := range t.tiers[:i] {
			if err := faster.Cache.Set(ctx, key, *entry); err != nil {
				logger.Warn(fmt.Sprintf("cache tier %s backfill %q failed: %v", faster.Name, key, err))
			}
		}
		return entry, nil
	}
	return nil, ErrCacheMiss
}

func (t *Tiered) Set(ctx context.Context, key string, entry Entry) error {
	var errs []error
	for _, tier := range t.tiers {
		if err := tier.Cache.Set(ctx, key, entry); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tier.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (t *Tiered) Delete(ctx context.Context, key string) error {
	var errs []error
	for _, tier := range t.tiers {
		if err := tier.Cache.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tier.Name, err))
		}
	}
	return errors.Join(errs...)
}
