// Package redis is the hot lyrics cache tier.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/sukalov/songquiz/internal/lyrics"
)

const keyPrefix = "songquiz:lyrics:"

// LyricsCache stores lyrics entries as JSON strings with a TTL.
type LyricsCache struct {
	client *redisClient.Client
	ttl    time.Duration
}

// Options builds client options. A bare host:port address is reached over TLS
// as the default user; a full redis:// or rediss:// URL is used as is.
func Options(address, password string) (*redisClient.Options, error) {
	rawURL := address
	if !strings.Contains(address, "://") {
		rawURL = fmt.Sprintf("rediss://default:%s@%s", password, address)
	}
	opt, err := redisClient.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if opt.Password == "" {
		opt.Password = password
	}
	return opt, nil
}

// NewLyricsCache connects to redis and checks the connection.
func NewLyricsCache(ctx context.Context, address, password string, ttl time.Duration) (*LyricsCache, error) {
	opt, err := Options(address, password)
	if err != nil {
		return nil, err
	}
	client := redisClient.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &LyricsCache{client: client, ttl: ttl}, nil
}

// Get retrieves an entry, or lyrics.ErrCacheMiss
func (c *LyricsCache) Get(ctx context.Context, key string) (*lyrics.Entry, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err == redisClient.Nil {
			return nil, lyrics.ErrCacheMiss
		}
		return nil, err
	}
	var entry lyrics.Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cached entry %q: %w", key, err)
	}
	return &entry, nil
}

// Set stores an entry for the cache TTL
func (c *LyricsCache) Set(ctx context.Context, key string, entry lyrics.Entry) error {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+key, entryJSON, c.ttl).Err()
}

func (c *LyricsCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, keyPrefix+key).Err()
}

func (c *LyricsCache) Close() error {
	return c.client.Close()
}
