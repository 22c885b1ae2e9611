package scraper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPageCacheTTL keeps result pages for a short while so repeated runs
// within the same hour do not hit the job boards again.
const DefaultPageCacheTTL = time.Hour

const pageCachePrefix = "jobrec:page:"

// PageCache stores fetched pages by URL.
type PageCache interface {
	Get(ctx context.Context, url string) (body string, ok bool, err error)
	Set(ctx context.Context, url, body string, ttl time.Duration) error
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// RedisPageCache is a PageCache backed by Redis string keys with expiry.
type RedisPageCache struct {
	client *redis.Client
}

// NewRedisPageCache wraps an existing client.
func NewRedisPageCache(client *redis.Client) *RedisPageCache {
	return &RedisPageCache{client: client}
}

// Get returns the cached body for url, if present.
func (c *RedisPageCache) Get(ctx context.Context, url string) (string, bool, error) {
	body, err := c.client.Get(ctx, pageCachePrefix+url).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cached page: %w", err)
	}
	return body, true, nil
}

// Set stores body for url with the given ttl.
func (c *RedisPageCache) Set(ctx context.Context, url, body string, ttl time.Duration) error {
	if err := c.client.Set(ctx, pageCachePrefix+url, body, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache page: %w", err)
	}
	return nil
}

// CachingFetcher serves pages from a PageCache and fills it on a miss.
// Cache failures are logged and never fail the fetch.
type CachingFetcher struct {
	next    Fetcher
	cache   PageCache
	ttl     time.Duration
	verbose bool
}

// NewCachingFetcher wraps next with cache. ttl of zero uses DefaultPageCacheTTL.
func NewCachingFetcher(next Fetcher, cache PageCache, ttl time.Duration, verbose bool) *CachingFetcher {
	if ttl == 0 {
		ttl = DefaultPageCacheTTL
	}
	return &CachingFetcher{next: next, cache: cache, ttl: ttl, verbose: verbose}
}

// Fetch implements Fetcher.
func (f *CachingFetcher) Fetch(ctx context.Context, url string) (string, error) {
	body, ok, err := f.cache.Get(ctx, url)
	if err != nil {
		log.Printf("[CACHE] Lookup failed for %s: %v", url, err)
	} else if ok {
		if f.verbose {
			log.Printf("[CACHE] Hit: %s", url)
		}
		return body, nil
	}

	body, err = f.next.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	if err := f.cache.Set(ctx, url, body, f.ttl); err != nil {
		log.Printf("[CACHE] Store failed for %s: %v", url, err)
	}
	return body, nil
}
