package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"brightpath/casedesk/internal/models"
)

// ListCache is a short-TTL Redis cache for the wholesale case lists the admin
// screens load. Cache failures degrade to a store read, never to an error:
// the cache is an accelerator, not a dependency.
type ListCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewListCache creates a list cache with the given TTL.
func NewListCache(rdb *redis.Client, ttl time.Duration) *ListCache {
	return &ListCache{rdb: rdb, ttl: ttl}
}

func listKey(caseType models.CaseType, variant string) string {
	return fmt.Sprintf("cases:list:%s:%s", caseType, variant)
}

// Get returns the cached list body for a case type and filter variant, or
// ("", false) on miss or cache failure.
func (c *ListCache) Get(ctx context.Context, caseType models.CaseType, variant string) (string, bool) {
	if c == nil || c.rdb == nil {
		return "", false
	}
	val, err := c.rdb.Get(ctx, listKey(caseType, variant)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("List cache read failed for %s: %v", caseType, err)
		}
		return "", false
	}
	return val, true
}

// Set stores a list body. Best-effort.
func (c *ListCache) Set(ctx context.Context, caseType models.CaseType, variant, body string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Set(ctx, listKey(caseType, variant), body, c.ttl).Err(); err != nil {
		log.Printf("List cache write failed for %s: %v", caseType, err)
	}
}

// Invalidate drops every cached variant for a case type. Called after any
// mutation so the next list read reflects it.
func (c *ListCache) Invalidate(ctx context.Context, caseType models.CaseType) {
	if c == nil || c.rdb == nil {
		return
	}
	pattern := listKey(caseType, "*")
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("List cache scan failed for %s: %v", caseType, err)
		return
	}
	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			log.Printf("List cache invalidation failed for %s: %v", caseType, err)
		}
	}
}
