// Package quotes caches dynamic price quotes in Redis for a short TTL so
// hot events don't hammer the ledger with read traffic between mints.
package quotes

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{Client: client, TTL: ttl}
}

func quoteKey(eventID uint64) string {
	return fmt.Sprintf("price_quote:%d", eventID)
}

// Get returns a cached quote, or found=false on a miss.
func (c *Cache) Get(ctx context.Context, eventID uint64) (int64, bool, error) {
	val, err := c.Client.Get(ctx, quoteKey(eventID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	price, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return price, true, nil
}

func (c *Cache) Set(ctx context.Context, eventID uint64, price int64) error {
	return c.Client.Set(ctx, quoteKey(eventID), strconv.FormatInt(price, 10), c.TTL).Err()
}

// Invalidate drops the quote after a mint changes demand.
func (c *Cache) Invalidate(ctx context.Context, eventID uint64) error {
	return c.Client.Del(ctx, quoteKey(eventID)).Err()
}
