package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/FastBound/Support/internal/domain"
)

// RedisCache stores the contact pool as one JSON blob, keyed per account.
// Useful when several machines run imports against the same account and a
// file cache would go stale between them.
type RedisCache struct {
	c   *redis.Client
	key string
	ttl time.Duration
}

// NewRedisCache creates a cache for one account. A ttl of 0 means the
// cached pool never expires.
func NewRedisCache(c *redis.Client, account string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		c:   c,
		key: "fastbound:contacts:" + account,
		ttl: ttl,
	}
}

func (r *RedisCache) Load(ctx context.Context) ([]domain.Contact, error) {
	val, err := r.c.Get(ctx, r.key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("loading contact cache from redis: %w", err)
	}
	var contacts []domain.Contact
	if err := json.Unmarshal([]byte(val), &contacts); err != nil {
		return nil, fmt.Errorf("decoding contact cache: %w", err)
	}
	return contacts, nil
}

func (r *RedisCache) Save(ctx context.Context, contacts []domain.Contact) error {
	b, err := json.Marshal(contacts)
	if err != nil {
		return fmt.Errorf("encoding contact cache: %w", err)
	}
	if err := r.c.Set(ctx, r.key, string(b), r.ttl).Err(); err != nil {
		return fmt.Errorf("saving contact cache to redis: %w", err)
	}
	return nil
}
