package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dedup:"

// Redis is a shared guard backed by SETNX with a TTL window. Deployments
// running more than one relay instance point them at the same Redis so
// duplicate suppression covers the whole fleet; entries expire after the
// window instead of being bulk-cleared.
type Redis struct {
	c   *redis.Client
	ttl time.Duration
}

var _ Guard = (*Redis)(nil)

func NewRedis(addr string, db int, ttl time.Duration) *Redis {
	return &Redis{c: redis.NewClient(&redis.Options{Addr: addr, DB: db}), ttl: ttl}
}

// Close closes the underlying Redis client.
func (r *Redis) Close() error { return r.c.Close() }

func (r *Redis) CheckAndRecord(ctx context.Context, messageID string) (bool, error) {
	fresh, err := r.c.SetNX(ctx, keyPrefix+messageID, 1, r.ttl).Result()
	if err != nil {
		return false, err
	}
	return fresh, nil
}
