package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the redis client and provides a small JSON cache used for
// aggregate stats responses.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// CacheJSON stores v as JSON under key with a TTL. Failures are swallowed;
// the cache is advisory.
func (r *Redis) CacheJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if r == nil || r.Client == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = r.Client.Set(ctx, key, data, ttl).Err()
}

// FetchJSON loads a cached value into dst, reporting whether it was found.
func (r *Redis) FetchJSON(ctx context.Context, key string, dst any) bool {
	if r == nil || r.Client == nil {
		return false
	}
	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// Drop removes cached keys, typically after a mutation invalidates stats.
func (r *Redis) Drop(ctx context.Context, keys ...string) {
	if r == nil || r.Client == nil || len(keys) == 0 {
		return
	}
	_ = r.Client.Del(ctx, keys...).Err()
}
