package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"tasklist/pkg/logger"
)

const (
	todosKeyPrefix   = "todos:user:"
	versionKeyPrefix = "todos:version:"
)

// setIfVersion writes the list only while the user's version still equals ARGV[1]. A missing
// version counts as "0".
var setIfVersion = redis.NewScript(`
local current = redis.call("GET", KEYS[2]) or "0"
if current ~= ARGV[1] then
  return 0
end
if tonumber(ARGV[3]) > 0 then
  redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
  redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

// Connect parses url, applies poolSize and pings the server.
func Connect(ctx context.Context, url string, poolSize int) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parse REDIS_URL")
	}
	if poolSize > 0 {
		opts.PoolSize = poolSize
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	logger.Info(ctx, "Redis client initialized", "pool_size", opts.PoolSize)
	return client, nil
}

// Redis caches each user's serialized todo list. Every method is best effort:
// failures are logged and reported as a miss.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// TodosKey is the cache key of userID's todo list.
func TodosKey(userID string) string {
	return todosKeyPrefix + userID
}

// TodosVersionKey holds the counter bumped on every invalidation of userID's list.
func TodosVersionKey(userID string) string {
	return versionKeyPrefix + userID
}

// GetTodos returns the cached payload. Returns (nil, false) on miss or error.
func (r *Redis) GetTodos(ctx context.Context, userID string) ([]byte, bool) {
	b, err := r.client.Get(ctx, TodosKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		logger.Debug(ctx, "Redis get todos failed", "error", err)
		return nil, false
	}
	return b, true
}

// TodosVersion returns the user's current list version. Read it before loading the list
// from the store and pass it to SetTodos.
func (r *Redis) TodosVersion(ctx context.Context, userID string) (int64, bool) {
	v, err := r.client.Get(ctx, TodosVersionKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		logger.Debug(ctx, "Redis get todos version failed", "error", err)
		return 0, false
	}
	return v, true
}

// SetTodos stores payload with the configured TTL unless the list was invalidated after
// version was read. Reports whether the entry was written.
func (r *Redis) SetTodos(ctx context.Context, userID string, version int64, payload []byte) bool {
	keys := []string{TodosKey(userID), TodosVersionKey(userID)}
	written, err := setIfVersion.Run(ctx, r.client, keys, version, payload, r.ttl.Milliseconds()).Int()
	if err != nil {
		logger.Debug(ctx, "Redis set todos failed", "error", err)
		return false
	}
	if written == 0 {
		logger.Debug(ctx, "Skipped stale todos cache write", "user_id", userID)
	}
	return written == 1
}

// InvalidateTodos bumps the user's version and deletes the list in one transaction, so
// loads that started earlier can no longer write their snapshot back.
func (r *Redis) InvalidateTodos(ctx context.Context, userID string) {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, TodosVersionKey(userID))
		pipe.Del(ctx, TodosKey(userID))
		return nil
	})
	if err != nil {
		logger.Warn(ctx, "Redis invalidate todos failed", "error", err, "user_id", userID)
	}
}

// Ping is used by the readiness probe.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
