package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const LockKeyPrefix = "lock:"

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

// DistLock is a single-key SETNX lock; Release only deletes a lock still held by token.
type DistLock struct {
	rdb  *redis.Client
	name string
	ttl  time.Duration
}

func NewDistLock(rdb *redis.Client, name string, ttl time.Duration) *DistLock {
	return &DistLock{rdb: rdb, name: LockKeyPrefix + name, ttl: ttl}
}

func (l *DistLock) Acquire(ctx context.Context, token string) (bool, error) {
	return l.rdb.SetNX(ctx, l.name, token, l.ttl).Result()
}

func (l *DistLock) Release(ctx context.Context, token string) error {
	return releaseScript.Run(ctx, l.rdb, []string{l.name}, token).Err()
}
