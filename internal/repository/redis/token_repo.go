package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

const (
	UserTokenPrefix = "login:user:token"
	UserTokenTTL    = 30 * time.Minute
)

// TokenRepository stores the single live access token per user.
type TokenRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewTokenRepository(rdb *redis.Client, ttl time.Duration) *TokenRepository {
	if ttl <= 0 {
		ttl = UserTokenTTL
	}
	return &TokenRepository{rdb: rdb, ttl: ttl}
}

func (r *TokenRepository) key(userID uint64) string {
	return fmt.Sprintf("%s:%d", UserTokenPrefix, userID)
}

func (r *TokenRepository) Add(ctx context.Context, userID uint64, token string) error {
	if err := r.rdb.Set(ctx, r.key(userID), token, r.ttl).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

func (r *TokenRepository) Get(ctx context.Context, userID uint64) (string, error) {
	token, err := r.rdb.Get(ctx, r.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", ErrRedisUnavailable
	}
	return token, nil
}

// Extend slides the session window after each authenticated request.
func (r *TokenRepository) Extend(ctx context.Context, userID uint64) error {
	if err := r.rdb.Expire(ctx, r.key(userID), r.ttl).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

func (r *TokenRepository) Delete(ctx context.Context, userID uint64) error {
	if err := r.rdb.Del(ctx, r.key(userID)).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}
