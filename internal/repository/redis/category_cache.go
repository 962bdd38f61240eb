package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"Backstage_Jobs/internal/model"
)

const (
	CategoryListKey = "job:categories:active"
	CategoryListTTL = 10 * time.Minute
)

type CategoryCacheRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCategoryCacheRepository(rdb *redis.Client, ttl time.Duration) *CategoryCacheRepository {
	if ttl <= 0 {
		ttl = CategoryListTTL
	}
	return &CategoryCacheRepository{rdb: rdb, ttl: ttl}
}

// Get reports (list, hit, err).
func (r *CategoryCacheRepository) Get(ctx context.Context) ([]model.Category, bool, error) {
	raw, err := r.rdb.Get(ctx, CategoryListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var list []model.Category
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false, err
	}
	return list, true, nil
}

func (r *CategoryCacheRepository) Set(ctx context.Context, list []model.Category) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, CategoryListKey, raw, r.ttl).Err()
}
