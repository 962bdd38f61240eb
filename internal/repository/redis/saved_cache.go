package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	SavedSetTTL       = 24 * time.Hour
	SavedSetKeyPrefix = "saved:set:user"
	// sentinel member so an empty ledger still counts as a warm set
	savedSetSentinel = "0"
)

// SavedCacheRepository keeps one Redis set of saved job ids per user.
type SavedCacheRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSavedCacheRepository(rdb *redis.Client, ttl time.Duration) *SavedCacheRepository {
	if ttl <= 0 {
		ttl = SavedSetTTL
	}
	return &SavedCacheRepository{rdb: rdb, ttl: ttl}
}

func (r *SavedCacheRepository) key(userID uint64) string {
	return fmt.Sprintf("%s:%d", SavedSetKeyPrefix, userID)
}

// Add and Remove only touch sets that already exist; a missing set is rebuilt by Fill.
func (r *SavedCacheRepository) Add(ctx context.Context, userID, jobID uint64) error {
	return r.touch(ctx, userID, jobID, true)
}

func (r *SavedCacheRepository) Remove(ctx context.Context, userID, jobID uint64) error {
	return r.touch(ctx, userID, jobID, false)
}

func (r *SavedCacheRepository) touch(ctx context.Context, userID, jobID uint64, saved bool) error {
	k := r.key(userID)
	n, err := r.rdb.Exists(ctx, k).Result()
	if err != nil || n == 0 {
		return err
	}
	if saved {
		err = r.rdb.SAdd(ctx, k, jobID).Err()
	} else {
		err = r.rdb.SRem(ctx, k, jobID).Err()
	}
	if err != nil {
		return err
	}
	return r.rdb.Expire(ctx, k, r.ttl).Err()
}

// IsSaved reports (saved, hit, err); hit is false when the user's set is not cached.
func (r *SavedCacheRepository) IsSaved(ctx context.Context, userID, jobID uint64) (bool, bool, error) {
	k := r.key(userID)
	exists, err := r.rdb.Exists(ctx, k).Result()
	if err != nil {
		return false, false, err
	}
	if exists == 0 {
		return false, false, nil
	}
	b, err := r.rdb.SIsMember(ctx, k, strconv.FormatUint(jobID, 10)).Result()
	return b, true, err
}

// Fill replaces the user's set with jobIDs.
func (r *SavedCacheRepository) Fill(ctx context.Context, userID uint64, jobIDs []uint64) error {
	k := r.key(userID)
	members := make([]any, 0, len(jobIDs)+1)
	members = append(members, savedSetSentinel)
	for _, id := range jobIDs {
		members = append(members, id)
	}
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, k)
		p.SAdd(ctx, k, members...)
		p.Expire(ctx, k, r.ttl)
		return nil
	})
	return err
}
