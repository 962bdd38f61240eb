package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"Backstage_Jobs/internal/apperr"
	"Backstage_Jobs/internal/repository/mysql"
)

// memSavedCache mimics the Redis set: cold until Fill, then kept in sync.
type memSavedCache struct {
	sets    map[uint64]map[uint64]bool
	fills   int
	readErr error
}

func newMemSavedCache() *memSavedCache {
	return &memSavedCache{sets: map[uint64]map[uint64]bool{}}
}

func (c *memSavedCache) Add(_ context.Context, userID, jobID uint64) error {
	if s, ok := c.sets[userID]; ok {
		s[jobID] = true
	}
	return nil
}

func (c *memSavedCache) Remove(_ context.Context, userID, jobID uint64) error {
	if s, ok := c.sets[userID]; ok {
		delete(s, jobID)
	}
	return nil
}

func (c *memSavedCache) IsSaved(_ context.Context, userID, jobID uint64) (bool, bool, error) {
	if c.readErr != nil {
		return false, false, c.readErr
	}
	s, ok := c.sets[userID]
	if !ok {
		return false, false, nil
	}
	return s[jobID], true, nil
}

func (c *memSavedCache) Fill(_ context.Context, userID uint64, jobIDs []uint64) error {
	c.fills++
	s := map[uint64]bool{}
	for _, id := range jobIDs {
		s[id] = true
	}
	c.sets[userID] = s
	return nil
}

func TestSave_IdempotentAndOrdered(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	first := e.mustCreate(t, e.paidInput("first", 100))
	second := e.mustCreate(t, e.paidInput("second", 100))

	_, err := e.saved.Save(ctx, e.artist.ID, 999)
	wantKind(t, err, apperr.KindNotFound)

	for i, want := range []bool{true, false} {
		changed, err := e.saved.Save(ctx, e.artist.ID, first.ID)
		if err != nil || changed != want {
			t.Fatalf("Save #%d = %v, %v; want %v", i+1, changed, err, want)
		}
	}
	if _, err := e.saved.Save(ctx, e.artist.ID, second.ID); err != nil {
		t.Fatalf("Save second: %v", err)
	}
	list, err := e.saved.ListSaved(ctx, e.artist.ID)
	if err != nil {
		t.Fatalf("ListSaved: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID {
		t.Fatalf("unexpected saved list: %+v", list)
	}

	changed, err := e.saved.Unsave(ctx, e.artist.ID, 12345)
	if err != nil || changed {
		t.Fatalf("Unsave of nothing = %v, %v; want no-op", changed, err)
	}
}

func TestIsSaved_WarmsCacheAndFollowsWrites(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	cache := newMemSavedCache()
	svc := NewSavedService(&mysql.SavedRepository{DB: e.db}, e.postings, cache, zap.NewNop())
	p := e.mustCreate(t, e.paidInput("Engineer", 100))

	if _, err := svc.Save(ctx, e.artist.ID, p.ID); err != nil {
		t.Fatalf("Save: %v", err)
	}
	ok, err := svc.IsSaved(ctx, e.artist.ID, p.ID)
	if err != nil || !ok {
		t.Fatalf("cold IsSaved = %v, %v", ok, err)
	}
	if cache.fills != 1 {
		t.Fatalf("cold read should warm the cache once, fills=%d", cache.fills)
	}

	if _, err := svc.Unsave(ctx, e.artist.ID, p.ID); err != nil {
		t.Fatalf("Unsave: %v", err)
	}
	ok, err = svc.IsSaved(ctx, e.artist.ID, p.ID)
	if err != nil || ok {
		t.Fatalf("warm IsSaved after unsave = %v, %v", ok, err)
	}
	if cache.fills != 1 {
		t.Fatalf("warm read must not refill, fills=%d", cache.fills)
	}

	cache.readErr = errors.New("redis down")
	ok, err = svc.IsSaved(ctx, e.artist.ID, p.ID)
	if err != nil || ok {
		t.Fatalf("cache failure should fall back to the store: %v, %v", ok, err)
	}
}
