package service

import (
	"context"

	"go.uber.org/zap"

	"Backstage_Jobs/internal/apperr"
	"Backstage_Jobs/internal/model"
	"Backstage_Jobs/internal/repository/mysql"
)

// SavedCache is the per-user saved set kept in Redis.
// IsSaved reports hit=false when the set has not been warmed.
type SavedCache interface {
	Add(ctx context.Context, userID, jobID uint64) error
	Remove(ctx context.Context, userID, jobID uint64) error
	IsSaved(ctx context.Context, userID, jobID uint64) (saved bool, hit bool, err error)
	Fill(ctx context.Context, userID uint64, jobIDs []uint64) error
}

type SavedService struct {
	repo     *mysql.SavedRepository
	postings *mysql.PostingRepository
	cache    SavedCache
	logger   *zap.Logger
}

// NewSavedService accepts a nil cache.
func NewSavedService(repo *mysql.SavedRepository, postings *mysql.PostingRepository, cache SavedCache, logger *zap.Logger) *SavedService {
	return &SavedService{repo: repo, postings: postings, cache: cache, logger: logger}
}

// Save bookmarks a posting. Saving twice is a silent no-op.
// The store is written first and the cache follows on a best-effort basis.
func (s *SavedService) Save(ctx context.Context, userID, jobID uint64) (bool, error) {
	if userID == 0 {
		return false, apperr.Unauthorized("login required", nil)
	}
	if _, err := s.postings.FindByID(ctx, jobID); err != nil {
		return false, storeErr(err, "posting")
	}
	changed, err := s.repo.Save(ctx, userID, jobID)
	if err != nil {
		return false, apperr.RetrievalFailure("save posting", err)
	}
	if s.cache != nil {
		if err := s.cache.Add(ctx, userID, jobID); err != nil {
			s.logger.Warn("saved cache add failed", zap.Uint64("user_id", userID), zap.Error(err))
		}
	}
	return changed, nil
}

func (s *SavedService) Unsave(ctx context.Context, userID, jobID uint64) (bool, error) {
	if userID == 0 {
		return false, apperr.Unauthorized("login required", nil)
	}
	changed, err := s.repo.Unsave(ctx, userID, jobID)
	if err != nil {
		return false, apperr.RetrievalFailure("unsave posting", err)
	}
	if s.cache != nil {
		if err := s.cache.Remove(ctx, userID, jobID); err != nil {
			s.logger.Warn("saved cache remove failed", zap.Uint64("user_id", userID), zap.Error(err))
		}
	}
	return changed, nil
}

// IsSaved answers from the cache when warm, otherwise from the store,
// warming the cache with the user's full saved set on the way out.
func (s *SavedService) IsSaved(ctx context.Context, userID, jobID uint64) (bool, error) {
	if s.cache != nil {
		saved, hit, err := s.cache.IsSaved(ctx, userID, jobID)
		if err == nil && hit {
			return saved, nil
		}
		if err != nil {
			s.logger.Warn("saved cache read failed", zap.Error(err))
		}
	}
	saved, err := s.repo.IsSaved(ctx, userID, jobID)
	if err != nil {
		return false, apperr.RetrievalFailure("check saved", err)
	}
	if s.cache != nil {
		if ids, err := s.repo.JobIDsByUser(ctx, userID); err == nil {
			if err := s.cache.Fill(ctx, userID, ids); err != nil {
				s.logger.Warn("saved cache fill failed", zap.Error(err))
			}
		}
	}
	return saved, nil
}

// ListSaved returns full postings, most recently saved first.
func (s *SavedService) ListSaved(ctx context.Context, userID uint64) ([]model.Posting, error) {
	list, err := s.repo.ListPostings(ctx, userID)
	if err != nil {
		return nil, apperr.RetrievalFailure("list saved", err)
	}
	return list, nil
}
