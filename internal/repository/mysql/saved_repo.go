package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Backstage_Jobs/internal/model"
)

type SavedRepository struct {
	DB *gorm.DB
}

// Save is idempotent on the unique (user_id, job_id) pair; changed is false when the row already existed.
func (r *SavedRepository) Save(ctx context.Context, userID, jobID uint64) (bool, error) {
	res := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "job_id"}},
			DoNothing: true,
		}).
		Create(&model.SavedJob{UserID: userID, JobID: jobID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *SavedRepository) Unsave(ctx context.Context, userID, jobID uint64) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND job_id = ?", userID, jobID).
		Delete(&model.SavedJob{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *SavedRepository) IsSaved(ctx context.Context, userID, jobID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.SavedJob{}).
		Where("user_id = ? AND job_id = ?", userID, jobID).
		Count(&count).Error
	return count > 0, err
}

// ListPostings returns the saved postings, most recently saved first.
func (r *SavedRepository) ListPostings(ctx context.Context, userID uint64) ([]model.Posting, error) {
	list := make([]model.Posting, 0)
	err := r.DB.WithContext(ctx).
		Model(&model.Posting{}).
		Select("job_postings.*").
		Joins("JOIN saved_jobs ON saved_jobs.job_id = job_postings.id").
		Where("saved_jobs.user_id = ?", userID).
		Order("saved_jobs.created_at DESC, saved_jobs.id DESC").
		Find(&list).Error
	return list, err
}

// JobIDsByUser feeds the saved-set cache.
func (r *SavedRepository) JobIDsByUser(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).
		Model(&model.SavedJob{}).
		Where("user_id = ?", userID).
		Pluck("job_id", &ids).Error
	return ids, err
}

func (r *SavedRepository) CountByJob(ctx context.Context, jobID uint64) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.SavedJob{}).
		Where("job_id = ?", jobID).
		Count(&count).Error
	return count, err
}
