package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"Backstage_Jobs/internal/model"
)

type ViewRepository struct {
	DB *gorm.DB
}

// Record appends a view row and bumps the posting's denormalized counter.
func (r *ViewRepository) Record(ctx context.Context, jobID uint64, viewerID *uint64, at time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model.PostingView{JobID: jobID, ViewerID: viewerID, ViewedAt: at.UTC()}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Posting{}).
			Where("id = ?", jobID).
			UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
	})
}

func (r *ViewRepository) CountByJob(ctx context.Context, jobID uint64) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.PostingView{}).
		Where("job_id = ?", jobID).
		Count(&count).Error
	return count, err
}

// Recent returns the newest view timestamps for a posting.
func (r *ViewRepository) Recent(ctx context.Context, jobID uint64, limit int) ([]time.Time, error) {
	var rows []model.PostingView
	err := r.DB.WithContext(ctx).
		Select("id", "viewed_at").
		Where("job_id = ?", jobID).
		Order("viewed_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(rows))
	for _, v := range rows {
		out = append(out, v.ViewedAt)
	}
	return out, nil
}
