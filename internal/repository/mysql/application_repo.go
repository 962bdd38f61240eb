package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	"Backstage_Jobs/internal/model"
)

type ApplicationRepository struct {
	DB *gorm.DB
}

func (r *ApplicationRepository) FindByID(ctx context.Context, id uint64) (*model.Application, error) {
	var app model.Application
	err := r.DB.WithContext(ctx).First(&app, id).Error
	return &app, err
}

// FindActive returns the applicant's non-withdrawn application for a posting.
func (r *ApplicationRepository) FindActive(ctx context.Context, jobID, applicantID uint64) (*model.Application, error) {
	var app model.Application
	err := r.DB.WithContext(ctx).
		Where("job_id = ? AND applicant_id = ? AND status <> ?", jobID, applicantID, model.ApplicationWithdrawn).
		First(&app).Error
	return &app, err
}

// Create inserts a pending application and counts it against the posting.
// A concurrent duplicate surfaces as gorm.ErrDuplicatedKey from the unique index.
func (r *ApplicationRepository) Create(ctx context.Context, app *model.Application) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		active := app.ApplicantID
		app.ActiveApplicantID = &active
		app.Status = model.ApplicationPending
		if err := tx.Create(app).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Posting{}).
			Where("id = ?", app.JobID).
			UpdateColumn("applications_count", gorm.Expr("applications_count + 1")).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventApplicationCreated, app.ID, "", map[string]any{
			"application_id": app.ID,
			"job_id":         app.JobID,
			"applicant_id":   app.ApplicantID,
		})
	})
}

// ListByJob returns every application for a posting, newest first.
func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID uint64) ([]model.Application, error) {
	list := make([]model.Application, 0)
	err := r.DB.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at DESC, id DESC").
		Find(&list).Error
	return list, err
}

// ListByApplicant joins each application with its posting title and category name.
func (r *ApplicationRepository) ListByApplicant(ctx context.Context, applicantID uint64) ([]model.ApplicationWithJob, error) {
	rows := make([]model.ApplicationWithJob, 0)
	err := r.DB.WithContext(ctx).
		Table("job_applications AS a").
		Select("a.*, j.title AS job_title, c.name AS category_name").
		Joins("JOIN job_postings j ON j.id = a.job_id").
		Joins("LEFT JOIN job_categories c ON c.id = j.category_id").
		Where("a.applicant_id = ?", applicantID).
		Order("a.created_at DESC, a.id DESC").
		Scan(&rows).Error
	return rows, err
}

// RecentByApplicant samples the applicant's latest applications in any status.
func (r *ApplicationRepository) RecentByApplicant(ctx context.Context, applicantID uint64, limit int) ([]model.Application, error) {
	var list []model.Application
	err := r.DB.WithContext(ctx).
		Where("applicant_id = ?", applicantID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *ApplicationRepository) CountActiveByJob(ctx context.Context, jobID uint64) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.Application{}).
		Where("job_id = ? AND status <> ?", jobID, model.ApplicationWithdrawn).
		Count(&count).Error
	return count, err
}

// Respond moves a pending application to status and records the owner's feedback.
// recipient is where the status notification should be delivered.
func (r *ApplicationRepository) Respond(ctx context.Context, app *model.Application, status, feedback, recipient string, at time.Time) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Application{}).
			Where("id = ? AND status = ?", app.ID, model.ApplicationPending).
			Updates(map[string]any{
				"status":       status,
				"feedback":     feedback,
				"responded_at": at,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleState
		}
		app.Status = status
		app.Feedback = feedback
		app.RespondedAt = &at
		return insertOutbox(tx, model.EventApplicationStatusChanged, app.ID, recipient, map[string]any{
			"application_id": app.ID,
			"job_id":         app.JobID,
			"applicant_id":   app.ApplicantID,
			"status":         status,
			"feedback":       feedback,
		})
	})
}

// Withdraw marks the application withdrawn and releases its slot in the unique index.
// It reports false when the application was already withdrawn.
func (r *ApplicationRepository) Withdraw(ctx context.Context, app *model.Application) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Application{}).
			Where("id = ? AND status <> ?", app.ID, model.ApplicationWithdrawn).
			Updates(map[string]any{
				"status":              model.ApplicationWithdrawn,
				"active_applicant_id": gorm.Expr("NULL"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		if err := tx.Model(&model.Posting{}).
			Where("id = ?", app.JobID).
			UpdateColumn("applications_count", gorm.Expr("CASE WHEN applications_count > 0 THEN applications_count - 1 ELSE 0 END")).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventApplicationWithdrawn, app.ID, "", map[string]any{
			"application_id": app.ID,
			"job_id":         app.JobID,
			"applicant_id":   app.ApplicantID,
		})
	})
	if changed {
		app.Status = model.ApplicationWithdrawn
		app.ActiveApplicantID = nil
	}
	return changed, err
}
