package model

import "time"

type SavedJob struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uk_saved_jobs_user_job,priority:1" json:"user_id"`
	JobID     uint64    `gorm:"not null;uniqueIndex:uk_saved_jobs_user_job,priority:2;index:idx_saved_jobs_job" json:"job_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (SavedJob) TableName() string {
	return "saved_jobs"
}
