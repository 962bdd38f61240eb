package model

import "time"

// PostingView is an append-only record of a posting being read.
type PostingView struct {
	ID       uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	JobID    uint64    `gorm:"not null;index:idx_job_views_job_time,priority:1" json:"job_id"`
	ViewerID *uint64   `json:"viewer_id,omitempty"`
	ViewedAt time.Time `gorm:"not null;index:idx_job_views_job_time,priority:2,sort:desc" json:"viewed_at"`
}

func (PostingView) TableName() string {
	return "job_views"
}
