package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ApplicationPending   = "pending"
	ApplicationAccepted  = "accepted"
	ApplicationRejected  = "rejected"
	ApplicationWithdrawn = "withdrawn"
)

// Application is a user's request to be considered for a posting.
// ActiveApplicantID mirrors ApplicantID until the application is withdrawn,
// so the unique index only covers live applications.
type Application struct {
	ID                uint64                      `gorm:"primaryKey" json:"id"`
	JobID             uint64                      `gorm:"not null;uniqueIndex:uk_job_applications_active,priority:1" json:"job_id"`
	ApplicantID       uint64                      `gorm:"not null;index:idx_job_applications_applicant" json:"applicant_id"`
	ActiveApplicantID *uint64                     `gorm:"uniqueIndex:uk_job_applications_active,priority:2" json:"-"`
	Message           string                      `gorm:"type:text;not null" json:"message"`
	ContactEmail      string                      `gorm:"size:128" json:"contact_email,omitempty"`
	ContactPhone      string                      `gorm:"size:32" json:"contact_phone,omitempty"`
	Skills            datatypes.JSONSlice[string] `json:"skills"`
	Instruments       datatypes.JSONSlice[string] `json:"instruments"`
	PreviousWork      string                      `gorm:"type:text" json:"previous_work,omitempty"`
	PortfolioURL      string                      `gorm:"size:255" json:"portfolio_url,omitempty"`
	Status            string                      `gorm:"size:16;not null;default:pending" json:"status"`
	Feedback          string                      `gorm:"type:text" json:"feedback,omitempty"`
	RespondedAt       *time.Time                  `json:"responded_at,omitempty"`
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

func (Application) TableName() string { return "job_applications" }

// ApplicationWithJob is an applicant-facing row with minimal posting context.
type ApplicationWithJob struct {
	Application
	JobTitle     string `json:"job_title"`
	CategoryName string `json:"category_name"`
}
