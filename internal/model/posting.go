package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	PostingStatusOpen      = "open"
	PostingStatusClosed    = "closed"
	PostingStatusCancelled = "cancelled"
)

const (
	JobTypeJob           = "job"
	JobTypeCollaboration = "collaboration"
)

const (
	PaymentPaid         = "paid"
	PaymentRevenueShare = "revenue_share"
	PaymentUnpaid       = "unpaid"
	PaymentTrade        = "trade"
)

const (
	LocationRemote   = "remote"
	LocationHybrid   = "hybrid"
	LocationInPerson = "in_person"
)

const (
	ExperienceEntry        = "entry"
	ExperienceIntermediate = "intermediate"
	ExperienceProfessional = "professional"
)

// Posting is a job or collaboration opportunity.
type Posting struct {
	ID                 uint64                      `gorm:"primaryKey" json:"id"`
	PostedBy           uint64                      `gorm:"not null;index:idx_job_postings_owner" json:"posted_by"`
	PosterType         string                      `gorm:"size:16;not null;default:other" json:"poster_type"`
	CategoryID         uint64                      `gorm:"not null;index:idx_job_postings_category" json:"category_id"`
	Title              string                      `gorm:"size:200;not null" json:"title"`
	Description        string                      `gorm:"type:text" json:"description"`
	JobType            string                      `gorm:"size:16;not null" json:"job_type"`
	PaymentType        string                      `gorm:"size:16;not null" json:"payment_type"`
	PaymentAmount      float64                     `gorm:"not null;default:0" json:"payment_amount"`
	PaymentCurrency    string                      `gorm:"size:3;not null;default:USD" json:"payment_currency"`
	LocationType       string                      `gorm:"size:16;not null" json:"location_type"`
	City               string                      `gorm:"size:100" json:"city,omitempty"`
	State              string                      `gorm:"size:100" json:"state,omitempty"`
	Country            string                      `gorm:"size:100" json:"country,omitempty"`
	RequiredSkills     datatypes.JSONSlice[string] `json:"required_skills"`
	RequiredGenres     datatypes.JSONSlice[string] `json:"required_genres"`
	RequiredExperience string                      `gorm:"size:16" json:"required_experience,omitempty"`
	InstrumentsNeeded  datatypes.JSONSlice[string] `json:"instruments_needed"`
	EventDate          *time.Time                  `json:"event_date,omitempty"`
	Deadline           *time.Time                  `json:"deadline,omitempty"`
	ExpiresAt          *time.Time                  `json:"expires_at,omitempty"`
	ViewsCount         int64                       `gorm:"not null;default:0" json:"views_count"`
	ApplicationsCount  int64                       `gorm:"not null;default:0" json:"applications_count"`
	Status             string                      `gorm:"size:16;not null;default:open;index:idx_job_postings_status_time,priority:1" json:"status"`
	Featured           bool                        `gorm:"not null;default:false" json:"featured"`
	Priority           int                         `gorm:"not null;default:0" json:"priority"`
	CreatedAt          time.Time                   `gorm:"index:idx_job_postings_status_time,priority:2,sort:desc" json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

func (Posting) TableName() string { return "job_postings" }
