package model

import "time"

const (
	AccountArtist = "artist"
	AccountVenue  = "venue"
	AccountOther  = "other"
)

type User struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;size:32;not null" json:"username"`
	Password    string    `gorm:"size:255;not null" json:"-"`
	Email       string    `gorm:"uniqueIndex;size:64;not null" json:"email"`
	AccountType string    `gorm:"size:16;not null;default:other" json:"account_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
