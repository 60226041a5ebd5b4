package model

import "time"

// ShareLink is an anonymous, time-boxed, access-counted download token for
// one file. MaxAccess zero means unlimited.
type ShareLink struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Token            string    `gorm:"uniqueIndex;not null" json:"token"`
	FilePath         string    `gorm:"index;not null" json:"file_path"`
	FileName         string    `json:"file_name"`
	CreatedBy        string    `json:"created_by"`
	CreatedByDisplay string    `json:"created_by_display"`
	ExpiresAt        time.Time `json:"expires_at"`
	MaxAccess        int       `json:"max_access"`
	AccessCount      int       `json:"access_count"`
	Active           bool      `gorm:"column:is_active;default:true" json:"is_active"`
}
