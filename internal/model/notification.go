package model

import "time"

// Notification is one message delivered to one recipient.
type Notification struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Recipient         string `gorm:"index;not null" json:"recipient_username"`
	Type              string `json:"type"`
	Title             string `json:"title"`
	Message           string `json:"message"`
	SourceUsername    string `json:"source_username"`
	SourceDisplayName string `json:"source_display_name"`
	TargetPath        string `json:"target_path"`
	Read              bool   `gorm:"column:is_read;default:false" json:"is_read"`
}
