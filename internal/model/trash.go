package model

import "time"

// TrashItem records a soft-deleted object moved under the trash prefix.
type TrashItem struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	DeletedAt time.Time `gorm:"autoCreateTime" json:"deleted_at"`

	OriginalPath     string     `gorm:"not null" json:"original_path"`
	TrashPath        string     `gorm:"not null" json:"trash_path"`
	FileName         string     `json:"file_name"`
	FileSize         int64      `json:"file_size"`
	MimeType         string     `json:"mime_type"`
	DeletedBy        string     `json:"deleted_by"`
	DeletedByDisplay string     `json:"deleted_by_display"`
	AutoPurgeAt      *time.Time `json:"auto_purge_at"`
}
