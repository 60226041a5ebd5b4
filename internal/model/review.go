package model

import "time"

const (
	ReviewComment  = "comment"
	ReviewApproval = "approval"
)

// Review is a comment or approval attached to a file path.
type Review struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	FilePath    string `gorm:"index;not null" json:"file_path"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	Text        string `json:"text"`
	Resolved    bool   `gorm:"default:false" json:"resolved"`
}
