package model

import "time"

// ActivityEntry is one append-only audit record.
type ActivityEntry struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	ActionType  string `gorm:"index;not null" json:"action_type"`
	Username    string `gorm:"index" json:"username"`
	DisplayName string `json:"display_name"`
	TargetPath  string `json:"target_path"`
	IPAddress   string `json:"ip_address"`

	Details map[string]any `gorm:"serializer:json" json:"details"`
}
