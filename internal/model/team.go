package model

import "time"

// Team is a named group of users sharing one grant.
type Team struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`

	// Permissions is the grant shared by every member.
	Permissions Grant `gorm:"serializer:json" json:"permissions"`

	Members []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

// TeamMember is one roster row. The (team, username) pair is unique.
type TeamMember struct {
	ID       string    `gorm:"primaryKey" json:"id"`
	TeamID   string    `gorm:"uniqueIndex:idx_team_member;not null" json:"team_id"`
	Username string    `gorm:"uniqueIndex:idx_team_member;not null" json:"username"`
	AddedBy  string    `json:"added_by"`
	AddedAt  time.Time `gorm:"autoCreateTime" json:"added_at"`
}
