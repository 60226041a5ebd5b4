package model

import "time"

const (
	TargetUser = "user"
	TargetTeam = "team"
)

// OverrideTarget identifies who a path override applies to: a username when
// Type is "user", a team id when Type is "team".
type OverrideTarget struct {
	Type string
	ID   string
}

// PathOverride grants an independent capability set on one path to a user or
// team, optionally until ExpiresAt. An expired override is ignored by every
// read path even if the row still exists (lazy expiry).
type PathOverride struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Path       string     `gorm:"index;not null" json:"path"`
	TargetType string     `gorm:"not null" json:"target_type"`
	TargetID   string     `gorm:"not null" json:"target_id"`
	ExpiresAt  *time.Time `json:"expires_at"`
	CreatedBy  string     `json:"created_by"`

	Permissions CapabilitySet `gorm:"serializer:json" json:"permissions"`
}

// Expired reports whether the override's expiry is in the past at now.
func (o *PathOverride) Expired(now time.Time) bool {
	return o.ExpiresAt != nil && o.ExpiresAt.Before(now)
}
