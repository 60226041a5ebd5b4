package store

import (
	"time"

	"pyra-drive/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity appends and lists audit records.
type Activity struct {
	db *gorm.DB
}

func NewActivity(db *gorm.DB) *Activity {
	return &Activity{db: db}
}

func (s *Activity) Log(e *model.ActivityEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return s.db.Create(e).Error
}

// ActivityFilter narrows an activity listing. Zero values mean "any".
type ActivityFilter struct {
	Limit      int
	Offset     int
	Username   string
	ActionType string
	From       *time.Time
	To         *time.Time
}

func (s *Activity) List(f ActivityFilter) ([]model.ActivityEntry, error) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := s.db.Order("created_at desc").Limit(limit).Offset(f.Offset)
	if f.Username != "" {
		q = q.Where("username = ?", f.Username)
	}
	if f.ActionType != "" {
		q = q.Where("action_type = ?", f.ActionType)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}
	var entries []model.ActivityEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
