package store

import (
	"pyra-drive/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notifications reads and writes per-recipient notification records.
type Notifications struct {
	db *gorm.DB
}

func NewNotifications(db *gorm.DB) *Notifications {
	return &Notifications{db: db}
}

func (s *Notifications) Create(n *model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return s.db.Create(n).Error
}

// For lists a recipient's notifications, newest first.
func (s *Notifications) For(username string, limit int, unreadOnly bool) ([]model.Notification, error) {
	q := s.db.Where("recipient = ?", username).Order("created_at desc").Limit(limit)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var out []model.Notification
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Notifications) UnreadCount(username string) (int64, error) {
	var count int64
	err := s.db.Model(&model.Notification{}).
		Where("recipient = ? AND is_read = ?", username, false).
		Count(&count).Error
	return count, err
}

func (s *Notifications) MarkRead(id, username string) error {
	res := s.db.Model(&model.Notification{}).
		Where("id = ? AND recipient = ?", id, username).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Notifications) MarkAllRead(username string) error {
	return s.db.Model(&model.Notification{}).
		Where("recipient = ? AND is_read = ?", username, false).
		Update("is_read", true).Error
}
