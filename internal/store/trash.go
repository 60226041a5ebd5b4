package store

import (
	"time"

	"pyra-drive/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trash reads and writes soft-delete records.
type Trash struct {
	db *gorm.DB
}

func NewTrash(db *gorm.DB) *Trash {
	return &Trash{db: db}
}

func (s *Trash) Add(item *model.TrashItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	return s.db.Create(item).Error
}

func (s *Trash) All() ([]model.TrashItem, error) {
	var items []model.TrashItem
	if err := s.db.Order("deleted_at desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Trash) ByID(id string) (*model.TrashItem, error) {
	var item model.TrashItem
	if err := s.db.Where("id = ?", id).First(&item).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (s *Trash) Remove(id string) error {
	res := s.db.Where("id = ?", id).Delete(&model.TrashItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Expired lists items whose auto-purge time has passed.
func (s *Trash) Expired(now time.Time) ([]model.TrashItem, error) {
	var items []model.TrashItem
	err := s.db.Where("auto_purge_at IS NOT NULL AND auto_purge_at <= ?", now).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
