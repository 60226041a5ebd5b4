package store

import (
	"crypto/rand"
	"encoding/hex"

	"pyra-drive/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShareLinks reads and writes share link records.
type ShareLinks struct {
	db *gorm.DB
}

func NewShareLinks(db *gorm.DB) *ShareLinks {
	return &ShareLinks{db: db}
}

// NewToken returns a fresh high-entropy share token.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *ShareLinks) Create(link *model.ShareLink) error {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	link.Active = true
	return s.db.Create(link).Error
}

func (s *ShareLinks) ByToken(token string) (*model.ShareLink, error) {
	var link model.ShareLink
	if err := s.db.Where("token = ?", token).First(&link).Error; err != nil {
		return nil, notFound(err)
	}
	return &link, nil
}

func (s *ShareLinks) ByID(id string) (*model.ShareLink, error) {
	var link model.ShareLink
	if err := s.db.Where("id = ?", id).First(&link).Error; err != nil {
		return nil, notFound(err)
	}
	return &link, nil
}

// ForPath lists the active links on one file, newest first.
func (s *ShareLinks) ForPath(path string) ([]model.ShareLink, error) {
	var links []model.ShareLink
	err := s.db.Where("file_path = ? AND is_active = ?", path, true).
		Order("created_at desc").Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

// Deactivate turns a link off permanently. Deactivated links are never
// revived; mint a new one instead.
func (s *ShareLinks) Deactivate(id string) error {
	res := s.db.Model(&model.ShareLink{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Consume increments the access count iff the link is still active and under
// its limit. The guard and the increment are one UPDATE, so two concurrent
// redemptions racing a max_access limit cannot both succeed.
func (s *ShareLinks) Consume(id string) (bool, error) {
	res := s.db.Model(&model.ShareLink{}).
		Where("id = ? AND is_active = ? AND (max_access = 0 OR access_count < max_access)", id, true).
		UpdateColumn("access_count", gorm.Expr("access_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
