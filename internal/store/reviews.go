package store

import (
	"strings"

	"pyra-drive/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reviews reads and writes file review records.
type Reviews struct {
	db *gorm.DB
}

func NewReviews(db *gorm.DB) *Reviews {
	return &Reviews{db: db}
}

func (s *Reviews) Create(r *model.Review) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return s.db.Create(r).Error
}

func (s *Reviews) ForPath(path string) ([]model.Review, error) {
	var reviews []model.Review
	err := s.db.Where("file_path = ?", path).Order("created_at desc").Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// ToggleResolved flips the resolved flag and returns the new state.
func (s *Reviews) ToggleResolved(id string) (bool, error) {
	var review model.Review
	if err := s.db.Where("id = ?", id).First(&review).Error; err != nil {
		return false, notFound(err)
	}
	review.Resolved = !review.Resolved
	if err := s.db.Save(&review).Error; err != nil {
		return false, err
	}
	return review.Resolved, nil
}

func (s *Reviews) Delete(id string) error {
	res := s.db.Where("id = ?", id).Delete(&model.Review{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RewritePaths repoints reviews under oldPath to newPath after a rename.
func (s *Reviews) RewritePaths(oldPath, newPath string) error {
	var reviews []model.Review
	if err := s.db.Where("file_path LIKE ?", oldPath+"%").Find(&reviews).Error; err != nil {
		return err
	}
	for i := range reviews {
		updated := newPath + strings.TrimPrefix(reviews[i].FilePath, oldPath)
		if err := s.db.Model(&reviews[i]).Update("file_path", updated).Error; err != nil {
			return err
		}
	}
	return nil
}
