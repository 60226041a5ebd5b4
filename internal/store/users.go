package store

import (
	"time"

	"pyra-drive/internal/model"

	"gorm.io/gorm"
)

// Users reads and writes principal records.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// ByUsername fetches one user, ErrNotFound when absent.
func (s *Users) ByUsername(username string) (*model.User, error) {
	var u model.User
	if err := s.db.Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// All returns every user ordered by creation time.
func (s *Users) All() ([]model.User, error) {
	var users []model.User
	if err := s.db.Order("created_at asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Users) Create(u *model.User) error {
	return s.db.Create(u).Error
}

func (s *Users) Save(u *model.User) error {
	return s.db.Save(u).Error
}

// SetPassword stores a new password hash for username.
func (s *Users) SetPassword(username, hash string) error {
	res := s.db.Model(&model.User{}).Where("username = ?", username).Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLogin records a successful login time.
func (s *Users) TouchLogin(u *model.User) error {
	now := time.Now()
	u.LastLogin = &now
	return s.db.Save(u).Error
}

// Delete removes a user together with their team memberships and their
// user-targeted overrides, so no orphan rows survive.
func (s *Users) Delete(username string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("username = ?", username).Delete(&model.TeamMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("target_type = ? AND target_id = ?", model.TargetUser, username).
			Delete(&model.PathOverride{}).Error; err != nil {
			return err
		}
		res := tx.Where("username = ?", username).Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
