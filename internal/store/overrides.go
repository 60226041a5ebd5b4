package store

import (
	"errors"
	"time"

	"pyra-drive/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInvalidTarget is returned when an override names an unknown target
// kind. Such rows are rejected at write time and never stored.
var ErrInvalidTarget = errors.New("target_type must be user or team")

// Overrides reads and writes path override records. Reads filter out expired
// rows; physical removal is left to SweepExpired and correctness never
// depends on the sweep running.
type Overrides struct {
	db  *gorm.DB
	now func() time.Time
}

func NewOverrides(db *gorm.DB) *Overrides {
	return &Overrides{db: db, now: time.Now}
}

// Set stores an override, superseding any previous override for the same
// (path, target type, target id) triple. Delete-then-insert in one
// transaction keeps at most one active row per triple.
func (s *Overrides) Set(o *model.PathOverride) error {
	if o.TargetType != model.TargetUser && o.TargetType != model.TargetTeam {
		return ErrInvalidTarget
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("path = ? AND target_type = ? AND target_id = ?",
			o.Path, o.TargetType, o.TargetID).
			Delete(&model.PathOverride{}).Error; err != nil {
			return err
		}
		return tx.Create(o).Error
	})
}

// ActiveForTargets returns the non-expired overrides applying to any of the
// given targets.
func (s *Overrides) ActiveForTargets(targets []model.OverrideTarget) ([]model.PathOverride, error) {
	if len(targets) == 0 {
		return nil, nil
	}

	cond := s.db.Session(&gorm.Session{NewDB: true})
	for i, t := range targets {
		clause := s.db.Session(&gorm.Session{NewDB: true}).
			Where("target_type = ? AND target_id = ?", t.Type, t.ID)
		if i == 0 {
			cond = clause
		} else {
			cond = cond.Or(clause)
		}
	}

	var rows []model.PathOverride
	err := s.db.
		Where("expires_at IS NULL OR expires_at > ?", s.now()).
		Where(cond).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ForPath lists every override on a path, expired rows included, for the
// admin UI.
func (s *Overrides) ForPath(path string) ([]model.PathOverride, error) {
	var rows []model.PathOverride
	if err := s.db.Where("path = ?", path).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Overrides) Remove(id string) error {
	res := s.db.Where("id = ?", id).Delete(&model.PathOverride{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SweepExpired physically removes rows whose expiry has passed and reports
// how many went.
func (s *Overrides) SweepExpired() (int64, error) {
	res := s.db.Where("expires_at IS NOT NULL AND expires_at < ?", s.now()).
		Delete(&model.PathOverride{})
	return res.RowsAffected, res.Error
}
