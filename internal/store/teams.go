package store

import (
	"errors"
	"strings"

	"pyra-drive/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrDuplicateMember is returned when a user is already on a team's roster.
var ErrDuplicateMember = errors.New("user already in team")

// Teams reads and writes team records and their rosters.
type Teams struct {
	db *gorm.DB
}

func NewTeams(db *gorm.DB) *Teams {
	return &Teams{db: db}
}

func (s *Teams) ByID(id string) (*model.Team, error) {
	var team model.Team
	if err := s.db.Preload("Members").Where("id = ?", id).First(&team).Error; err != nil {
		return nil, notFound(err)
	}
	return &team, nil
}

func (s *Teams) All() ([]model.Team, error) {
	var teams []model.Team
	if err := s.db.Preload("Members").Order("created_at asc").Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (s *Teams) Create(team *model.Team) error {
	if team.ID == "" {
		team.ID = uuid.NewString()
	}
	return s.db.Create(team).Error
}

func (s *Teams) Save(team *model.Team) error {
	return s.db.Save(team).Error
}

// Delete removes the team and cascades to its roster rows in one
// transaction; no orphan memberships are left behind.
func (s *Teams) Delete(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", id).Delete(&model.TeamMember{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Team{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// AddMember appends one roster row. The unique (team, username) index turns
// double-adds into ErrDuplicateMember.
func (s *Teams) AddMember(teamID, username, addedBy string) error {
	member := model.TeamMember{
		ID:       uuid.NewString(),
		TeamID:   teamID,
		Username: username,
		AddedBy:  addedBy,
	}
	if err := s.db.Create(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(strings.ToLower(err.Error()), "unique") {
			return ErrDuplicateMember
		}
		return err
	}
	return nil
}

func (s *Teams) RemoveMember(teamID, username string) error {
	res := s.db.Where("team_id = ? AND username = ?", teamID, username).Delete(&model.TeamMember{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TeamsFor returns every team the user belongs to, grants included.
func (s *Teams) TeamsFor(username string) ([]model.Team, error) {
	var teams []model.Team
	err := s.db.
		Joins("JOIN team_members ON team_members.team_id = teams.id").
		Where("team_members.username = ?", username).
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}
