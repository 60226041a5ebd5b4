package store

import (
	"path/filepath"
	"testing"
	"time"

	"pyra-drive/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *testDB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return &testDB{
		Users:      NewUsers(db),
		Teams:      NewTeams(db),
		Overrides:  NewOverrides(db),
		ShareLinks: NewShareLinks(db),
	}
}

type testDB struct {
	Users      *Users
	Teams      *Teams
	Overrides  *Overrides
	ShareLinks *ShareLinks
}

func TestUsersRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestDB(t)

	u := &model.User{
		Username:    "alice",
		Password:    "secret",
		DisplayName: "Alice",
		Role:        model.RoleClient,
		Permissions: model.Grant{
			CapabilitySet: model.CapabilitySet{Download: true},
			AllowedPaths:  []string{"clients/acme"},
		},
	}
	require.NoError(t, s.Users.Create(u))

	got, err := s.Users.ByUsername("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"clients/acme"}, got.Permissions.AllowedPaths)
	assert.True(t, got.Permissions.Download)
	// The create hook must have hashed the password.
	assert.NotEqual(t, "secret", got.Password)

	_, err = s.Users.ByUsername("nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserDeleteCascades(t *testing.T) {
	t.Parallel()
	s := newTestDB(t)

	require.NoError(t, s.Users.Create(&model.User{Username: "bob", Password: "x"}))
	team := &model.Team{Name: "ops"}
	require.NoError(t, s.Teams.Create(team))
	require.NoError(t, s.Teams.AddMember(team.ID, "bob", "admin"))
	require.NoError(t, s.Overrides.Set(&model.PathOverride{
		Path: "p", TargetType: model.TargetUser, TargetID: "bob",
	}))

	require.NoError(t, s.Users.Delete("bob"))

	teams, err := s.Teams.TeamsFor("bob")
	require.NoError(t, err)
	assert.Empty(t, teams)

	rows, err := s.Overrides.ActiveForTargets([]model.OverrideTarget{{Type: model.TargetUser, ID: "bob"}})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTeamRosterAndCascade(t *testing.T) {
	t.Parallel()
	s := newTestDB(t)

	team := &model.Team{Name: "design", Description: "design crew"}
	require.NoError(t, s.Teams.Create(team))
	require.NoError(t, s.Teams.AddMember(team.ID, "alice", "admin"))

	err := s.Teams.AddMember(team.ID, "alice", "admin")
	assert.ErrorIs(t, err, ErrDuplicateMember)

	got, err := s.Teams.ByID(team.ID)
	require.NoError(t, err)
	require.Len(t, got.Members, 1)
	assert.Equal(t, "admin", got.Members[0].AddedBy)
	assert.False(t, got.Members[0].AddedAt.IsZero())

	require.NoError(t, s.Teams.Delete(team.ID))
	teams, err := s.Teams.TeamsFor("alice")
	require.NoError(t, err)
	assert.Empty(t, teams)
}

func TestOverrideSupersede(t *testing.T) {
	t.Parallel()
	s := newTestDB(t)

	first := &model.PathOverride{
		Path:        "clients/acme",
		TargetType:  model.TargetUser,
		TargetID:    "alice",
		Permissions: model.CapabilitySet{Delete: true},
	}
	require.NoError(t, s.Overrides.Set(first))

	second := &model.PathOverride{
		Path:        "clients/acme",
		TargetType:  model.TargetUser,
		TargetID:    "alice",
		Permissions: model.CapabilitySet{Edit: true},
	}
	require.NoError(t, s.Overrides.Set(second))

	rows, err := s.Overrides.ActiveForTargets([]model.OverrideTarget{{Type: model.TargetUser, ID: "alice"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, second.ID, rows[0].ID)
	assert.True(t, rows[0].Permissions.Edit)
	assert.False(t, rows[0].Permissions.Delete)
}

func TestOverrideExpiryIsLazy(t *testing.T) {
	t.Parallel()
	s := newTestDB(t)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, s.Overrides.Set(&model.PathOverride{
		Path:        "clients/acme",
		TargetType:  model.TargetUser,
		TargetID:    "alice",
		Permissions: model.CapabilitySet{Delete: true},
		ExpiresAt:   &past,
	}))

	// Reads treat the expired row as absent even though it still exists.
	rows, err := s.Overrides.ActiveForTargets([]model.OverrideTarget{{Type: model.TargetUser, ID: "alice"}})
	require.NoError(t, err)
	assert.Empty(t, rows)

	all, err := s.Overrides.ForPath("clients/acme")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	n, err := s.Overrides.SweepExpired()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	all, err = s.Overrides.ForPath("clients/acme")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOverrideRejectsUnknownTarget(t *testing.T) {
	t.Parallel()
	s := newTestDB(t)

	err := s.Overrides.Set(&model.PathOverride{
		Path: "p", TargetType: "group", TargetID: "x",
	})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	rows, err := s.Overrides.ForPath("p")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestShareLinkConsumeEnforcesLimit(t *testing.T) {
	t.Parallel()
	s := newTestDB(t)

	token, err := NewToken()
	require.NoError(t, err)
	link := &model.ShareLink{
		Token:     token,
		FilePath:  "clients/acme/report.pdf",
		FileName:  "report.pdf",
		ExpiresAt: time.Now().Add(time.Hour),
		MaxAccess: 1,
	}
	require.NoError(t, s.ShareLinks.Create(link))

	ok, err := s.ShareLinks.Consume(link.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ShareLinks.Consume(link.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.ShareLinks.ByToken(token)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AccessCount)
}

func TestShareLinkConsumeUnlimited(t *testing.T) {
	t.Parallel()
	s := newTestDB(t)

	token, err := NewToken()
	require.NoError(t, err)
	link := &model.ShareLink{Token: token, FilePath: "x", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.ShareLinks.Create(link))

	for i := 0; i < 5; i++ {
		ok, err := s.ShareLinks.Consume(link.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestShareLinkDeactivateBlocksConsume(t *testing.T) {
	t.Parallel()
	s := newTestDB(t)

	token, err := NewToken()
	require.NoError(t, err)
	link := &model.ShareLink{Token: token, FilePath: "x", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.ShareLinks.Create(link))
	require.NoError(t, s.ShareLinks.Deactivate(link.ID))

	ok, err := s.ShareLinks.Consume(link.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
