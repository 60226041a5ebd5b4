package authz

import (
	"errors"
	"testing"
	"time"

	"pyra-drive/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTeams struct {
	byUser map[string][]model.Team
	err    error
}

func (f *fakeTeams) TeamsFor(username string) ([]model.Team, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byUser[username], nil
}

// fakeOverrides mimics the store contract: expired rows never come back.
type fakeOverrides struct {
	rows []model.PathOverride
	err  error
}

func (f *fakeOverrides) ActiveForTargets(targets []model.OverrideTarget) ([]model.PathOverride, error) {
	if f.err != nil {
		return nil, f.err
	}
	now := time.Now()
	var out []model.PathOverride
	for _, row := range f.rows {
		if row.Expired(now) {
			continue
		}
		for _, t := range targets {
			if row.TargetType == t.Type && row.TargetID == t.ID {
				out = append(out, row)
				break
			}
		}
	}
	return out, nil
}

func newTestEngine(teams *fakeTeams, overrides *fakeOverrides) *Engine {
	if teams == nil {
		teams = &fakeTeams{}
	}
	if overrides == nil {
		overrides = &fakeOverrides{}
	}
	return NewEngine(teams, overrides, zap.NewNop())
}

func clientSnapshot() Snapshot {
	return Snapshot{
		Username:    "alice",
		DisplayName: "Alice",
		Role:        model.RoleClient,
		Grant: model.Grant{
			CapabilitySet: model.CapabilitySet{Download: true},
			AllowedPaths:  []string{"clients/acme"},
		},
	}
}

func TestAdminBypassesEverything(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(nil, nil)
	admin := Snapshot{Username: "root", Role: model.RoleAdmin}

	for _, path := range []string{"", "anything", "deep/nested/path"} {
		assert.True(t, eng.CanReach(admin, path))

		ok, err := eng.CanReachEnhanced(admin, path)
		require.NoError(t, err)
		assert.True(t, ok)

		for _, cap := range model.Capabilities {
			assert.True(t, eng.HasCapability(admin, cap))

			ok, err := eng.HasCapabilityEnhanced(admin, cap, path)
			require.NoError(t, err)
			assert.True(t, ok)
		}
	}
}

func TestCanReachBasic(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(nil, nil)
	snap := clientSnapshot()

	assert.True(t, eng.CanReach(snap, ""))
	assert.True(t, eng.CanReach(snap, "clients"))
	assert.True(t, eng.CanReach(snap, "clients/acme"))
	assert.True(t, eng.CanReach(snap, "clients/acme/report.pdf"))
	assert.False(t, eng.CanReach(snap, "clients/globex"))
	assert.False(t, eng.CanReach(snap, "internal"))
}

func TestCanReachEnhancedViaTeam(t *testing.T) {
	t.Parallel()

	teams := &fakeTeams{byUser: map[string][]model.Team{
		"alice": {{
			ID: "tm_1",
			Permissions: model.Grant{
				AllowedPaths: []string{"shared/design"},
			},
		}},
	}}
	eng := newTestEngine(teams, nil)
	snap := clientSnapshot()

	ok, err := eng.CanReachEnhanced(snap, "shared/design/logo.png")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = eng.CanReachEnhanced(snap, "shared/legal")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanReachEnhancedViaOverride(t *testing.T) {
	t.Parallel()

	overrides := &fakeOverrides{rows: []model.PathOverride{{
		ID:         "fp_1",
		Path:       "internal/reports",
		TargetType: model.TargetUser,
		TargetID:   "alice",
		// No capability flags at all: presence alone grants reachability.
	}}}
	eng := newTestEngine(nil, overrides)
	snap := clientSnapshot()

	ok, err := eng.CanReachEnhanced(snap, "internal/reports/q3.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = eng.CanReachEnhanced(snap, "internal/other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasCapabilityBasicIsGlobal(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(nil, nil)
	snap := clientSnapshot()

	assert.True(t, eng.HasCapability(snap, model.CapDownload))
	assert.False(t, eng.HasCapability(snap, model.CapDelete))
	assert.False(t, eng.HasCapability(snap, model.CapUpload))
}

func TestHasCapabilityEnhancedPrecedence(t *testing.T) {
	t.Parallel()

	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	teams := &fakeTeams{byUser: map[string][]model.Team{
		"alice": {{ID: "tm_1"}}, // delete=false on the team too
	}}

	t.Run("override grants what base and team deny", func(t *testing.T) {
		overrides := &fakeOverrides{rows: []model.PathOverride{{
			Path:        "clients/acme",
			TargetType:  model.TargetUser,
			TargetID:    "alice",
			Permissions: model.CapabilitySet{Delete: true},
			ExpiresAt:   &future,
		}}}
		eng := newTestEngine(teams, overrides)

		ok, err := eng.HasCapabilityEnhanced(clientSnapshot(), model.CapDelete, "clients/acme")
		require.NoError(t, err)
		assert.True(t, ok)

		// A folder override covers everything under it.
		ok, err = eng.HasCapabilityEnhanced(clientSnapshot(), model.CapDelete, "clients/acme/report.pdf")
		require.NoError(t, err)
		assert.True(t, ok)

		// But never a sibling, or a lookalike prefix.
		ok, err = eng.HasCapabilityEnhanced(clientSnapshot(), model.CapDelete, "clients/globex")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = eng.HasCapabilityEnhanced(clientSnapshot(), model.CapDelete, "clients/acme-archive/x.txt")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expired override is treated as absent", func(t *testing.T) {
		overrides := &fakeOverrides{rows: []model.PathOverride{{
			Path:        "clients/acme",
			TargetType:  model.TargetUser,
			TargetID:    "alice",
			Permissions: model.CapabilitySet{Delete: true},
			ExpiresAt:   &past,
		}}}
		eng := newTestEngine(teams, overrides)

		ok, err := eng.HasCapabilityEnhanced(clientSnapshot(), model.CapDelete, "clients/acme")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("team grant suffices without override", func(t *testing.T) {
		teams := &fakeTeams{byUser: map[string][]model.Team{
			"alice": {{
				ID:          "tm_1",
				Permissions: model.Grant{CapabilitySet: model.CapabilitySet{Upload: true}},
			}},
		}}
		eng := newTestEngine(teams, nil)

		ok, err := eng.HasCapabilityEnhanced(clientSnapshot(), model.CapUpload, "anywhere")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("team override target applies", func(t *testing.T) {
		overrides := &fakeOverrides{rows: []model.PathOverride{{
			Path:        "shared/handoff",
			TargetType:  model.TargetTeam,
			TargetID:    "tm_1",
			Permissions: model.CapabilitySet{Edit: true},
		}}}
		eng := newTestEngine(teams, overrides)

		ok, err := eng.HasCapabilityEnhanced(clientSnapshot(), model.CapEdit, "shared/handoff")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestStoreFaultFailsClosed(t *testing.T) {
	t.Parallel()

	boom := errors.New("store unavailable")
	eng := newTestEngine(&fakeTeams{err: boom}, nil)
	snap := clientSnapshot()

	ok, err := eng.CanReachEnhanced(snap, "somewhere/else")
	require.ErrorIs(t, err, boom)
	assert.False(t, ok)

	ok, err = eng.HasCapabilityEnhanced(snap, model.CapDelete, "somewhere/else")
	require.ErrorIs(t, err, boom)
	assert.False(t, ok)
}

func TestEffectivePermissions(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(nil, nil)

	t.Run("falls back to base grant", func(t *testing.T) {
		got := eng.EffectivePermissions(clientSnapshot(), "clients/acme/report.pdf")
		assert.Equal(t, model.CapabilitySet{Download: true}, got)
	})

	t.Run("longest matching folder wins", func(t *testing.T) {
		snap := clientSnapshot()
		snap.Grant.PerFolder = map[string]model.CapabilitySet{
			"clients":      {Download: true},
			"clients/acme": {Download: true, Edit: true},
		}
		got := eng.EffectivePermissions(snap, "clients/acme/report.pdf")
		assert.Equal(t, model.CapabilitySet{Download: true, Edit: true}, got)

		got = eng.EffectivePermissions(snap, "clients/globex/x.txt")
		assert.Equal(t, model.CapabilitySet{Download: true}, got)
	})

	t.Run("admin sees every flag", func(t *testing.T) {
		got := eng.EffectivePermissions(Snapshot{Role: model.RoleAdmin}, "anything")
		assert.Equal(t, model.AllCapabilities(), got)
	})
}

// The end-to-end scenario from the product requirements: a client scoped to
// clients/acme with download only.
func TestClientScenario(t *testing.T) {
	t.Parallel()

	snap := clientSnapshot()
	future := time.Now().Add(48 * time.Hour)

	eng := newTestEngine(nil, nil)
	assert.True(t, eng.CanReach(snap, ""))
	assert.True(t, eng.CanReach(snap, "clients"))
	assert.True(t, eng.HasCapability(snap, model.CapDownload))
	assert.False(t, eng.HasCapability(snap, model.CapDelete))

	withOverride := newTestEngine(nil, &fakeOverrides{rows: []model.PathOverride{{
		Path:        "clients/acme",
		TargetType:  model.TargetUser,
		TargetID:    "alice",
		Permissions: model.CapabilitySet{Delete: true},
		ExpiresAt:   &future,
	}}})
	ok, err := withOverride.HasCapabilityEnhanced(snap, model.CapDelete, "clients/acme/report.pdf")
	require.NoError(t, err)
	assert.True(t, ok)
}
