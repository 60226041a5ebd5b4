// Package authz decides which principal may do what on which path. All
// decision functions take an explicit session snapshot and perform read-only
// store lookups; nothing is cached between calls.
package authz

import (
	"pyra-drive/internal/model"
	"pyra-drive/internal/pathutil"

	"go.uber.org/zap"
)

// Snapshot is the immutable view of a principal captured at login. It is
// passed by value into every check so that mid-session grant edits do not
// leak in; the session layer owns the refresh rules.
type Snapshot struct {
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	Role        string      `json:"role"`
	Grant       model.Grant `json:"permissions"`
}

// IsAdmin reports whether the snapshot carries the admin role. Admins bypass
// every other check.
func (s Snapshot) IsAdmin() bool {
	return s.Role == model.RoleAdmin
}

// TeamSource yields the teams a user belongs to, grants included.
type TeamSource interface {
	TeamsFor(username string) ([]model.Team, error)
}

// OverrideSource yields the active (non-expired) path overrides for a set of
// targets. Expired rows must already be filtered out.
type OverrideSource interface {
	ActiveForTargets(targets []model.OverrideTarget) ([]model.PathOverride, error)
}

// Engine composes the path predicates with the team and override stores.
// A store failure always surfaces as an error so callers can fail closed;
// no decision function ever reports an error as "allowed".
type Engine struct {
	teams     TeamSource
	overrides OverrideSource
	log       *zap.Logger
}

func NewEngine(teams TeamSource, overrides OverrideSource, log *zap.Logger) *Engine {
	return &Engine{teams: teams, overrides: overrides, log: log}
}

// CanReach is the basic navigation check: admins reach everything, everyone
// else reaches paths that their own allowed prefixes make reachable.
func (e *Engine) CanReach(snap Snapshot, path string) bool {
	if snap.IsAdmin() {
		return true
	}
	return pathutil.IsReachable(path, snap.Grant.AllowedPaths)
}

// CanReachEnhanced extends CanReach with team prefixes and path overrides.
// An active override whose path is an ancestor-or-equal of the candidate
// grants reachability on its own, regardless of which capability flags it
// carries.
func (e *Engine) CanReachEnhanced(snap Snapshot, path string) (bool, error) {
	if snap.IsAdmin() {
		return true, nil
	}
	if e.CanReach(snap, path) {
		return true, nil
	}
	if snap.Username == "" {
		return false, nil
	}

	teams, err := e.teams.TeamsFor(snap.Username)
	if err != nil {
		return false, err
	}
	for _, team := range teams {
		if pathutil.IsReachable(path, team.Permissions.AllowedPaths) {
			return true, nil
		}
	}

	overrides, err := e.overrides.ActiveForTargets(e.targetsFor(snap, teams))
	if err != nil {
		return false, err
	}
	for i := range overrides {
		if pathutil.IsDescendantOrEqual(path, []string{overrides[i].Path}) {
			return true, nil
		}
	}
	return false, nil
}

// HasCapability is the basic capability check: a global flag on the base
// grant, not scoped to any path.
func (e *Engine) HasCapability(snap Snapshot, cap model.Capability) bool {
	if snap.IsAdmin() {
		return true
	}
	return snap.Grant.Has(cap)
}

// HasCapabilityEnhanced resolves a capability as a permissive union over the
// four sources, first match wins: admin role, base grant, any team grant,
// then an active override whose path covers this one. An override on a
// folder applies to everything under it. No source can revoke what another
// grants.
func (e *Engine) HasCapabilityEnhanced(snap Snapshot, cap model.Capability, path string) (bool, error) {
	if snap.IsAdmin() {
		return true, nil
	}
	if snap.Grant.Has(cap) {
		return true, nil
	}
	if snap.Username == "" {
		return false, nil
	}

	teams, err := e.teams.TeamsFor(snap.Username)
	if err != nil {
		return false, err
	}
	for _, team := range teams {
		if team.Permissions.Has(cap) {
			return true, nil
		}
	}

	if path != "" {
		overrides, err := e.overrides.ActiveForTargets(e.targetsFor(snap, teams))
		if err != nil {
			return false, err
		}
		for i := range overrides {
			if pathutil.IsDescendantOrEqual(path, []string{overrides[i].Path}) && overrides[i].Permissions.Has(cap) {
				return true, nil
			}
		}
	}
	return false, nil
}

// EffectivePermissions computes the six-flag set shown in the UI for a path.
// It consults only the principal's legacy per-folder map (most specific
// matching folder wins), falling back to the base grant verbatim. Teams and
// overrides deliberately do not participate here; HasCapabilityEnhanced is
// the enforcement path and the two are not guaranteed to agree.
func (e *Engine) EffectivePermissions(snap Snapshot, path string) model.CapabilitySet {
	if snap.IsAdmin() {
		return model.AllCapabilities()
	}

	if len(snap.Grant.PerFolder) > 0 {
		var best *model.CapabilitySet
		bestLen := -1
		for folder, perms := range snap.Grant.PerFolder {
			if pathutil.IsDescendantOrEqual(path, []string{folder}) {
				if n := len(folder); n > bestLen {
					p := perms
					best = &p
					bestLen = n
				}
			}
		}
		if best != nil {
			return *best
		}
	}
	return snap.Grant.CapabilitySet
}

// targetsFor builds the override target list for a principal and their teams.
func (e *Engine) targetsFor(snap Snapshot, teams []model.Team) []model.OverrideTarget {
	targets := make([]model.OverrideTarget, 0, len(teams)+1)
	targets = append(targets, model.OverrideTarget{Type: model.TargetUser, ID: snap.Username})
	for _, team := range teams {
		targets = append(targets, model.OverrideTarget{Type: model.TargetTeam, ID: team.ID})
	}
	return targets
}
