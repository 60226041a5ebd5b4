// Package sharelink manages anonymous, time-boxed, access-counted download
// tokens. A link's state is derived from its row on every read; the only
// stored flag is active/inactive.
package sharelink

import (
	"time"

	"pyra-drive/internal/model"

	"go.uber.org/zap"
)

// State is the derived lifecycle state of a link. Every state except
// StateActive is terminal: there is no re-activation, a replacement link
// must be minted.
type State int

const (
	StateActive State = iota
	StateExpired
	StateDeactivated
	StateLimitReached
)

// String returns the user-facing name of the state.
func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateExpired:
		return "expired"
	case StateDeactivated:
		return "deactivated"
	case StateLimitReached:
		return "limit_reached"
	default:
		return "unknown"
	}
}

// Store is the persistence the ledger needs: token lookup and the atomic
// consume described on store.ShareLinks.
type Store interface {
	ByToken(token string) (*model.ShareLink, error)
	Consume(id string) (bool, error)
}

// Ledger resolves and redeems share links.
type Ledger struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewLedger(store Store, log *zap.Logger) *Ledger {
	return &Ledger{store: store, log: log, now: time.Now}
}

// StateOf derives a link's state at the given instant. Deactivation wins
// over expiry so an explicitly killed link reports what happened to it.
func StateOf(link *model.ShareLink, now time.Time) State {
	if !link.Active {
		return StateDeactivated
	}
	if now.After(link.ExpiresAt) {
		return StateExpired
	}
	if link.MaxAccess > 0 && link.AccessCount >= link.MaxAccess {
		return StateLimitReached
	}
	return StateActive
}

// Resolve finds the link for a token. Absence comes back as the store's
// not-found error; callers treat it as a denied request, not a fault.
func (l *Ledger) Resolve(token string) (*model.ShareLink, error) {
	return l.store.ByToken(token)
}

// Consume redeems one access. It returns StateActive on success (with the
// link's count advanced) or the terminal state that blocked redemption. Two
// concurrent redeemers racing a limit cannot both get StateActive: the
// underlying increment is conditional on the limit.
func (l *Ledger) Consume(link *model.ShareLink) (State, error) {
	state := StateOf(link, l.now())
	if state != StateActive {
		return state, nil
	}

	ok, err := l.store.Consume(link.ID)
	if err != nil {
		return state, err
	}
	if !ok {
		// Lost a race against another redeemer or a deactivation.
		if link.MaxAccess > 0 {
			return StateLimitReached, nil
		}
		return StateDeactivated, nil
	}

	link.AccessCount++
	l.log.Info("share link consumed",
		zap.String("id", link.ID),
		zap.Int("access_count", link.AccessCount),
	)
	return StateActive, nil
}
