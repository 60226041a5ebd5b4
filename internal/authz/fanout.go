package authz

import (
	"pyra-drive/internal/model"
	"pyra-drive/internal/pathutil"

	"go.uber.org/zap"
)

// UserSource yields all principals, base grants included.
type UserSource interface {
	All() ([]model.User, error)
}

// Fanout computes who should hear about an event on a path.
type Fanout struct {
	users UserSource
	log   *zap.Logger
}

func NewFanout(users UserSource, log *zap.Logger) *Fanout {
	return &Fanout{users: users, log: log}
}

// RecipientsFor returns the usernames to notify for an event on path: every
// admin unconditionally, and each non-admin whose base grant discloses the
// path. Disclosure, not reachability: someone who can only walk through a
// folder on the way to their own subtree is not told what happens inside it.
// Excluding the acting principal is the caller's job.
func (f *Fanout) RecipientsFor(path string) ([]string, error) {
	users, err := f.users.All()
	if err != nil {
		return nil, err
	}

	recipients := make([]string, 0, len(users))
	for i := range users {
		u := &users[i]
		if u.Role == model.RoleAdmin {
			recipients = append(recipients, u.Username)
			continue
		}
		if pathutil.IsDescendantOrEqual(path, u.Permissions.AllowedPaths) {
			recipients = append(recipients, u.Username)
		}
	}
	return recipients, nil
}
