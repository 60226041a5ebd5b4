package authz

import (
	"errors"
	"testing"

	"pyra-drive/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeUsers struct {
	users []model.User
	err   error
}

func (f *fakeUsers) All() ([]model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}

func TestRecipientsFor(t *testing.T) {
	t.Parallel()

	users := &fakeUsers{users: []model.User{
		{Username: "root", Role: model.RoleAdmin},
		{Username: "alice", Role: model.RoleClient, Permissions: model.Grant{AllowedPaths: []string{"clients/acme"}}},
		{Username: "bob", Role: model.RoleClient, Permissions: model.Grant{AllowedPaths: []string{"clients/globex"}}},
		// carol can walk through "clients" but owns nothing under it.
		{Username: "carol", Role: model.RoleEmployee, Permissions: model.Grant{AllowedPaths: []string{"clients/acme/archive/deep"}}},
		{Username: "dave", Role: model.RoleEmployee, Permissions: model.Grant{AllowedPaths: []string{model.PathWildcard}}},
	}}
	fanout := NewFanout(users, zap.NewNop())

	got, err := fanout.RecipientsFor("clients/acme/report.pdf")
	require.NoError(t, err)

	// Admins always; alice owns the subtree; dave has the wildcard. carol is
	// only granted a deeper folder, so this path is reachable for navigation
	// but not disclosed, and she must not be notified.
	assert.ElementsMatch(t, []string{"root", "alice", "dave"}, got)
}

func TestRecipientsForAdminAlwaysIncluded(t *testing.T) {
	t.Parallel()

	users := &fakeUsers{users: []model.User{
		{Username: "root", Role: model.RoleAdmin},
	}}
	fanout := NewFanout(users, zap.NewNop())

	got, err := fanout.RecipientsFor("any/path/at/all")
	require.NoError(t, err)
	assert.Equal(t, []string{"root"}, got)
}

func TestRecipientsForPropagatesStoreFault(t *testing.T) {
	t.Parallel()

	boom := errors.New("store down")
	fanout := NewFanout(&fakeUsers{err: boom}, zap.NewNop())

	got, err := fanout.RecipientsFor("x")
	require.ErrorIs(t, err, boom)
	assert.Nil(t, got)
}
