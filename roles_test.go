package users_test

import (
	"context"
	"errors"
	"testing"

	users "github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasRole(t *testing.T) {
	ctx := context.Background()
	account := &users.Account{ID: uuid.New(), Login: "pepe.rone"}

	t.Run("membership grants the role", func(t *testing.T) {
		roles := &MockRoleStore{}
		roles.On("RolesOf", ctx, account).Return([]string{"editor", "viewer"}, nil).Once()

		checker := users.NewAuthorizationChecker(roles)

		ok, err := checker.HasRole(ctx, account, "editor")
		require.NoError(t, err)
		assert.True(t, ok)
		roles.AssertExpectations(t)
	})

	t.Run("missing role is denied", func(t *testing.T) {
		roles := &MockRoleStore{}
		roles.On("RolesOf", ctx, account).Return([]string{"viewer"}, nil).Once()

		checker := users.NewAuthorizationChecker(roles)

		ok, err := checker.HasRole(ctx, account, "editor")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("admin satisfies any check", func(t *testing.T) {
		roles := &MockRoleStore{}
		roles.On("RolesOf", ctx, account).Return([]string{users.RoleAdmin}, nil).Once()

		checker := users.NewAuthorizationChecker(roles)

		ok, err := checker.HasRole(ctx, account, "editor")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("roles resolve exactly once per decision", func(t *testing.T) {
		roles := &MockRoleStore{}
		roles.On("RolesOf", ctx, account).Return([]string{"editor"}, nil).Twice()

		checker := users.NewAuthorizationChecker(roles)

		_, err := checker.HasRole(ctx, account, "editor")
		require.NoError(t, err)
		_, err = checker.HasRole(ctx, account, "editor")
		require.NoError(t, err)

		roles.AssertExpectations(t)
	})

	t.Run("resolution failure denies", func(t *testing.T) {
		roles := &MockRoleStore{}
		roles.On("RolesOf", ctx, account).Return(nil, errors.New("db down")).Once()

		checker := users.NewAuthorizationChecker(roles)

		ok, err := checker.HasRole(ctx, account, "editor")
		assert.False(t, ok)
		assert.Error(t, err)
	})

	t.Run("nil account is rejected", func(t *testing.T) {
		checker := users.NewAuthorizationChecker(&MockRoleStore{})

		ok, err := checker.HasRole(ctx, nil, "editor")
		assert.False(t, ok)
		assert.Error(t, err)
	})
}

func TestHasAnyRole(t *testing.T) {
	ctx := context.Background()
	account := &users.Account{ID: uuid.New()}

	t.Run("any overlap grants", func(t *testing.T) {
		roles := &MockRoleStore{}
		roles.On("RolesOf", ctx, account).Return([]string{"viewer"}, nil).Once()

		checker := users.NewAuthorizationChecker(roles)

		ok, err := checker.HasAnyRole(ctx, account, "editor", "viewer")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("admin grants even with an empty list", func(t *testing.T) {
		roles := &MockRoleStore{}
		roles.On("RolesOf", ctx, account).Return([]string{users.RoleAdmin}, nil).Once()

		checker := users.NewAuthorizationChecker(roles)

		ok, err := checker.HasAnyRole(ctx, account)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestLoadedRoleStore(t *testing.T) {
	account := &users.Account{
		ID: uuid.New(),
		Roles: []*users.Role{
			{Name: "editor"},
			{Name: "viewer"},
		},
	}

	names, err := users.LoadedRoleStore{}.RolesOf(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, []string{"editor", "viewer"}, names)

	checker := users.NewAuthorizationChecker(users.LoadedRoleStore{})
	ok, err := checker.HasRole(context.Background(), account, "editor")
	require.NoError(t, err)
	assert.True(t, ok)
}
