package users_test

import (
	"context"
	"testing"

	users "github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountContext(t *testing.T) {
	ctx := context.Background()

	_, ok := users.FromContext(ctx)
	assert.False(t, ok)

	account := &users.Account{ID: uuid.New(), Login: "pepe.rone"}
	ctx = users.WithContext(ctx, account)

	got, ok := users.FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, account.ID, got.ID)
}

func TestClaimsContext(t *testing.T) {
	ctx := context.Background()

	_, ok := users.GetClaims(ctx)
	assert.False(t, ok)

	claims := &users.SessionClaims{Login: "pepe.rone", Roles: []string{"editor"}}
	ctx = users.WithClaimsContext(ctx, claims)

	got, ok := users.GetClaims(ctx)
	require.True(t, ok)
	assert.Equal(t, "pepe.rone", got.Login)
	assert.True(t, got.HasRole("editor"))
}
