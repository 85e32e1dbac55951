package users

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// AuthorizationChecker answers role-membership queries. The RoleAdmin
// superuser bypass lives here and nowhere else, so the policy can be
// changed in one place.
type AuthorizationChecker struct {
	roles RoleStore
}

// NewAuthorizationChecker returns a checker backed by the given
// RoleStore.
func NewAuthorizationChecker(roles RoleStore) *AuthorizationChecker {
	return &AuthorizationChecker{roles: roles}
}

// HasRole reports whether the account holds the role. The role set is
// resolved exactly once per call and never cached across calls: a
// revoked role must not satisfy the next authorization decision.
// Accounts holding RoleAdmin satisfy every check.
func (c *AuthorizationChecker) HasRole(ctx context.Context, account *Account, roleName string) (bool, error) {
	if account == nil {
		return false, goerrors.New("account must not be nil", goerrors.CategoryBadInput)
	}

	names, err := c.roles.RolesOf(ctx, account)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve account roles")
	}

	held := make(map[string]struct{}, len(names))
	for _, name := range names {
		held[name] = struct{}{}
	}

	if _, ok := held[RoleAdmin]; ok {
		return true, nil
	}

	_, ok := held[roleName]
	return ok, nil
}

// HasAnyRole reports whether the account holds at least one of the
// given roles. RoleAdmin satisfies the check regardless of the list.
func (c *AuthorizationChecker) HasAnyRole(ctx context.Context, account *Account, roleNames ...string) (bool, error) {
	if account == nil {
		return false, goerrors.New("account must not be nil", goerrors.CategoryBadInput)
	}

	names, err := c.roles.RolesOf(ctx, account)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve account roles")
	}

	held := make(map[string]struct{}, len(names))
	for _, name := range names {
		held[name] = struct{}{}
	}

	if _, ok := held[RoleAdmin]; ok {
		return true, nil
	}

	for _, name := range roleNames {
		if _, ok := held[name]; ok {
			return true, nil
		}
	}

	return false, nil
}

// LoadedRoleStore resolves roles from the account's already-loaded
// Roles relation, for callers that fetched the account with its roles
// in one query.
type LoadedRoleStore struct{}

// RolesOf implements RoleStore.
func (LoadedRoleStore) RolesOf(_ context.Context, account *Account) ([]string, error) {
	return account.RoleNames(), nil
}

var _ RoleStore = LoadedRoleStore{}
