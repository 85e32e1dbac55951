package users

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Store is the persistence boundary the services operate against. Lookups
// on login and email are case-insensitive; absence surfaces as a NotFound
// error, uniqueness violations as a Conflict error. Save is a plain
// read-modify-write persist (last write wins); uniqueness is enforced by
// the store's constraints, never by check-then-write in the services.
type Store interface {
	FindByLogin(ctx context.Context, login string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByIdentityURL(ctx context.Context, identityURL string) (*Account, error)
	FindByActivationCode(ctx context.Context, code string) (*Account, error)
	FindByResetCode(ctx context.Context, code string) (*Account, error)
	Save(ctx context.Context, account *Account) error
}

// CredentialVerifier compares a plaintext password against a stored
// credential. A mismatch is reported as ErrMismatchedHashAndPassword.
type CredentialVerifier interface {
	Verify(hashedCredential, password string) error
}

// TokenGenerator produces unguessable opaque tokens for activation and
// password-reset codes. Uniqueness across the account population is
// enforced by the Store; issuers retry generation on conflict.
type TokenGenerator interface {
	MakeToken() (string, error)
}

// RoleStore resolves the set of role names held by an account.
type RoleStore interface {
	RolesOf(ctx context.Context, account *Account) ([]string, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] USERS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] USERS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] USERS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] USERS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
