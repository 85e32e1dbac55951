package users_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	users "github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() users.TokenService {
	return users.NewTokenService(
		[]byte("test-signing-key"),
		24,
		"test-issuer",
		jwt.ClaimStrings{"test:audience"},
		testLogger{},
	)
}

func TestTokenServiceGenerateAndValidate(t *testing.T) {
	service := newTestTokenService()

	account := activeAccount()
	token, err := service.Generate(account, []string{"editor"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID.String(), claims.AccountID)
	assert.Equal(t, account.ID.String(), claims.Subject)
	assert.Equal(t, account.Login, claims.Login)
	assert.Equal(t, []string{"editor"}, claims.Roles)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenServiceGenerateNilAccount(t *testing.T) {
	service := newTestTokenService()

	token, err := service.Generate(nil, nil)
	assert.Error(t, err)
	assert.Empty(t, token)
}

func TestTokenServiceValidateRejectsWrongKey(t *testing.T) {
	service := newTestTokenService()
	other := users.NewTokenService([]byte("other-key"), 24, "test-issuer", jwt.ClaimStrings{"test:audience"}, testLogger{})

	token, err := other.Generate(activeAccount(), nil)
	require.NoError(t, err)

	claims, err := service.Validate(token)
	assert.Nil(t, claims)
	assertMalformedToken(t, err)
}

func TestTokenServiceValidateRejectsExpired(t *testing.T) {
	service := newTestTokenService()

	expired := &users.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Subject:   uuid.NewString(),
			Audience:  jwt.ClaimStrings{"test:audience"},
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}

	token, err := service.SignClaims(expired)
	require.NoError(t, err)

	claims, err := service.Validate(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, users.ErrTokenExpired)
}

func TestTokenServiceValidateRejectsWrongIssuer(t *testing.T) {
	service := newTestTokenService()
	other := users.NewTokenService([]byte("test-signing-key"), 24, "other-issuer", jwt.ClaimStrings{"test:audience"}, testLogger{})

	token, err := other.Generate(activeAccount(), nil)
	require.NoError(t, err)

	claims, err := service.Validate(token)
	assert.Nil(t, claims)
	assertMalformedToken(t, err)
}

func assertMalformedToken(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, users.TextCodeTokenMalformed, rich.TextCode)
}

func TestSessionClaimsHasRole(t *testing.T) {
	claims := &users.SessionClaims{Roles: []string{"editor"}}
	assert.True(t, claims.HasRole("editor"))
	assert.False(t, claims.HasRole("viewer"))

	admin := &users.SessionClaims{Roles: []string{users.RoleAdmin}}
	assert.True(t, admin.HasRole("anything"))
}
