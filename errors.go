package users

import (
	goerrors "github.com/goliatone/go-errors"
)

// Text codes let transport layers render specific user messages without
// string matching on error text.
const (
	TextCodeNotActivated     = "ACCOUNT_NOT_ACTIVATED"
	TextCodeAccountDisabled  = "ACCOUNT_DISABLED"
	TextCodeNoActivationCode = "NO_ACTIVATION_CODE"
	TextCodeAlreadyActivated = "ALREADY_ACTIVATED"
	TextCodeBlankEmail       = "BLANK_EMAIL"
	TextCodeEmailNotFound    = "EMAIL_NOT_FOUND"
	TextCodeOpenIDUser       = "OPENID_USER"
	TextCodePasswordMismatch = "PASSWORD_MISMATCH"
	TextCodeInvalidResetCode = "INVALID_RESET_CODE"
	TextCodeInvalidCreds     = "INVALID_CREDENTIALS"
	TextCodeTooManyAttempts  = "TOO_MANY_LOGIN_ATTEMPTS"
	TextCodeEmptyPassword    = "EMPTY_PASSWORD"
	TextCodeTokenExpired     = "TOKEN_EXPIRED"
	TextCodeTokenMalformed   = "TOKEN_MALFORMED"
)

// ErrAccountNotActivated is returned when credentials (or a federated
// identity) check out but the account has never been activated.
var ErrAccountNotActivated = goerrors.New("account is not activated", goerrors.CategoryAuth).
	WithTextCode(TextCodeNotActivated).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountDisabled is returned when an activated account has been
// disabled by an administrator.
var ErrAccountDisabled = goerrors.New("account is disabled", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(goerrors.CodeForbidden)

// ErrNoActivationCode is returned when an activation-code lookup is
// attempted with a blank code.
var ErrNoActivationCode = goerrors.New("no activation code provided", goerrors.CategoryBadInput).
	WithTextCode(TextCodeNoActivationCode).
	WithCode(goerrors.CodeBadRequest)

// ErrAlreadyActivated is returned when an activation code resolves to an
// account that has already been activated.
var ErrAlreadyActivated = goerrors.New("account is already activated", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyActivated).
	WithCode(goerrors.CodeConflict)

// ErrBlankEmail is returned when an email-keyed operation receives a
// blank address.
var ErrBlankEmail = goerrors.New("email must not be blank", goerrors.CategoryValidation).
	WithTextCode(TextCodeBlankEmail).
	WithCode(goerrors.CodeBadRequest)

// ErrEmailNotFound is returned when no account matches the given email.
var ErrEmailNotFound = goerrors.New("no account matches that email", goerrors.CategoryNotFound).
	WithTextCode(TextCodeEmailNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrOpenIDUser is returned when a password operation targets a federated
// account, which holds no local credential.
var ErrOpenIDUser = goerrors.New("federated account has no local password", goerrors.CategoryConflict).
	WithTextCode(TextCodeOpenIDUser).
	WithCode(goerrors.CodeConflict)

// ErrPasswordMismatch is returned when a new password and its
// confirmation differ.
var ErrPasswordMismatch = goerrors.New("password confirmation does not match", goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidResetCode is returned when a reset-code lookup receives a
// blank or unknown code.
var ErrInvalidResetCode = goerrors.New("invalid or unknown password reset code", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidResetCode).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword signals a failed credential comparison.
// The Authenticator never surfaces it to callers; a wrong password is a
// nil result, not an error.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned when an account exceeds the
// attempt budget inside the cool-down window.
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrNoEmptyString is returned when a password hash is requested for an
// empty string.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is returned by the session TokenService for expired
// tokens.
var ErrTokenExpired = goerrors.New("session token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned by the session TokenService for tokens
// that fail to parse or validate.
var ErrTokenMalformed = goerrors.New("session token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// IsConflict reports whether err represents a uniqueness violation or
// other conflict surfaced by the Store. Token issuers use it to decide
// whether to retry generation.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category == goerrors.CategoryConflict
	}
	return false
}

// IsNotFound reports whether err represents a missing record.
func IsNotFound(err error) bool {
	return goerrors.IsNotFound(err)
}
