package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// MaxLoginAttempts is the maximum number of attempts an account gets
// in a period
var MaxLoginAttempts = 5

// CoolDownPeriod is the period in which we enforce a cool down
var CoolDownPeriod = "24h"

// Authenticator verifies credentials against a Store and gates on
// activation and enabled state.
type Authenticator struct {
	store        Store
	verifier     CredentialVerifier
	logger       Logger
	activitySink ActivitySink
	clock        func() time.Time
}

// NewAuthenticator returns a new Authenticator.
func NewAuthenticator(store Store, verifier CredentialVerifier) *Authenticator {
	return &Authenticator{
		store:        store,
		verifier:     verifier,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		clock:        time.Now,
	}
}

func (s *Authenticator) WithLogger(logger Logger) *Authenticator {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Authenticator) WithActivitySink(sink ActivitySink) *Authenticator {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithClock injects a custom clock (useful for tests).
func (s *Authenticator) WithClock(clock func() time.Time) *Authenticator {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// Authenticate verifies login and password. A missing account or a
// failed comparison yields (nil, nil): no match is a normal outcome,
// never an error. A matched credential on an unactivated account fails
// with ErrAccountNotActivated; on a disabled account with
// ErrAccountDisabled.
func (s *Authenticator) Authenticate(ctx context.Context, login, password string) (*Account, error) {
	account, err := s.store.FindByLogin(ctx, login)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account during authentication")
	}

	if account.LoginAttemptAt != nil {
		expired, err := IsOutsideThresholdPeriod(*account.LoginAttemptAt, CoolDownPeriod)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to calculate login attempt cooldown")
		}

		if expired {
			account.LoginAttempts = 0
		}
	}

	// if we have too many attempts in the given window, cool off!
	if account.LoginAttempts > MaxLoginAttempts {
		return nil, ErrTooManyLoginAttempts
	}

	if !account.HasLocalCredential() {
		// federated accounts cannot password-authenticate
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, account.ID.String(), map[string]any{
			"login":  login,
			"reason": "no local credential",
		})
		return nil, nil
	}

	if err := s.verifier.Verify(account.PasswordHash, password); err != nil {
		if err2 := s.trackAttemptedLogin(ctx, account); err2 != nil {
			return nil, goerrors.Wrap(err2, goerrors.CategoryInternal, "failed to track login attempt")
		}

		s.emitAuthEvent(ctx, ActivityEventLoginFailure, account.ID.String(), map[string]any{
			"login": login,
		})
		return nil, nil
	}

	if err := s.ensureAccountUsable(account); err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, account.ID.String(), map[string]any{
			"login": login,
			"error": err.Error(),
		})
		return nil, err
	}

	if err := s.trackSuccessfulLogin(ctx, account); err != nil {
		s.logger.Error("failed to track successful login: %v", err)
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, account.ID.String(), map[string]any{
		"login": login,
	})

	return account, nil
}

// AuthenticateByIdentityURL authenticates a federated account. The
// identity URL is itself the credential; only the activation and
// enabled gates apply.
func (s *Authenticator) AuthenticateByIdentityURL(ctx context.Context, identityURL string) (*Account, error) {
	account, err := s.store.FindByIdentityURL(ctx, identityURL)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account by identity URL")
	}

	if err := s.ensureAccountUsable(account); err != nil {
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, account.ID.String(), map[string]any{
			"identity_url": identityURL,
			"error":        err.Error(),
		})
		return nil, err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, account.ID.String(), map[string]any{
		"identity_url": identityURL,
	})

	return account, nil
}

// ChangePassword replaces the stored credential after re-verifying the
// old password. It has no side effects on activation or roles. A wrong
// old password yields (nil, nil), mirroring Authenticate.
func (s *Authenticator) ChangePassword(ctx context.Context, account *Account, oldPassword, newPassword, confirmation string) (*Account, error) {
	if account == nil {
		return nil, goerrors.New("account must not be nil", goerrors.CategoryBadInput)
	}

	if account.IsFederated() {
		return nil, ErrOpenIDUser
	}

	if newPassword != confirmation {
		return nil, ErrPasswordMismatch
	}

	verified, err := s.Authenticate(ctx, account.Login, oldPassword)
	if err != nil {
		return nil, err
	}

	if verified == nil {
		return nil, nil
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	verified.PasswordHash = hash
	if err := s.store.Save(ctx, verified); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist new credential")
	}

	s.emitAuthEvent(ctx, ActivityEventPasswordChanged, verified.ID.String(), map[string]any{
		"login": verified.Login,
	})

	return verified, nil
}

func (s *Authenticator) ensureAccountUsable(account *Account) error {
	if !account.IsActivated() {
		return ErrAccountNotActivated
	}

	if !account.Enabled {
		return ErrAccountDisabled
	}

	return nil
}

func (s *Authenticator) trackAttemptedLogin(ctx context.Context, account *Account) error {
	account.LoginAttempts++
	now := s.clock()
	account.LoginAttemptAt = &now
	return s.store.Save(ctx, account)
}

func (s *Authenticator) trackSuccessfulLogin(ctx context.Context, account *Account) error {
	now := s.clock()
	account.LoggedInAt = &now
	account.LoginAttempts = 0
	account.LoginAttemptAt = nil
	return s.store.Save(ctx, account)
}

func (s *Authenticator) emitAuthEvent(ctx context.Context, eventType ActivityEventType, accountID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     ActorRef{ID: accountID, Type: "account"},
		AccountID: accountID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.clock()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}
