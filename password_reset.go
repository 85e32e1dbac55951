package users

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// PasswordResetManager issues and consumes password-reset codes.
type PasswordResetManager struct {
	store        Store
	tokens       TokenGenerator
	logger       Logger
	activitySink ActivitySink
	clock        func() time.Time
}

// NewPasswordResetManager returns a new PasswordResetManager.
func NewPasswordResetManager(store Store, tokens TokenGenerator) *PasswordResetManager {
	return &PasswordResetManager{
		store:        store,
		tokens:       tokens,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		clock:        time.Now,
	}
}

func (m *PasswordResetManager) WithLogger(logger Logger) *PasswordResetManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithActivitySink configures an ActivitySink for reset events.
func (m *PasswordResetManager) WithActivitySink(sink ActivitySink) *PasswordResetManager {
	m.activitySink = normalizeActivitySink(sink)
	return m
}

// WithClock injects a custom clock (useful for tests).
func (m *PasswordResetManager) WithClock(clock func() time.Time) *PasswordResetManager {
	if clock != nil {
		m.clock = clock
	}
	return m
}

// ForgotPassword issues a reset code for the account. Accounts that are
// not yet activated, or that hold no local credential (federated), are
// a no-op: there is no password to reset. The returned flag reports
// whether a code was issued and a notification should go out.
func (m *PasswordResetManager) ForgotPassword(ctx context.Context, account *Account) (bool, error) {
	if account == nil {
		return false, goerrors.New("account must not be nil", goerrors.CategoryBadInput)
	}

	if !account.IsActivated() || !account.HasLocalCredential() {
		return false, nil
	}

	previous := account.PasswordResetCode

	err := issueToken(m.tokens, func(token string) error {
		account.PasswordResetCode = token
		return m.store.Save(ctx, account)
	})

	if err != nil {
		account.PasswordResetCode = previous
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue password reset code")
	}

	m.emitEvent(ctx, ActivityEventPasswordResetRequested, account)

	return true, nil
}

// RequestByEmail looks up an activated account by email and issues a
// reset code for it. Blank addresses, unknown addresses, and accounts
// that cannot reset (federated, unactivated) all report (false, nil):
// the caller reveals nothing about which addresses exist.
func (m *PasswordResetManager) RequestByEmail(ctx context.Context, email string) (bool, error) {
	if strings.TrimSpace(email) == "" {
		return false, nil
	}

	account, err := m.store.FindByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for password reset")
	}

	return m.ForgotPassword(ctx, account)
}

// FindByResetCode resolves an outstanding reset code to its account.
// Blank and unknown codes both fail with ErrInvalidResetCode.
func (m *PasswordResetManager) FindByResetCode(ctx context.Context, code string) (*Account, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrInvalidResetCode
	}

	account, err := m.store.FindByResetCode(ctx, code)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrInvalidResetCode
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account by reset code")
	}

	return account, nil
}

// ResetPassword consumes the outstanding reset code. The code is
// cleared and persisted before the completion signal is returned so a
// concurrent re-read of the record cannot observe the still-set code
// and trigger a duplicate notification.
func (m *PasswordResetManager) ResetPassword(ctx context.Context, account *Account) (bool, error) {
	if account == nil {
		return false, goerrors.New("account must not be nil", goerrors.CategoryBadInput)
	}

	previous := account.PasswordResetCode
	account.PasswordResetCode = ""

	if err := m.store.Save(ctx, account); err != nil {
		account.PasswordResetCode = previous
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear password reset code")
	}

	m.emitEvent(ctx, ActivityEventPasswordResetCompleted, account)

	return true, nil
}

func (m *PasswordResetManager) emitEvent(ctx context.Context, eventType ActivityEventType, account *Account) {
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      ActorRef{ID: account.ID.String(), Type: "account"},
		AccountID:  account.ID.String(),
		Metadata:   map[string]any{"login": account.Login},
		OccurredAt: m.clock(),
	}

	if err := normalizeActivitySink(m.activitySink).Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}
