package users

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ActivationManager issues, reissues, and consumes activation codes.
type ActivationManager struct {
	store        Store
	tokens       TokenGenerator
	logger       Logger
	activitySink ActivitySink
	clock        func() time.Time
}

// NewActivationManager returns a new ActivationManager.
func NewActivationManager(store Store, tokens TokenGenerator) *ActivationManager {
	return &ActivationManager{
		store:        store,
		tokens:       tokens,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		clock:        time.Now,
	}
}

func (m *ActivationManager) WithLogger(logger Logger) *ActivationManager {
	if logger != nil {
		m.logger = logger
	}
	return m
}

// WithActivitySink configures an ActivitySink for activation events.
func (m *ActivationManager) WithActivitySink(sink ActivitySink) *ActivationManager {
	m.activitySink = normalizeActivitySink(sink)
	return m
}

// WithClock injects a custom clock (useful for tests).
func (m *ActivationManager) WithClock(clock func() time.Time) *ActivationManager {
	if clock != nil {
		m.clock = clock
	}
	return m
}

// Activate stamps ActivatedAt and persists. The returned flag reports
// whether this call performed the activation: an already-activated
// account is left untouched and reports false, so the operation is
// idempotent and a caller can trigger a welcome notification exactly
// once. The activation code stays in place.
func (m *ActivationManager) Activate(ctx context.Context, account *Account) (bool, error) {
	if account == nil {
		return false, goerrors.New("account must not be nil", goerrors.CategoryBadInput)
	}

	if account.IsActivated() {
		return false, nil
	}

	now := m.clock().UTC()
	account.ActivatedAt = &now

	if err := m.store.Save(ctx, account); err != nil {
		account.ActivatedAt = nil
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist activation")
	}

	m.emitEvent(ctx, ActivityEventAccountActivated, account, nil)

	return true, nil
}

// SendNewActivationCode regenerates the activation code for the account
// registered under email. A blank address fails with ErrBlankEmail, an
// unknown one with ErrEmailNotFound. The returned flag signals that a
// fresh code was issued and a notification should go out.
func (m *ActivationManager) SendNewActivationCode(ctx context.Context, email string) (bool, error) {
	if strings.TrimSpace(email) == "" {
		return false, ErrBlankEmail
	}

	account, err := m.store.FindByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			return false, ErrEmailNotFound
		}
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for code reissue")
	}

	if err := m.IssueActivationCode(ctx, account); err != nil {
		return false, err
	}

	m.emitEvent(ctx, ActivityEventActivationCodeReissued, account, map[string]any{
		"email": account.Email,
	})

	return true, nil
}

// FindByActivationCode resolves an activation code to its account. A
// blank code fails with ErrNoActivationCode; an unknown one yields
// (nil, nil). A code that resolves to an already-activated account
// fails with ErrAlreadyActivated: codes are single-consumption even
// though they are never cleared from the record.
func (m *ActivationManager) FindByActivationCode(ctx context.Context, code string) (*Account, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrNoActivationCode
	}

	account, err := m.store.FindByActivationCode(ctx, code)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account by activation code")
	}

	if account.IsActivated() {
		return nil, ErrAlreadyActivated
	}

	return account, nil
}

// IssueActivationCode generates and persists a fresh activation code,
// retrying generation while the store reports a conflict on the new
// code.
func (m *ActivationManager) IssueActivationCode(ctx context.Context, account *Account) error {
	if account == nil {
		return goerrors.New("account must not be nil", goerrors.CategoryBadInput)
	}

	previous := account.ActivationCode

	err := issueToken(m.tokens, func(token string) error {
		account.ActivationCode = token
		return m.store.Save(ctx, account)
	})

	if err != nil {
		account.ActivationCode = previous
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue activation code")
	}

	return nil
}

func (m *ActivationManager) emitEvent(ctx context.Context, eventType ActivityEventType, account *Account, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      ActorRef{ID: account.ID.String(), Type: "account"},
		AccountID:  account.ID.String(),
		Metadata:   metadata,
		OccurredAt: m.clock(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := normalizeActivitySink(m.activitySink).Record(ctx, event); err != nil {
		m.logger.Warn("activity sink record error: %v", err)
	}
}
