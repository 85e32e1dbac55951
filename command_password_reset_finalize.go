package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type FinalizePasswordResetMessage struct {
	Code     string `json:"code" example:"gq2tmnbygbqtgzdl" doc:"Outstanding password reset code"`
	Password string `json:"password" example:"some_secret_word" doc:"New password"`
}

func (p FinalizePasswordResetMessage) Type() string { return "account.password_reset.finalize" }

type FinalizePasswordResetHandler struct {
	repo     RepositoryManager
	resets   *PasswordResetManager
	activity ActivitySink
	logger   Logger
}

// NewFinalizePasswordResetHandler creates a handler with sane defaults.
func NewFinalizePasswordResetHandler(repo RepositoryManager) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:     repo,
		resets:   NewPasswordResetManager(repo.Accounts(), RandomTokenGenerator{}),
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit password reset events.
func (h *FinalizePasswordResetHandler) WithActivitySink(sink ActivitySink) *FinalizePasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithPasswordResetManager overrides the manager used to resolve codes.
func (h *FinalizePasswordResetHandler) WithPasswordResetManager(m *PasswordResetManager) *FinalizePasswordResetHandler {
	if m != nil {
		h.resets = m
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	account := &Account{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var err error

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err = h.resets.FindByResetCode(ctx, event.Code)
		if err != nil {
			return err
		}

		if account.IsFederated() {
			return ErrOpenIDUser
		}

		passwordHash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
		}

		// one conditional update replaces the credential and clears the
		// reset code, so a concurrent lookup cannot see the code after
		// the password changed
		if err := h.repo.Accounts().ReplaceCredentialTx(ctx, tx, account.ID, passwordHash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to replace account credential")
		}

		account.PasswordHash = passwordHash
		account.PasswordResetCode = ""
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	h.recordActivity(ctx, account)

	return nil
}

func (h *FinalizePasswordResetHandler) recordActivity(ctx context.Context, account *Account) {
	if account == nil || account.ID == uuid.Nil {
		return
	}

	event := ActivityEvent{
		EventType: ActivityEventPasswordResetCompleted,
		Actor: ActorRef{
			ID:   account.ID.String(),
			Type: "account",
		},
		AccountID: account.ID.String(),
		Metadata: map[string]any{
			"login": account.Login,
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during password reset: %v", err)
	}
}
