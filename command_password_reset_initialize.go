package users

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "account.password_reset" }

type InitializePasswordResetResponse struct {
	Account   *Account `json:"account,omitempty"`
	Requested bool     `json:"requested" example:"true" doc:"Was a reset code issued?"`
}

type InitializePasswordResetHandler struct {
	repo   RepositoryManager
	resets *PasswordResetManager
}

// NewInitializePasswordResetHandler creates a handler with sane defaults.
func NewInitializePasswordResetHandler(repo RepositoryManager) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:   repo,
		resets: NewPasswordResetManager(repo.Accounts(), RandomTokenGenerator{}),
	}
}

// WithPasswordResetManager overrides the manager used to issue codes.
func (h *InitializePasswordResetHandler) WithPasswordResetManager(m *PasswordResetManager) *InitializePasswordResetHandler {
	if m != nil {
		h.resets = m
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	resp := &InitializePasswordResetResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		requested, err := h.resets.RequestByEmail(ctx, event.Email)
		if err != nil {
			return err
		}

		if !requested {
			// unknown or ineligible addresses are part of the expected
			// flow; the response stays indistinguishable on purpose
			return nil
		}

		account, err := h.repo.Accounts().FindByEmailTx(ctx, tx, event.Email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to reload account after reset request")
		}

		resp.Account = account
		resp.Requested = true
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initialize password reset")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
