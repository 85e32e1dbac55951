package users

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ActivateAccountMessage struct {
	Code       string `json:"code" example:"gq2tmnbygbqtgzdl" doc:"Activation code from the welcome notification."`
	OnResponse func(resp *ActivateAccountResponse)
}

func (a ActivateAccountMessage) Type() string { return "account.activate" }

type ActivateAccountResponse struct {
	Account          *Account `json:"account,omitempty"`
	Found            bool     `json:"found" example:"true" doc:"Has the code been found?"`
	AlreadyActivated bool     `json:"already_activated" example:"false" doc:"Was the account already active?"`
	JustActivated    bool     `json:"just_activated" example:"true" doc:"Did this call perform the activation?"`
}

type ActivateAccountHandler struct {
	repo       RepositoryManager
	activation *ActivationManager
}

// NewActivateAccountHandler creates a handler with sane defaults.
func NewActivateAccountHandler(repo RepositoryManager) *ActivateAccountHandler {
	return &ActivateAccountHandler{
		repo:       repo,
		activation: NewActivationManager(repo.Accounts(), RandomTokenGenerator{}),
	}
}

// WithActivationManager overrides the manager used to consume codes.
func (h *ActivateAccountHandler) WithActivationManager(m *ActivationManager) *ActivateAccountHandler {
	if m != nil {
		h.activation = m
	}
	return h
}

func (h *ActivateAccountHandler) Execute(ctx context.Context, event ActivateAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during account activation")
	default:
		return h.execute(ctx, event)
	}
}

func (h *ActivateAccountHandler) execute(ctx context.Context, event ActivateAccountMessage) error {
	resp := &ActivateAccountResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		account, err := h.activation.FindByActivationCode(ctx, event.Code)
		if err != nil {
			// a consumed code is part of the expected flow, not an
			// application error
			if errors.Is(err, ErrAlreadyActivated) {
				resp.Found = true
				resp.AlreadyActivated = true
				return nil
			}
			return err
		}

		if account == nil {
			return nil
		}

		resp.Found = true

		justActivated, err := h.activation.Activate(ctx, account)
		if err != nil {
			return err
		}

		resp.Account = account
		resp.JustActivated = justActivated
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to execute account activation")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
