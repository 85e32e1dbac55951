package users

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterAccountMessage struct {
	Login                string `json:"login" example:"pepe.rone" doc:"Unique login handle."`
	Name                 string `json:"name" example:"Pepe Rone" doc:"Display name."`
	Email                string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	Password             string `json:"password" example:"some_secret_word" doc:"Password, local accounts only."`
	PasswordConfirmation string `json:"password_confirmation" example:"some_secret_word" doc:"Password confirmation."`
	IdentityURL          string `json:"identity_url" example:"https://id.example/pepe" doc:"Federated identity URL, no local password."`
	UseHashid            bool
	OnResponse           func(resp *RegisterAccountResponse)
}

func (r RegisterAccountMessage) Type() string { return "account.register" }

// Validate runs the field-format pre-check. Domain rules (uniqueness,
// the credential/identity exclusivity) are enforced later, against the
// store.
func (r RegisterAccountMessage) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Login,
			validation.Required,
			validation.Length(3, 40),
			validation.Match(reLogin).Error(msgLoginBad),
		),
		validation.Field(
			&r.Name,
			validation.Length(0, 100),
			validation.Match(reName).Error(msgNameBad),
		),
		validation.Field(
			&r.Email,
			validation.Required,
			validation.Length(6, 100),
			is.Email,
		),
		validation.Field(
			&r.PasswordConfirmation,
			validation.By(ValidateStringEquals(r.Password)),
		),
		validation.Field(
			&r.IdentityURL,
			is.URL,
		),
	)
}

type RegisterAccountResponse struct {
	Account *Account
	Success bool
}

type RegisterAccountHandler struct {
	repo RepositoryManager
}

// NewRegisterAccountHandler creates a handler with sane defaults.
func NewRegisterAccountHandler(repo RepositoryManager) *RegisterAccountHandler {
	return &RegisterAccountHandler{repo: repo}
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	account := &Account{}
	resp := &RegisterAccountResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	if (event.Password == "") == (event.IdentityURL == "") {
		return goerrors.New("provide either a password or an identity URL, not both", goerrors.CategoryValidation).
			WithTextCode("CREDENTIAL_EXCLUSIVITY")
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if event.Password != "" {
			hash, err := HashPassword(event.Password)
			if err != nil {
				var richErr *goerrors.Error
				if goerrors.As(err, &richErr) {
					return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
				}
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
			}
			account.PasswordHash = hash
		}

		account.Login = event.Login
		account.Name = event.Name
		account.Email = event.Email
		account.IdentityURL = event.IdentityURL
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				account.ID = id
			}
		}

		var err error
		if account, err = h.repo.Accounts().RegisterTx(ctx, tx, account); err != nil {
			if IsConflict(err) {
				return err
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}

		resp.Account = account
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	resp.Success = true
	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
