package users

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var ReplaceCredentialSQL = `UPDATE "accounts" AS "acc"
SET
	"password_hash" = ?,
	"password_reset_code" = NULL
WHERE
	"acc"."deleted_at" IS NULL
AND (
	"acc"."id" = ?
) RETURNING *;`

// Accounts is the bun-backed account repository. It satisfies Store and
// RoleStore for the service layer on top of the generic repository
// surface.
type Accounts interface {
	repository.Repository[*Account]

	FindByLogin(ctx context.Context, login string) (*Account, error)
	FindByLoginTx(ctx context.Context, tx bun.IDB, login string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	FindByIdentityURL(ctx context.Context, identityURL string) (*Account, error)
	FindByActivationCode(ctx context.Context, code string) (*Account, error)
	FindByResetCode(ctx context.Context, code string) (*Account, error)

	Register(ctx context.Context, account *Account) (*Account, error)
	RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)
	Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error)

	Save(ctx context.Context, account *Account) error
	SaveTx(ctx context.Context, tx bun.IDB, account *Account) error

	ReplaceCredential(ctx context.Context, id uuid.UUID, passwordHash string) error
	ReplaceCredentialTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error

	RolesOf(ctx context.Context, account *Account) ([]string, error)
}

type accounts struct {
	repository.Repository[*Account]
	db     *bun.DB
	tokens TokenGenerator
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
	_ Store                           = (*accounts)(nil)
	_ RoleStore                       = (*accounts)(nil)
)

type AccountsOption func(*accounts)

// WithAccountsTokenGenerator overrides the generator used for
// activation codes issued at creation time.
func WithAccountsTokenGenerator(tokens TokenGenerator) AccountsOption {
	return func(a *accounts) {
		if tokens != nil {
			a.tokens = tokens
		}
	}
}

func NewAccountsRepository(db *bun.DB, opts ...AccountsOption) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "login"
		},
	})

	repoAccounts := &accounts{
		Repository: repo,
		db:         db,
		tokens:     RandomTokenGenerator{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoAccounts)
		}
	}

	return repoAccounts
}

func (a *accounts) FindByLogin(ctx context.Context, login string) (*Account, error) {
	return a.FindByLoginTx(ctx, a.db, login)
}

func (a *accounts) FindByLoginTx(ctx context.Context, tx bun.IDB, login string) (*Account, error) {
	return a.findOne(ctx, tx, "LOWER(?TableAlias.login) = LOWER(?)", strings.TrimSpace(login))
}

func (a *accounts) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *accounts) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	return a.findOne(ctx, tx, "LOWER(?TableAlias.email) = LOWER(?)", strings.TrimSpace(email))
}

func (a *accounts) FindByIdentityURL(ctx context.Context, identityURL string) (*Account, error) {
	return a.findOne(ctx, a.db, "?TableAlias.identity_url = ?", identityURL)
}

func (a *accounts) FindByActivationCode(ctx context.Context, code string) (*Account, error) {
	return a.findOne(ctx, a.db, "?TableAlias.activation_code = ?", code)
}

func (a *accounts) FindByResetCode(ctx context.Context, code string) (*Account, error) {
	return a.findOne(ctx, a.db, "?TableAlias.password_reset_code = ?", code)
}

func (a *accounts) findOne(ctx context.Context, tx bun.IDB, where string, value string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where(where, value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"criteria": where,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) Register(ctx context.Context, account *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, account)
}

func (a *accounts) RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	return a.CreateTx(ctx, tx, account)
}

func (a *accounts) Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

// CreateTx persists a new account. The activation code is assigned
// before the insert and regenerated while the database reports a
// uniqueness conflict on it, bounded by maxTokenAttempts. Login and
// email conflicts are not retried; they surface as Conflict errors.
func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	prepareAccountDefaults(record)

	var created *Account
	var lastErr error

	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		if record.ActivationCode == "" {
			token, err := a.tokens.MakeToken()
			if err != nil {
				return nil, err
			}
			record.ActivationCode = token
		}

		created, lastErr = a.Repository.CreateTx(ctx, tx, record, criteria...)
		if lastErr == nil {
			return created, nil
		}

		lastErr = wrapUniqueViolation(lastErr)
		if IsConflict(lastErr) && conflictOnActivationCode(lastErr) {
			record.ActivationCode = ""
			continue
		}

		return nil, lastErr
	}

	return nil, lastErr
}

func (a *accounts) Save(ctx context.Context, account *Account) error {
	return a.SaveTx(ctx, a.db, account)
}

func (a *accounts) SaveTx(ctx context.Context, tx bun.IDB, account *Account) error {
	if account == nil || account.ID == uuid.Nil {
		return goerrors.New("cannot save account without an id", goerrors.CategoryBadInput)
	}

	_, err := a.Repository.UpdateTx(ctx, tx, account, repository.UpdateByID(account.ID.String()))
	if err != nil {
		return wrapUniqueViolation(err)
	}

	return nil
}

func (a *accounts) ReplaceCredential(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.ReplaceCredentialTx(ctx, a.db, id, passwordHash)
}

func (a *accounts) ReplaceCredentialTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, ReplaceCredentialSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *accounts) RolesOf(ctx context.Context, account *Account) ([]string, error) {
	if account == nil || account.ID == uuid.Nil {
		return nil, nil
	}

	var roles []*Role
	err := a.db.NewSelect().
		Model(&roles).
		Join(`JOIN account_roles AS acr ON acr.role_id = rol.id`).
		Where("acr.account_id = ?", account.ID).
		Scan(ctx)

	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}

	return names, nil
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	// new accounts start enabled; the admin gate is opt-out
	record.Enabled = true
}

// wrapUniqueViolation promotes driver-level unique constraint failures
// to Conflict errors so callers can decide whether to retry token
// generation.
func wrapUniqueViolation(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint") {
		return goerrors.Wrap(err, goerrors.CategoryConflict, "unique constraint violation")
	}

	return err
}

func conflictOnActivationCode(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "activation_code")
}
