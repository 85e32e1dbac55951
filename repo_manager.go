package users

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Accounts() Accounts
	Roles() repository.Repository[*Role]
}

func NewRolesRepository(db *bun.DB) repository.Repository[*Role] {
	handlers := repository.ModelHandlers[*Role]{
		NewRecord: func() *Role {
			return &Role{}
		},
		GetID: func(record *Role) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Role, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "name"
		},
	}
	return repository.NewRepository(db, handlers)
}

type mngr struct {
	db       *bun.DB
	accounts Accounts
	roles    repository.Repository[*Role]
}

func NewRepositoryManager(db *bun.DB, opts ...AccountsOption) RepositoryManager {
	// the join model must be known to bun before the m2m relation is used
	db.RegisterModel((*AccountRole)(nil))

	return &mngr{
		db:       db,
		accounts: NewAccountsRepository(db, opts...),
		roles:    NewRolesRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.accounts == nil {
		return errors.New("repository accounts should be initialized")
	}

	if m.roles == nil {
		return errors.New("repository roles should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Accounts() Accounts {
	return m.accounts
}

func (m mngr) Roles() repository.Repository[*Role] {
	return m.roles
}
