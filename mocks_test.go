package users_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	users "github.com/goliatone/go-users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockStore implements users.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) FindByLogin(ctx context.Context, login string) (*users.Account, error) {
	args := m.Called(ctx, login)
	account, _ := args.Get(0).(*users.Account)
	return account, args.Error(1)
}

func (m *MockStore) FindByEmail(ctx context.Context, email string) (*users.Account, error) {
	args := m.Called(ctx, email)
	account, _ := args.Get(0).(*users.Account)
	return account, args.Error(1)
}

func (m *MockStore) FindByIdentityURL(ctx context.Context, identityURL string) (*users.Account, error) {
	args := m.Called(ctx, identityURL)
	account, _ := args.Get(0).(*users.Account)
	return account, args.Error(1)
}

func (m *MockStore) FindByActivationCode(ctx context.Context, code string) (*users.Account, error) {
	args := m.Called(ctx, code)
	account, _ := args.Get(0).(*users.Account)
	return account, args.Error(1)
}

func (m *MockStore) FindByResetCode(ctx context.Context, code string) (*users.Account, error) {
	args := m.Called(ctx, code)
	account, _ := args.Get(0).(*users.Account)
	return account, args.Error(1)
}

func (m *MockStore) Save(ctx context.Context, account *users.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockVerifier implements users.CredentialVerifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(hashedCredential, password string) error {
	args := m.Called(hashedCredential, password)
	return args.Error(0)
}

// MockTokenGenerator implements users.TokenGenerator
type MockTokenGenerator struct {
	mock.Mock
}

func (m *MockTokenGenerator) MakeToken() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// MockRoleStore implements users.RoleStore
type MockRoleStore struct {
	mock.Mock
}

func (m *MockRoleStore) RolesOf(ctx context.Context, account *users.Account) ([]string, error) {
	args := m.Called(ctx, account)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

// MockActivitySink implements users.ActivitySink
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event users.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// capturingSink records every event it sees, for tests that only need
// to inspect the stream.
type capturingSink struct {
	mu     sync.Mutex
	events []users.ActivityEvent
}

func (s *capturingSink) Record(_ context.Context, event users.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *capturingSink) Events() []users.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]users.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *capturingSink) EventTypes() []users.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]users.ActivityEventType, 0, len(s.events))
	for _, e := range s.events {
		types = append(types, e.EventType)
	}
	return types
}

// notFoundErr builds the not-found error shape the repositories
// surface, so service tests exercise the same translation paths.
func notFoundErr() error {
	return repository.NewRecordNotFound()
}

// conflictErr mirrors a wrapped unique-constraint violation on the
// given column.
func conflictErr(column string) error {
	return goerrors.Wrap(
		fmt.Errorf("UNIQUE constraint failed: accounts.%s", column),
		goerrors.CategoryConflict,
		"unique constraint violation",
	)
}

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockAccounts mocks the methods the command handlers exercise. The
// embedded interface panics for anything a test forgot to stub.
type MockAccounts struct {
	users.Accounts
	mock.Mock
}

func (m *MockAccounts) RegisterTx(ctx context.Context, tx bun.IDB, account *users.Account) (*users.Account, error) {
	args := m.Called(ctx, tx, account)
	created, _ := args.Get(0).(*users.Account)
	return created, args.Error(1)
}

func (m *MockAccounts) FindByEmail(ctx context.Context, email string) (*users.Account, error) {
	args := m.Called(ctx, email)
	account, _ := args.Get(0).(*users.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*users.Account, error) {
	args := m.Called(ctx, tx, email)
	account, _ := args.Get(0).(*users.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) FindByActivationCode(ctx context.Context, code string) (*users.Account, error) {
	args := m.Called(ctx, code)
	account, _ := args.Get(0).(*users.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) FindByResetCode(ctx context.Context, code string) (*users.Account, error) {
	args := m.Called(ctx, code)
	account, _ := args.Get(0).(*users.Account)
	return account, args.Error(1)
}

func (m *MockAccounts) Save(ctx context.Context, account *users.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccounts) ReplaceCredentialTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	args := m.Called(ctx, tx, id, passwordHash)
	return args.Error(0)
}

// MockRepositoryManager implements users.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	return args.Error(0)
}

func (m *MockRepositoryManager) Accounts() users.Accounts {
	args := m.Called()
	accounts, _ := args.Get(0).(users.Accounts)
	return accounts
}

func (m *MockRepositoryManager) Roles() repository.Repository[*users.Role] {
	args := m.Called()
	roles, _ := args.Get(0).(repository.Repository[*users.Role])
	return roles
}
