package users_test

import (
	"context"
	"testing"
	"time"

	users "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestActivateAccountHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("activates a pending account", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		accounts := &MockAccounts{}
		account := pendingAccount()

		repo.On("Accounts").Return(accounts)
		accounts.On("FindByActivationCode", mock.Anything, account.ActivationCode).
			Return(account, nil).Once()
		accounts.On("Save", mock.Anything, account).Return(nil).Once()
		expectRunInTx(repo, t)

		var resp *users.ActivateAccountResponse
		handler := users.NewActivateAccountHandler(repo)

		err := handler.Execute(ctx, users.ActivateAccountMessage{
			Code:       account.ActivationCode,
			OnResponse: func(r *users.ActivateAccountResponse) { resp = r },
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.True(t, resp.Found)
		assert.True(t, resp.JustActivated)
		assert.False(t, resp.AlreadyActivated)
		require.NotNil(t, resp.Account)
		assert.True(t, resp.Account.IsActivated())
		assert.Equal(t, account.ActivationCode, resp.Account.ActivationCode)

		accounts.AssertExpectations(t)
	})

	t.Run("consumed code reports already activated, not an error", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		accounts := &MockAccounts{}
		account := pendingAccount()
		activated := time.Now()
		account.ActivatedAt = &activated

		repo.On("Accounts").Return(accounts)
		accounts.On("FindByActivationCode", mock.Anything, account.ActivationCode).
			Return(account, nil).Once()
		expectRunInTx(repo, t)

		var resp *users.ActivateAccountResponse
		handler := users.NewActivateAccountHandler(repo)

		err := handler.Execute(ctx, users.ActivateAccountMessage{
			Code:       account.ActivationCode,
			OnResponse: func(r *users.ActivateAccountResponse) { resp = r },
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.True(t, resp.Found)
		assert.True(t, resp.AlreadyActivated)
		assert.False(t, resp.JustActivated)
		accounts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("unknown code reports not found", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		accounts := &MockAccounts{}

		repo.On("Accounts").Return(accounts)
		accounts.On("FindByActivationCode", mock.Anything, "nope").
			Return(nil, notFoundErr()).Once()
		expectRunInTx(repo, t)

		var resp *users.ActivateAccountResponse
		handler := users.NewActivateAccountHandler(repo)

		err := handler.Execute(ctx, users.ActivateAccountMessage{
			Code:       "nope",
			OnResponse: func(r *users.ActivateAccountResponse) { resp = r },
		})
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.False(t, resp.Found)
		assert.Nil(t, resp.Account)
	})

	t.Run("blank code is an error", func(t *testing.T) {
		repo := &MockRepositoryManager{}
		accounts := &MockAccounts{}

		repo.On("Accounts").Return(accounts)
		repo.On("RunInTx", mock.Anything, mock.Anything, mock.Anything).
			Return(users.ErrNoActivationCode).
			Run(func(args mock.Arguments) {
				fn := args.Get(2).(func(context.Context, bun.Tx) error)
				var tx bun.Tx
				require.Error(t, fn(args.Get(0).(context.Context), tx))
			}).Once()

		handler := users.NewActivateAccountHandler(repo)

		err := handler.Execute(ctx, users.ActivateAccountMessage{Code: "  "})
		assert.ErrorIs(t, err, users.ErrNoActivationCode)
	})
}
