package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tasklist/internal/apperror"
	"tasklist/internal/models"
	"tasklist/internal/repository"
)

func newTestAccounts(t *testing.T, store repository.Store, events EventPublisher) *Accounts {
	t.Helper()
	return NewAccounts(AccountsParams{
		Store:        store,
		Hasher:       newTestHasher(),
		Tokens:       newTestTokens(t),
		Events:       events,
		StoreTimeout: time.Second,
	})
}

func TestAccounts_SignupThenSignin(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	events := &recordingPublisher{}
	accounts := newTestAccounts(t, store, events)

	userID, err := accounts.Signup(ctx, "a@x.io", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, userID)
	assert.Equal(t, []string{models.EventUserSignedUp}, events.types())

	user, err := store.FindUserByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.NotContains(t, user.Credential, "pw1")

	token, err := accounts.Signin(ctx, "a@x.io", "pw1")
	require.NoError(t, err)
	sub, err := newTestTokens(t).Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, sub)
}

func TestAccounts_SignupValidation(t *testing.T) {
	accounts := newTestAccounts(t, repository.NewMemory(), nil)
	cases := []struct{ email, password string }{
		{"", "pw"},
		{"a@x.io", ""},
		{"   ", "pw"},
	}
	for _, tc := range cases {
		_, err := accounts.Signup(context.Background(), tc.email, tc.password)
		assert.ErrorIs(t, err, apperror.ErrMissingCredentials)
	}
}

func TestAccounts_SignupDuplicate(t *testing.T) {
	ctx := context.Background()
	accounts := newTestAccounts(t, repository.NewMemory(), nil)

	_, err := accounts.Signup(ctx, "a@x.io", "pw1")
	require.NoError(t, err)
	_, err = accounts.Signup(ctx, "a@x.io", "other")
	assert.ErrorIs(t, err, apperror.ErrUserExists)

	// Emails are compared exactly as stored.
	_, err = accounts.Signup(ctx, "A@x.io", "pw1")
	assert.NoError(t, err)
}

func TestAccounts_ConcurrentSignupSameEmail(t *testing.T) {
	ctx := context.Background()
	accounts := newTestAccounts(t, repository.NewMemory(), nil)

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for j := 0; j < n; j++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := accounts.Signup(ctx, "race@x.io", "pw")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, apperror.ErrUserExists):
				conflicts++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, conflicts)
}

func TestAccounts_SigninFailures(t *testing.T) {
	ctx := context.Background()
	accounts := newTestAccounts(t, repository.NewMemory(), nil)
	_, err := accounts.Signup(ctx, "a@x.io", "pw1")
	require.NoError(t, err)

	_, err = accounts.Signin(ctx, "nobody@x.io", "pw1")
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)

	_, err = accounts.Signin(ctx, "a@x.io", "wrong")
	assert.ErrorIs(t, err, apperror.ErrInvalidPassword)

	_, err = accounts.Signin(ctx, "a@x.io", "")
	assert.ErrorIs(t, err, apperror.ErrMissingCredentials)
}

func TestAccounts_SigninTokenFailureIsInternal(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemory()
	accounts := newTestAccounts(t, store, nil)
	_, err := accounts.Signup(ctx, "a@x.io", "pw1")
	require.NoError(t, err)

	broken := NewAccounts(AccountsParams{Store: store, Hasher: newTestHasher(), Tokens: failingIssuer{}})
	_, err = broken.Signin(ctx, "a@x.io", "pw1")
	require.Error(t, err)
	assert.Equal(t, apperror.KindInternal, apperror.From(err).Kind())
}

func TestAccounts_StoreFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	t.Run("lookup", func(t *testing.T) {
		store := &mockStore{}
		store.On("FindUserByEmail", mock.Anything, "a@x.io").Return(nil, boom)
		accounts := newTestAccounts(t, store, nil)

		_, err := accounts.Signup(ctx, "a@x.io", "pw")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, apperror.KindInternal, apperror.From(err).Kind())

		_, err = accounts.Signin(ctx, "a@x.io", "pw")
		assert.ErrorIs(t, err, boom)
		store.AssertExpectations(t)
	})

	t.Run("duplicate on insert", func(t *testing.T) {
		store := &mockStore{}
		store.On("FindUserByEmail", mock.Anything, "a@x.io").Return(nil, repository.ErrUserNotFound)
		store.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).Return(repository.ErrDuplicateEmail)
		events := &recordingPublisher{}
		accounts := newTestAccounts(t, store, events)

		_, err := accounts.Signup(ctx, "a@x.io", "pw")
		assert.ErrorIs(t, err, apperror.ErrUserExists)
		assert.Empty(t, events.types())
		store.AssertExpectations(t)
	})
}

func TestAccounts_PublishFailureDoesNotFailSignup(t *testing.T) {
	events := &recordingPublisher{err: errors.New("broker down")}
	accounts := newTestAccounts(t, repository.NewMemory(), events)

	userID, err := accounts.Signup(context.Background(), "a@x.io", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, userID)
}
