package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"tasklist/internal/apperror"
	"tasklist/internal/auth"
	"tasklist/internal/models"
	"tasklist/internal/repository"
	"tasklist/pkg/logger"
)

// AccountsParams groups the dependencies of Accounts. Events may be nil.
type AccountsParams struct {
	Store        repository.Store
	Hasher       auth.PasswordHasher
	Tokens       TokenIssuer
	Events       EventPublisher
	StoreTimeout time.Duration
}

// Accounts handles signup and signin.
type Accounts struct {
	store   repository.Store
	hasher  auth.PasswordHasher
	tokens  TokenIssuer
	events  EventPublisher
	timeout time.Duration
}

func NewAccounts(p AccountsParams) *Accounts {
	return &Accounts{
		store:   p.Store,
		hasher:  p.Hasher,
		tokens:  p.Tokens,
		events:  p.Events,
		timeout: p.StoreTimeout,
	}
}

// Signup registers email with a freshly salted credential and returns the new user id.
// Email is stored exactly as given.
func (a *Accounts) Signup(ctx context.Context, email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", apperror.ErrMissingCredentials
	}

	existing, err := a.findUser(ctx, email)
	switch {
	case err == nil && existing != nil:
		return "", apperror.ErrUserExists
	case err != nil && !errors.Is(err, repository.ErrUserNotFound):
		return "", errors.Wrap(err, "lookup user")
	}

	credential, err := a.hasher.Hash(ctx, password)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:         uuid.New().String(),
		Email:      email,
		Credential: credential,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	storeCtx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()
	if err := a.store.CreateUser(storeCtx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return "", apperror.ErrUserExists.WithCause(err)
		}
		return "", errors.Wrap(err, "create user")
	}

	logger.Info(ctx, "User signed up", "user_id", user.ID)
	publish(ctx, a.events, models.Event{Type: models.EventUserSignedUp, UserID: user.ID})
	return user.ID, nil
}

// Signin verifies the password against the stored credential and returns a bearer token.
func (a *Accounts) Signin(ctx context.Context, email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", apperror.ErrMissingCredentials
	}

	user, err := a.findUser(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", apperror.ErrUserNotFound
		}
		return "", errors.Wrap(err, "lookup user")
	}

	ok, err := a.hasher.Verify(ctx, password, user.Credential)
	if err != nil {
		return "", errors.Wrap(err, "verify password")
	}
	if !ok {
		logger.Debug(ctx, "Signin rejected", "user_id", user.ID)
		return "", apperror.ErrInvalidPassword
	}

	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		return "", errors.Wrap(err, "issue token")
	}
	return token, nil
}

func (a *Accounts) findUser(ctx context.Context, email string) (*models.User, error) {
	storeCtx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()
	return a.store.FindUserByEmail(storeCtx, email)
}
