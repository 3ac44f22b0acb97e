package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/aussiebroadwan/doorman/pkg/idx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
	"github.com/go-playground/validator/v10"
)

var (
	ErrUsernameTaken   = errors.New("username_taken")
	ErrInvalidUsername = errors.New("invalid_username")
	ErrEmptyPassword   = errors.New("empty_password")
)

var validate = validator.New()

// AccountService manages local accounts outside of the login flow.
type AccountService struct {
	Store store.Store
}

// Register creates a local account with an argon2id password hash.
func (s *AccountService) Register(ctx context.Context, username, password string) (domain.Account, error) {
	username = domain.NormalizeUsername(username)
	if err := validateUsername(username); err != nil {
		return domain.Account{}, err
	}
	if password == "" {
		return domain.Account{}, ErrEmptyPassword
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	acct := domain.Account{
		ID:           idx.NewAt(now),
		Username:     username,
		PasswordHash: hash,
		Origin:       domain.OriginLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Accounts().CreateAccount(ctx, acct); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Account{}, ErrUsernameTaken
		}
		return domain.Account{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	slogx.FromContext(ctx).Info("account_registered", "account_id", acct.ID, "username", username)
	return acct, nil
}

// List returns every account ordered by creation.
func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	return s.Store.Accounts().ListAccounts(ctx)
}

// Get fetches an account by id.
func (s *AccountService) Get(ctx context.Context, id idx.ID) (domain.Account, error) {
	return s.Store.Accounts().GetAccountByID(ctx, id)
}

func validateUsername(username string) error {
	if err := validate.Var(username, "required,max=64,printascii"); err != nil {
		return ErrInvalidUsername
	}
	if strings.ContainsFunc(username, unicode.IsSpace) {
		return ErrInvalidUsername
	}
	return nil
}
