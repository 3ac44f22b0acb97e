package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/directory"
	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/metrics"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/cryptox"
	"github.com/aussiebroadwan/doorman/pkg/idx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
)

// ErrStoreUnavailable is the only error Resolve returns besides context
// errors. Every negative authentication result is a rejected Outcome instead.
var ErrStoreUnavailable = errors.New("store_unavailable")

// LoginService decides login attempts against the local credential store
// and the directory.
type LoginService struct {
	store   store.Store
	dir     directory.Directory
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewLoginService wraps dir in a directory.Bounded with the given timeout.
// A nil dir behaves as directory.Disabled.
func NewLoginService(st store.Store, dir directory.Directory, timeout time.Duration, m *metrics.Metrics) *LoginService {
	if dir == nil {
		dir = directory.Disabled{}
	}
	return &LoginService{
		store:   st,
		dir:     directory.NewBounded(dir, timeout, m),
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Resolve decides a login attempt:
//
//  1. An empty password is rejected before anything else is touched.
//  2. A local account whose password verifies is authenticated and the
//     directory is not consulted.
//  3. Otherwise the directory decides. If no local account existed one is
//     provisioned when the directory authenticated the user, and also when it
//     only confirmed the principal exists; the latter stays rejected.
func (s *LoginService) Resolve(ctx context.Context, attempt domain.LoginAttempt) (out domain.Outcome, err error) {
	start := time.Now()
	defer func() { s.record(out, err, time.Since(start)) }()

	if attempt.Password == "" {
		return domain.Rejected(domain.ReasonEmptyPassword), nil
	}

	username := domain.NormalizeUsername(attempt.Username)
	if username == "" {
		return domain.Rejected(domain.ReasonInvalidCredentials), nil
	}

	ctx = slogx.With(ctx, "username", username)
	log := slogx.FromContext(ctx)

	if err := ctx.Err(); err != nil {
		return domain.Outcome{}, err
	}

	acct, found, err := s.lookup(ctx, username)
	if err != nil {
		return domain.Outcome{}, err
	}

	if found && VerifyAccountPassword(acct, attempt.Password) {
		log.Info("login_authenticated", "source", "local", "account_id", acct.ID)
		return domain.Authenticated(acct), nil
	}

	res := s.dir.Authenticate(ctx, username, attempt.Password)
	if err := ctx.Err(); err != nil {
		return domain.Outcome{}, err
	}

	if !res.OK {
		if !found && res.Exists {
			if _, err := s.provision(ctx, username, res, false); err != nil {
				return domain.Outcome{}, err
			}
		}
		log.Info("login_rejected", "reason", domain.ReasonInvalidCredentials, "local_account", found)
		return domain.Rejected(domain.ReasonInvalidCredentials), nil
	}

	if !found {
		acct, err = s.provision(ctx, username, res, true)
		if err != nil {
			return domain.Outcome{}, err
		}
	}

	log.Info("login_authenticated", "source", "directory", "account_id", acct.ID)
	return domain.Authenticated(acct), nil
}

func (s *LoginService) lookup(ctx context.Context, username string) (domain.Account, bool, error) {
	acct, err := s.store.Accounts().GetAccountByUsername(ctx, username)
	switch {
	case err == nil:
		return acct, true, nil
	case errors.Is(err, store.ErrNotFound):
		return domain.Account{}, false, nil
	default:
		return domain.Account{}, false, s.storeError(ctx, "lookup", err)
	}
}

// provision creates a directory account for username. Losing a race to a
// concurrent insert is not an error: the winner's account is returned.
func (s *LoginService) provision(ctx context.Context, username string, res directory.Result, authenticated bool) (domain.Account, error) {
	now := s.now()
	acct := domain.Account{
		ID:          idx.NewAt(now),
		Username:    username,
		Origin:      domain.OriginDirectory,
		DisplayName: res.DisplayName,
		Email:       res.Email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.Accounts().CreateAccount(ctx, acct)
	switch {
	case err == nil:
		slogx.FromContext(ctx).Info("account_provisioned",
			"account_id", acct.ID,
			"authenticated", authenticated,
		)
		s.metrics.RecordProvisioned(authenticated)
		return acct, nil

	case errors.Is(err, store.ErrAlreadyExists):
		s.metrics.RecordProvisionRace()
		existing, found, err := s.lookup(ctx, username)
		if err != nil {
			return domain.Account{}, err
		}
		if !found {
			return domain.Account{}, s.storeError(ctx, "refetch", store.ErrNotFound)
		}
		return existing, nil

	default:
		return domain.Account{}, s.storeError(ctx, "provision", err)
	}
}

func (s *LoginService) storeError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	slogx.FromContext(ctx).Error("store_unavailable", "op", op, slog.Any("error", err))
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

func (s *LoginService) record(out domain.Outcome, err error, d time.Duration) {
	if err != nil {
		s.metrics.RecordLogin("error", "", d)
		return
	}
	s.metrics.RecordLogin(out.Kind.String(), string(out.Reason), d)
}

// VerifyAccountPassword reports whether password matches the account's local
// hash. Accounts without a hash, and hashes in an unknown format, never match.
func VerifyAccountPassword(a domain.Account, password string) bool {
	if !a.HasPassword() || password == "" {
		return false
	}
	return cryptox.VerifyPassword(password, a.PasswordHash) == nil
}
