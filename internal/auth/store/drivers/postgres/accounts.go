package postgres

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/idx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type accountsRepo struct {
	pool *pgxpool.Pool
}

const accountColumns = `id, username, password_hash, origin, display_name, email, created_at, updated_at`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var (
		a          domain.Account
		id, origin string
		hash       *string
	)
	if err := row.Scan(&id, &a.Username, &hash, &origin, &a.DisplayName, &a.Email, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return domain.Account{}, err
	}

	a.ID = idx.ID(id)
	a.PasswordHash = mapNullString(hash)
	a.Origin = domain.Origin(origin)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

func (r *accountsRepo) GetAccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)

	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id idx.ID) (domain.Account, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id.String())

	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

// CreateAccount relies on the UNIQUE constraint: a losing concurrent insert
// affects no rows instead of failing.
func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (username) DO NOTHING`,
		a.ID.String(),
		a.Username,
		mapStringNull(a.PasswordHash),
		string(a.Origin),
		a.DisplayName,
		a.Email,
		a.CreatedAt.UTC(),
		a.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres: insert account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *accountsRepo) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *accountsRepo) CountAccounts(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
