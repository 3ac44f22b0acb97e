package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/idx"
)

type accountsRepo struct {
	db *sql.DB
}

const accountColumns = `id, username, password_hash, origin, display_name, email, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		a                    domain.Account
		id, origin           string
		hash                 sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &a.Username, &hash, &origin, &a.DisplayName, &a.Email, &createdAt, &updatedAt); err != nil {
		return domain.Account{}, err
	}

	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Account{}, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Account{}, err
	}

	a.ID = idx.ID(id)
	a.PasswordHash = mapNullString(hash)
	a.Origin = domain.Origin(origin)
	return a, nil
}

func (r *accountsRepo) GetAccountByUsername(ctx context.Context, username string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username)

	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id idx.ID) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id.String())

	a, err := scanAccount(row)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}
	return a, nil
}

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (username) DO NOTHING`,
		a.ID.String(),
		a.Username,
		mapStringNull(a.PasswordHash),
		string(a.Origin),
		a.DisplayName,
		a.Email,
		formatTime(a.CreatedAt),
		formatTime(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert account: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: insert account: %w", err)
	}
	if n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *accountsRepo) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

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
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
