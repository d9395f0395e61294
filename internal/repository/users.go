package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"weatherhub/server/internal/model"
)

const accountColumns = `id, email, password_hash, role, created_at, authentication_key, last_login`

// CreateAccount inserts a new account. A second account with the same email
// fails with ErrDuplicateEmail.
func (s *Store) CreateAccount(ctx context.Context, account model.Account) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, role, created_at, authentication_key, last_login)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, account.ID.Hex(), account.Email, account.PasswordHash, account.Role, account.CreatedAt, account.AuthenticationKey, account.LastLogin)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", model.ErrDuplicateEmail, account.Email)
		}
		return err
	}
	return nil
}

func (s *Store) GetAccountByID(ctx context.Context, id model.ObjectID) (model.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id.Hex())
	return scanAccount(row)
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (model.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE email = $1`, email)
	return scanAccount(row)
}

// GetAccountByKey resolves an opaque authentication key to its account.
func (s *Store) GetAccountByKey(ctx context.Context, key string) (model.Account, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE authentication_key = $1`, key)
	return scanAccount(row)
}

// UpdateAccount replaces every field of the stored account except the id.
func (s *Store) UpdateAccount(ctx context.Context, account model.Account) error {
	cmd, err := s.pool.Exec(ctx, `
		UPDATE users
		SET email = $2, password_hash = $3, role = $4, created_at = $5, authentication_key = $6, last_login = $7
		WHERE id = $1
	`, account.ID.Hex(), account.Email, account.PasswordHash, account.Role, account.CreatedAt, account.AuthenticationKey, account.LastLogin)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteAccountByID(ctx context.Context, id model.ObjectID) error {
	cmd, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id.Hex())
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// DeleteAccountsByRoleAndLastLogin removes every account holding the role
// whose last login falls inside [start, end]. Returns the number deleted.
func (s *Store) DeleteAccountsByRoleAndLastLogin(ctx context.Context, role string, start, end time.Time) (int64, error) {
	cmd, err := s.pool.Exec(ctx, `
		DELETE FROM users
		WHERE role = $1 AND last_login >= $2 AND last_login <= $3
	`, role, start, end)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// UpdateRoleByCreatedAtRange assigns newRole to every account created inside
// [start, end]. Matched counts the rows in range; modified counts the rows
// whose role actually changed.
func (s *Store) UpdateRoleByCreatedAtRange(ctx context.Context, start, end time.Time, newRole string) (matched, modified int64, err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM users WHERE created_at >= $1 AND created_at <= $2
	`, start, end)
	if err := row.Scan(&matched); err != nil {
		return 0, 0, err
	}

	cmd, err := tx.Exec(ctx, `
		UPDATE users SET role = $3
		WHERE created_at >= $1 AND created_at <= $2 AND role <> $3
	`, start, end, newRole)
	if err != nil {
		return 0, 0, err
	}
	modified = cmd.RowsAffected()

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}
	return matched, modified, nil
}

// ListAccounts returns accounts in insertion order, capped at limit.
func (s *Store) ListAccounts(ctx context.Context, limit int) ([]model.Account, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+accountColumns+` FROM users ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]model.Account, 0, limit)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func scanAccount(row pgx.Row) (model.Account, error) {
	var account model.Account
	var id string
	err := row.Scan(
		&id,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.CreatedAt,
		&account.AuthenticationKey,
		&account.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Account{}, model.ErrNotFound
		}
		return model.Account{}, err
	}
	account.ID, err = model.ParseObjectID(id)
	if err != nil {
		return model.Account{}, err
	}
	return account, nil
}
