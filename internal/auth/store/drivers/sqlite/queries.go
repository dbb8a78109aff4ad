package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/bearer/internal/auth/domain"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

const userColumns = `id, username, email, full_name, password_hash, disabled, created_at, updated_at`

const getUserByUsername = `SELECT ` + userColumns + ` FROM users WHERE username = ?`

func (q *queries) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByUsername, username))
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *queries) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const createUser = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *queries) CreateUser(ctx context.Context, u domain.User) error {
	_, err := q.db.ExecContext(ctx, createUser,
		u.ID,
		u.Username,
		nullString(u.Email),
		nullString(u.FullName),
		u.PasswordHash,
		u.Disabled,
		u.CreatedAt.UTC(),
		u.UpdatedAt.UTC(),
	)
	return err
}

const setUserDisabled = `UPDATE users SET disabled = ?, updated_at = ? WHERE username = ?`

func (q *queries) SetUserDisabled(ctx context.Context, username string, disabled bool, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, setUserDisabled, disabled, now, username)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const updateUserPasswordHash = `UPDATE users SET password_hash = ?, updated_at = ? WHERE username = ?`

func (q *queries) UpdateUserPasswordHash(ctx context.Context, username, hash string, now time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateUserPasswordHash, hash, now, username)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *queries) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u               domain.User
		email, fullName sql.NullString
	)
	err := row.Scan(
		&u.ID,
		&u.Username,
		&email,
		&fullName,
		&u.PasswordHash,
		&u.Disabled,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}
	u.Email = email.String
	u.FullName = fullName.String
	return u, nil
}
