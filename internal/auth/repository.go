package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/abduss/filestore/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

const queryTimeout = 5 * time.Second

const userColumns = `id, email, hashed_password, created_at`

// Repository stores accounts in the users table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository wraps a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateUser inserts an account. The unique index on email turns a second
// registration into ErrEmailAlreadyExists.
func (r *Repository) CreateUser(ctx context.Context, email, hashedPassword string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, hashed_password) VALUES ($1, $2) RETURNING `+userColumns,
		email, hashedPassword)

	user, err := scanUser(row.Scan)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return User{}, ErrEmailAlreadyExists
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// FindUserByEmail returns the account registered under email.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)

	user, err := scanUser(row.Scan)
	if err != nil {
		if storage.IsNoRows(err) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func scanUser(scan func(dest ...any) error) (User, error) {
	var u User
	err := scan(&u.ID, &u.Email, &u.HashedPassword, &u.CreatedAt)
	return u, err
}
