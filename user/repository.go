package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals that the user does not exist.
var ErrNotFound = errors.New("user: not found")

// Directory provides read access to identity records.
type Directory interface {
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
}

// PGRepository implements Directory backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed user directory.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetByID retrieves a user by ID.
func (r *PGRepository) GetByID(ctx context.Context, userID string) (User, error) {
	const selectSQL = `
		SELECT id, email, full_name, phone, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	u, err := scanUser(r.pool.QueryRow(ctx, selectSQL, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("user: get by id: %w", err)
	}

	return u, nil
}

// GetByEmail retrieves a user by email address.
func (r *PGRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	const selectSQL = `
		SELECT id, email, full_name, phone, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	u, err := scanUser(r.pool.QueryRow(ctx, selectSQL, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("user: get by email: %w", err)
	}

	return u, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		u     User
		phone *string
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FullName,
		&phone,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}

	u.Phone = phone
	return u, nil
}
