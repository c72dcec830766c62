// Package user implements the user repository using PostgreSQL.
package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/questforge/questforge/internal/adapter/postgres"
	"github.com/questforge/questforge/internal/domain"
)

// Repo provides user persistence backed by PostgreSQL.
type Repo struct {
	pool postgres.Pool
}

// New creates a new user repository.
func New(pool postgres.Pool) *Repo {
	return &Repo{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, blocked, plan, created_at, updated_at`

const insertUserSQL = `
INSERT INTO users (id, name, email, password_hash, role, plan)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at, updated_at`

const getByIDSQL = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

const getByEmailSQL = `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

const updateProfileSQL = `
UPDATE users SET name = $2, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns

const updatePasswordSQL = `
UPDATE users SET password_hash = $2, updated_at = now()
WHERE id = $1`

// Create inserts a user. Email uniqueness is enforced by the database;
// a duplicate surfaces as domain.ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	err := q.QueryRow(ctx, insertUserSQL,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role.String(), u.Plan).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "user", u.Email)
	}
	return u, nil
}

// GetByID returns a user by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	u, err := scanUser(q.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return nil, postgres.MapError(err, "user", id)
	}
	return u, nil
}

// GetByEmail returns a user by email, case-insensitively.
func (r *Repo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	u, err := scanUser(q.QueryRow(ctx, getByEmailSQL, email))
	if err != nil {
		return nil, postgres.MapError(err, "user", email)
	}
	return u, nil
}

// UpdateProfile overwrites the user's profile fields.
func (r *Repo) UpdateProfile(ctx context.Context, id uuid.UUID, name string) (*domain.User, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	u, err := scanUser(q.QueryRow(ctx, updateProfileSQL, id, name))
	if err != nil {
		return nil, postgres.MapError(err, "user", id)
	}
	return u, nil
}

// UpdatePassword replaces the stored password hash.
func (r *Repo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, updatePasswordSQL, id, passwordHash)
	if err != nil {
		return postgres.MapError(err, "user", id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func scanUser(row interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role,
		&u.Blocked, &u.Plan, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = domain.UserRole(role)
	return &u, nil
}
