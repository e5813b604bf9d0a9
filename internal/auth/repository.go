package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT id, email, password_hash, username, COALESCE(avatar_url,''), role, balance,
		created_at, updated_at FROM users WHERE id = $1`
	var u models.User
	err := r.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Email, &u.Password, &u.Username,
		&u.AvatarURL, &u.Role, &u.Balance, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT id, email, password_hash, username, COALESCE(avatar_url,''), role, balance,
		created_at, updated_at FROM users WHERE email = $1`
	var u models.User
	err := r.pool.QueryRow(ctx, q, email).Scan(&u.ID, &u.Email, &u.Password, &u.Username,
		&u.AvatarURL, &u.Role, &u.Balance, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user and returns it with generated fields populated.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	const q = `INSERT INTO users (id, email, password_hash, username, avatar_url, role, balance)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, q, u.ID, u.Email, u.Password, u.Username, u.AvatarURL, u.Role, u.Balance).
		Scan(&u.CreatedAt, &u.UpdatedAt)
}

// UsernameExists reports whether a username is already taken.
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, q, username).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateAvatar sets a user's avatar URL.
func (r *Repository) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error {
	const q = `UPDATE users SET avatar_url = $2, updated_at = now() WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, avatarURL)
	return err
}
