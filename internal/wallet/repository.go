package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrInsufficientBalance is returned when a deduction exceeds the user's balance.
var ErrInsufficientBalance = errors.New("insufficient balance")

// Repository handles coin balance persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a wallet repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Balance returns the current coin balance for a user.
func (r *Repository) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	const q = `SELECT balance FROM users WHERE id = $1`
	var balance int64
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}
	return balance, nil
}

// Deduct atomically subtracts amount from the user's balance. The conditional
// UPDATE guarantees the balance never goes negative under concurrent sends.
func (r *Repository) Deduct(ctx context.Context, userID uuid.UUID, amount int64) (int64, error) {
	const q = `UPDATE users SET balance = balance - $2, updated_at = now()
		WHERE id = $1 AND balance >= $2
		RETURNING balance`
	var remaining int64
	err := r.pool.QueryRow(ctx, q, userID, amount).Scan(&remaining)
	if err != nil {
		// No row updated means the balance check failed (or user missing).
		return 0, ErrInsufficientBalance
	}
	return remaining, nil
}

// Credit adds amount to the user's balance.
func (r *Repository) Credit(ctx context.Context, userID uuid.UUID, amount int64) (int64, error) {
	const q = `UPDATE users SET balance = balance + $2, updated_at = now()
		WHERE id = $1
		RETURNING balance`
	var balance int64
	if err := r.pool.QueryRow(ctx, q, userID, amount).Scan(&balance); err != nil {
		return 0, fmt.Errorf("credit balance: %w", err)
	}
	return balance, nil
}
