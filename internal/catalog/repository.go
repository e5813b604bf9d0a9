package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

// Repository handles gift catalog persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a catalog repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new gift definition.
func (r *Repository) Create(ctx context.Context, g *models.GiftDefinition) error {
	const q = `INSERT INTO gifts (id, name, price, icon_url, s3_key, category, active)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, g.Name, g.Price, g.IconURL, g.S3Key, g.Category, g.Active).
		Scan(&g.ID, &g.CreatedAt)
}

// GetByID returns a gift definition by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.GiftDefinition, error) {
	const q = `SELECT id, name, price, icon_url, COALESCE(s3_key,''), COALESCE(category,''), active, created_at
		FROM gifts WHERE id = $1`
	var g models.GiftDefinition
	err := r.pool.QueryRow(ctx, q, id).Scan(&g.ID, &g.Name, &g.Price, &g.IconURL, &g.S3Key, &g.Category, &g.Active, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// List returns the full catalog, newest last.
func (r *Repository) List(ctx context.Context) ([]models.GiftDefinition, error) {
	const q = `SELECT id, name, price, icon_url, COALESCE(s3_key,''), COALESCE(category,''), active, created_at
		FROM gifts ORDER BY created_at`
	return r.queryGifts(ctx, q)
}

// ActiveGifts returns active catalog entries.
func (r *Repository) ActiveGifts(ctx context.Context) ([]models.GiftDefinition, error) {
	const q = `SELECT id, name, price, icon_url, COALESCE(s3_key,''), COALESCE(category,''), active, created_at
		FROM gifts WHERE active = TRUE ORDER BY price`
	return r.queryGifts(ctx, q)
}

// SetIcon stores the icon URL and S3 key for a gift definition.
func (r *Repository) SetIcon(ctx context.Context, id uuid.UUID, iconURL, s3Key string) error {
	const q = `UPDATE gifts SET icon_url = $2, s3_key = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, iconURL, s3Key)
	return err
}

// ToggleActive flips active for a gift definition.
func (r *Repository) ToggleActive(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `UPDATE gifts SET active = NOT active WHERE id = $1 RETURNING active`
	var active bool
	if err := r.pool.QueryRow(ctx, q, id).Scan(&active); err != nil {
		return false, err
	}
	return active, nil
}

// Delete removes a gift definition.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM gifts WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id)
	return err
}

func (r *Repository) queryGifts(ctx context.Context, q string) ([]models.GiftDefinition, error) {
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.GiftDefinition
	for rows.Next() {
		var g models.GiftDefinition
		if err := rows.Scan(&g.ID, &g.Name, &g.Price, &g.IconURL, &g.S3Key, &g.Category, &g.Active, &g.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, g)
	}
	return list, rows.Err()
}
