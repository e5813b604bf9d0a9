package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

// Repository persists broadcast session rows. Live state lives in memory; the
// table is the historical record.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a sessions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a session row when a broadcast starts.
func (r *Repository) Create(ctx context.Context, s *models.BroadcastSession) error {
	const q = `INSERT INTO sessions (id, user_id, title, source, source_data, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, q, s.ID, s.UserID, s.Title, s.Source, s.SourceData, s.Status, s.StartedAt)
	return err
}

// End marks a session row ended and records the final peak viewer count.
func (r *Repository) End(ctx context.Context, id uuid.UUID, endedAt time.Time, peakViewers int) error {
	const q = `UPDATE sessions SET status = $2, ended_at = $3, peak_viewers = $4 WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, models.SessionEnded, endedAt, peakViewers)
	return err
}

// UpdatePeakViewers raises the stored peak if the new value is higher.
func (r *Repository) UpdatePeakViewers(ctx context.Context, id uuid.UUID, peak int) error {
	const q = `UPDATE sessions SET peak_viewers = GREATEST(peak_viewers, $2) WHERE id = $1`
	_, err := r.pool.Exec(ctx, q, id, peak)
	return err
}

// GetByID returns one session row.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.BroadcastSession, error) {
	const q = `SELECT s.id, s.user_id, u.username, s.title, s.source, COALESCE(s.source_data,''), s.status, s.started_at, s.ended_at, s.peak_viewers
		FROM sessions s JOIN users u ON u.id = s.user_id WHERE s.id = $1`
	var s models.BroadcastSession
	err := r.pool.QueryRow(ctx, q, id).Scan(&s.ID, &s.UserID, &s.Username, &s.Title, &s.Source, &s.SourceData,
		&s.Status, &s.StartedAt, &s.EndedAt, &s.PeakViewers)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListByUser returns a broadcaster's session history, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.BroadcastSession, error) {
	const q = `SELECT s.id, s.user_id, u.username, s.title, s.source, COALESCE(s.source_data,''), s.status, s.started_at, s.ended_at, s.peak_viewers
		FROM sessions s JOIN users u ON u.id = s.user_id WHERE s.user_id = $1 ORDER BY s.started_at DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.BroadcastSession
	for rows.Next() {
		var s models.BroadcastSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.Username, &s.Title, &s.Source, &s.SourceData,
			&s.Status, &s.StartedAt, &s.EndedAt, &s.PeakViewers); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
