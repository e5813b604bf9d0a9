package auditlog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

// Repository handles moderation audit persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an audit log repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert appends an audit entry.
func (r *Repository) Insert(ctx context.Context, e *models.AuditEntry) error {
	const q = `INSERT INTO audit_log (id, session_id, actor_id, target_id, kind, detail)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, e.SessionID, e.ActorID, e.TargetID, e.Kind, e.Detail).
		Scan(&e.ID, &e.CreatedAt)
}

// ListBySession returns audit entries for a session, newest first.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.AuditEntry, error) {
	const q = `SELECT id, session_id, actor_id, target_id, kind, COALESCE(detail,''), created_at
		FROM audit_log WHERE session_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.ActorID, &e.TargetID, &e.Kind, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
