package auditlog

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
	"github.com/CraftAlchemy/Vidora-sub000/pkg/response"
)

// Handler exposes the moderation audit trail.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an audit log handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListBySession handles GET /sessions/:id/audit (admin only).
func (h *Handler) ListBySession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	entries, err := h.repo.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("list audit entries failed", zap.Error(err), zap.String("session_id", sessionID.String()))
		response.Internal(c, "failed to list audit entries")
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	response.OK(c, entries)
}
