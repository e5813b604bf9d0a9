package sessions

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CraftAlchemy/Vidora-sub000/internal/catalog"
	"github.com/CraftAlchemy/Vidora-sub000/internal/live"
	"github.com/CraftAlchemy/Vidora-sub000/internal/middleware"
	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
	"github.com/CraftAlchemy/Vidora-sub000/internal/wallet"
	"github.com/CraftAlchemy/Vidora-sub000/pkg/response"
)

// StartSessionRequest is the body for POST /sessions.
type StartSessionRequest struct {
	Title      string `json:"title" binding:"required"`
	Source     string `json:"source" binding:"required,oneof=camera file url"`
	SourceData string `json:"source_data"`
}

// LaunchPollRequest is the body for POST /sessions/:id/polls.
type LaunchPollRequest struct {
	Question string   `json:"question" binding:"required"`
	Options  []string `json:"options" binding:"required,min=2,max=6"`
}

// VoteRequest is the body for POST /sessions/:id/polls/vote.
type VoteRequest struct {
	OptionID string `json:"option_id" binding:"required"`
}

// PinRequest is the body for POST /sessions/:id/pin. Empty text clears the pin.
type PinRequest struct {
	Text string `json:"text"`
}

// ModerateRequest is the body for mute/unmute/ban endpoints.
type ModerateRequest struct {
	TargetID uuid.UUID `json:"target_id" binding:"required"`
}

// SendGiftRequest is the body for POST /sessions/:id/gifts.
type SendGiftRequest struct {
	GiftID uuid.UUID `json:"gift_id" binding:"required"`
}

// Handler handles broadcast session HTTP endpoints.
type Handler struct {
	manager *live.Manager
	repo    *Repository
	wallet  *wallet.Repository
	catalog *catalog.Repository
	logger  *zap.Logger
}

// NewHandler creates a sessions handler.
func NewHandler(manager *live.Manager, repo *Repository, walletRepo *wallet.Repository, catalogRepo *catalog.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{manager: manager, repo: repo, wallet: walletRepo, catalog: catalogRepo, logger: logger}
}

func callerViewer(c *gin.Context) models.Viewer {
	return models.Viewer{
		ID:       c.MustGet(middleware.ContextUserID).(uuid.UUID),
		Username: c.GetString(middleware.ContextUsername),
	}
}

// session resolves the :id param to a live session, writing the error
// response itself when resolution fails.
func (h *Handler) session(c *gin.Context) (*live.Session, bool) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return nil, false
	}
	s, ok := h.manager.Get(sessionID)
	if !ok {
		response.NotFound(c, "session not found or already ended")
		return nil, false
	}
	return s, true
}

// requireHost checks the caller owns the session or is an admin.
func (h *Handler) requireHost(c *gin.Context, s *live.Session) bool {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role := c.GetString(middleware.ContextUserRole)
	if s.Model().UserID == userID || role == string(models.RoleAdmin) {
		return true
	}
	response.Forbidden(c, "only the host can do that")
	return false
}

// Start handles POST /sessions (broadcaster or admin).
func (h *Handler) Start(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	user := models.User{
		ID:       c.MustGet(middleware.ContextUserID).(uuid.UUID),
		Username: c.GetString(middleware.ContextUsername),
	}

	session, err := h.manager.Start(c.Request.Context(), user, req.Title, models.SourceKind(req.Source), req.SourceData)
	switch {
	case errors.Is(err, live.ErrInvalidSource):
		response.BadRequest(c, "url source requires source_data")
		return
	case errors.Is(err, live.ErrPermissionDenied):
		response.ServiceUnavailable(c, "camera unavailable: "+err.Error())
		return
	case err != nil:
		h.logger.Error("start session failed", zap.Error(err), zap.String("user_id", user.ID.String()))
		response.Internal(c, "failed to start session")
		return
	}

	model := session.Model()
	if err := h.repo.Create(c.Request.Context(), &model); err != nil {
		h.logger.Error("persist session failed", zap.Error(err), zap.String("session_id", model.ID.String()))
	}
	response.Created(c, model)
}

// End handles DELETE /sessions/:id (host or admin).
func (h *Handler) End(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if !h.requireHost(c, s) {
		return
	}
	final, err := h.manager.End(s.ID())
	if errors.Is(err, live.ErrSessionNotFound) {
		response.NotFound(c, "session not found or already ended")
		return
	}
	if err != nil {
		h.logger.Error("end session failed", zap.Error(err))
		response.Internal(c, "failed to end session")
		return
	}
	response.OK(c, final)
}

// Live handles GET /sessions/live.
func (h *Handler) Live(c *gin.Context) {
	list := h.manager.Live()
	if list == nil {
		list = []models.BroadcastSession{}
	}
	response.OK(c, list)
}

// History handles GET /sessions/history. Returns the caller's past sessions.
func (h *Handler) History(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list session history failed", zap.Error(err))
		response.Internal(c, "failed to list sessions")
		return
	}
	if list == nil {
		list = []models.BroadcastSession{}
	}
	response.OK(c, list)
}

// Get handles GET /sessions/:id.
func (h *Handler) Get(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	if s, ok := h.manager.Get(sessionID); ok {
		model := s.Model()
		response.OK(c, gin.H{
			"session":        model,
			"audience_count": s.AudienceCount(),
			"pinned_message": s.Pinned(),
		})
		return
	}
	// Fall back to the historical record for ended sessions.
	model, err := h.repo.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		response.NotFound(c, "session not found")
		return
	}
	response.OK(c, gin.H{"session": model})
}

// Transcript handles GET /sessions/:id/transcript.
func (h *Handler) Transcript(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	msgs := s.Transcript()
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	response.OK(c, msgs)
}

// TopGifters handles GET /sessions/:id/top-gifters.
func (h *Handler) TopGifters(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	top := s.TopGifters(0)
	if top == nil {
		top = []models.TopGifter{}
	}
	response.OK(c, top)
}

// Poll handles GET /sessions/:id/poll.
func (h *Handler) Poll(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	response.OK(c, s.Poll())
}

// LaunchPoll handles POST /sessions/:id/polls (host only).
func (h *Handler) LaunchPoll(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if !h.requireHost(c, s) {
		return
	}
	var req LaunchPollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	snapshot, err := s.LaunchPoll(req.Question, req.Options)
	if errors.Is(err, live.ErrPollAlreadyActive) {
		response.Conflict(c, "a poll is already running")
		return
	}
	if err != nil {
		response.Internal(c, "failed to launch poll")
		return
	}
	response.Created(c, snapshot)
}

// EndPoll handles POST /sessions/:id/polls/end (host only).
func (h *Handler) EndPoll(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if !h.requireHost(c, s) {
		return
	}
	response.OK(c, s.EndPoll())
}

// Vote handles POST /sessions/:id/polls/vote. Votes on inactive polls or
// unknown options are dropped without error; the response is 204 either way
// so this endpoint reveals nothing about poll state.
func (h *Handler) Vote(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s.VotePoll(req.OptionID)
	response.NoContent(c)
}

// Pin handles POST /sessions/:id/pin (host only). Empty text clears the pin.
func (h *Handler) Pin(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if !h.requireHost(c, s) {
		return
	}
	var req PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	s.Pin(actorID, req.Text)
	response.OK(c, gin.H{"pinned_message": s.Pinned()})
}

// Mute handles POST /sessions/:id/mute (host only).
func (h *Handler) Mute(c *gin.Context) {
	h.moderate(c, func(s *live.Session, actorID, targetID uuid.UUID) {
		s.Mute(actorID, targetID)
	})
}

// Unmute handles POST /sessions/:id/unmute (host only).
func (h *Handler) Unmute(c *gin.Context) {
	h.moderate(c, func(s *live.Session, actorID, targetID uuid.UUID) {
		s.Unmute(actorID, targetID)
	})
}

// Ban handles POST /sessions/:id/ban (host only).
func (h *Handler) Ban(c *gin.Context) {
	h.moderate(c, func(s *live.Session, actorID, targetID uuid.UUID) {
		s.Ban(actorID, targetID)
	})
}

func (h *Handler) moderate(c *gin.Context, apply func(s *live.Session, actorID, targetID uuid.UUID)) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if !h.requireHost(c, s) {
		return
	}
	var req ModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	actorID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	apply(s, actorID, req.TargetID)
	response.NoContent(c)
}

// Chat handles POST /sessions/:id/chat. Messages from muted or banned
// senders are accepted and silently dropped.
func (h *Handler) Chat(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req struct {
		Text     string `json:"text" binding:"required,max=500"`
		ImageURL string `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	msg, delivered := s.PostChat(callerViewer(c), req.Text, req.ImageURL)
	response.OK(c, gin.H{"message": msg, "delivered": delivered})
}

// SendGift handles POST /sessions/:id/gifts. Deducts the gift price from the
// sender's wallet before the gift reaches the session.
func (h *Handler) SendGift(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req SendGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	gift, err := h.catalog.GetByID(c.Request.Context(), req.GiftID)
	if err != nil || !gift.Active {
		response.NotFound(c, "gift not found")
		return
	}
	sender := callerViewer(c)

	remaining, err := h.wallet.Deduct(c.Request.Context(), sender.ID, gift.Price)
	if errors.Is(err, wallet.ErrInsufficientBalance) {
		response.BadRequest(c, "insufficient balance")
		return
	}
	if err != nil {
		h.logger.Error("wallet deduct failed", zap.Error(err), zap.String("user_id", sender.ID.String()))
		response.Internal(c, "failed to charge wallet")
		return
	}

	event, err := s.SendGift(sender, *gift)
	if err != nil {
		// Session closed between resolution and send: refund.
		if _, creditErr := h.wallet.Credit(c.Request.Context(), sender.ID, gift.Price); creditErr != nil {
			h.logger.Error("gift refund failed", zap.Error(creditErr), zap.String("user_id", sender.ID.String()))
		}
		response.NotFound(c, "session not found or already ended")
		return
	}
	response.OK(c, gin.H{"gift": event, "balance": remaining})
}

// Share handles POST /sessions/:id/share. Fires the share hook and returns a
// shareable link payload.
func (h *Handler) Share(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Share()
	response.OK(c, gin.H{"session_id": s.ID(), "url": "/live/" + s.ID().String()})
}

// ViewProfile handles GET /sessions/:id/viewers/:target. Returns the public
// profile card for a viewer currently in the room.
func (h *Handler) ViewProfile(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	targetID, err := uuid.Parse(c.Param("target"))
	if err != nil {
		response.BadRequest(c, "invalid viewer id")
		return
	}
	v, ok := s.ViewProfile(targetID)
	if !ok {
		response.NotFound(c, "viewer not in session")
		return
	}
	response.OK(c, v)
}
