package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
	"github.com/CraftAlchemy/Vidora-sub000/pkg/response"
	"github.com/CraftAlchemy/Vidora-sub000/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Username  string `json:"username" binding:"required,min=3,max=32"`
	Role      string `json:"role"` // optional, defaults to viewer
	AvatarURL string `json:"avatar_url"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo            *Repository
	jwt             *JWTService
	startingBalance int64
	logger          *zap.Logger
}

// NewHandler creates an auth handler. startingBalance is the coin balance
// granted to new accounts.
func NewHandler(repo *Repository, jwt *JWTService, startingBalance int64, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, jwt: jwt, startingBalance: startingBalance, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	role := models.RoleViewer
	if req.Role != "" {
		switch req.Role {
		case "admin":
			role = models.RoleAdmin
		case "broadcaster":
			role = models.RoleBroadcaster
		case "viewer":
			role = models.RoleViewer
		default:
			response.BadRequest(c, "invalid role")
			return
		}
	}

	_, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err == nil {
		response.BadRequest(c, "email already registered")
		return
	}

	taken, err := h.repo.UsernameExists(c.Request.Context(), req.Username)
	if err != nil {
		response.Internal(c, "failed to check username")
		return
	}
	if taken {
		response.Conflict(c, "username already taken")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user := &models.User{
		ID:        uuid.New(),
		Email:     req.Email,
		Password:  hash,
		Username:  req.Username,
		AvatarURL: req.AvatarURL,
		Role:      role,
		Balance:   h.startingBalance,
	}
	if err := h.repo.Create(c.Request.Context(), user); err != nil {
		h.logger.Error("failed to create user", zap.Error(err))
		response.Internal(c, "failed to create user")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, user.Username, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, user.Username, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	// Key matches middleware.ContextUserID; importing the middleware package
	// here would create an import cycle.
	userID := c.MustGet("user_id").(uuid.UUID)
	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}
	response.OK(c, user.ToPublic())
}
