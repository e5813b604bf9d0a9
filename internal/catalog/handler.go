package catalog

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
	"github.com/CraftAlchemy/Vidora-sub000/pkg/response"
	"github.com/CraftAlchemy/Vidora-sub000/pkg/storage"
)

// CreateGiftRequest is the body for POST /gifts (admin only).
type CreateGiftRequest struct {
	Name     string `json:"name" binding:"required"`
	Price    int64  `json:"price" binding:"required,gt=0"`
	Category string `json:"category"`
	IconURL  string `json:"icon_url"`
}

// Handler handles gift catalog HTTP endpoints.
type Handler struct {
	repo   *Repository
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates a catalog handler. s3 may be nil; icon upload endpoints
// report unavailable in that case.
func NewHandler(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, s3: s3, logger: logger}
}

// List handles GET /gifts.
func (h *Handler) List(c *gin.Context) {
	gifts, err := h.repo.ActiveGifts(c.Request.Context())
	if err != nil {
		h.logger.Error("list gifts failed", zap.Error(err))
		response.Internal(c, "failed to list gifts")
		return
	}
	if gifts == nil {
		gifts = []models.GiftDefinition{}
	}
	response.OK(c, gifts)
}

// ListAll handles GET /gifts/all (admin only). Includes inactive entries.
func (h *Handler) ListAll(c *gin.Context) {
	gifts, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list gifts failed", zap.Error(err))
		response.Internal(c, "failed to list gifts")
		return
	}
	if gifts == nil {
		gifts = []models.GiftDefinition{}
	}
	response.OK(c, gifts)
}

// Create handles POST /gifts (admin only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	gift := &models.GiftDefinition{
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
		IconURL:  req.IconURL,
		Active:   true,
	}
	if err := h.repo.Create(c.Request.Context(), gift); err != nil {
		h.logger.Error("create gift failed", zap.Error(err))
		response.Internal(c, "failed to create gift")
		return
	}
	response.Created(c, gift)
}

// UploadIcon handles POST /gifts/:id/icon (admin only). Server-side upload to
// the public icons bucket.
func (h *Handler) UploadIcon(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	giftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid gift id")
		return
	}
	gift, err := h.repo.GetByID(c.Request.Context(), giftID)
	if err != nil {
		response.NotFound(c, "gift not found")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
	if file.Size > storage.MaxIconFileSize {
		response.BadRequest(c, "file size exceeds 2MB limit")
		return
	}
	if !storage.ValidateIconFileType(file.Header.Get("Content-Type"), file.Filename) {
		response.BadRequest(c, "invalid file type: only jpg, png, webp, gif allowed")
		return
	}

	contentType := storage.ContentTypeForFilename(file.Filename)
	if ct := file.Header.Get("Content-Type"); ct != "" {
		if _, ok := storage.AllowedIconTypes[ct]; ok {
			contentType = ct
		}
	}

	key := storage.GiftIconKey(giftID.String(), file.Filename)
	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	iconURL, err := h.s3.Upload(c.Request.Context(), h.s3.GiftIconsBucket(), key, contentType, rc, file.Size, true)
	if err != nil {
		h.logger.Error("S3 upload failed", zap.Error(err), zap.String("gift_id", giftID.String()), zap.String("key", key))
		response.Internal(c, "failed to upload icon to storage")
		return
	}

	// Replace the previous icon object if one exists.
	if gift.S3Key != "" && gift.S3Key != key {
		if err := h.s3.DeleteGiftIcon(c.Request.Context(), gift.S3Key); err != nil {
			h.logger.Warn("delete previous icon failed", zap.Error(err), zap.String("key", gift.S3Key))
		}
	}

	if err := h.repo.SetIcon(c.Request.Context(), giftID, iconURL, key); err != nil {
		h.logger.Error("persist icon URL failed", zap.Error(err))
		response.Internal(c, "failed to save icon")
		return
	}

	response.OK(c, gin.H{
		"icon_url": iconURL,
		"s3_key":   key,
	})
}

// Icon handles GET /gifts/:id/icon. Streams the icon object through the API
// for clients that cannot reach the bucket directly.
func (h *Handler) Icon(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	giftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid gift id")
		return
	}
	gift, err := h.repo.GetByID(c.Request.Context(), giftID)
	if err != nil || gift.S3Key == "" {
		response.NotFound(c, "icon not found")
		return
	}
	body, contentType, err := h.s3.GetObjectStream(c.Request.Context(), h.s3.GiftIconsBucket(), gift.S3Key)
	if err != nil {
		h.logger.Error("fetch icon failed", zap.Error(err), zap.String("key", gift.S3Key))
		response.Internal(c, "failed to fetch icon")
		return
	}
	defer body.Close()
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(gift.S3Key)
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400")
	c.Status(200)
	if _, err := io.Copy(c.Writer, body); err != nil {
		h.logger.Warn("stream icon interrupted", zap.Error(err))
	}
}

// ToggleActive handles PATCH /gifts/:id/active (admin only).
func (h *Handler) ToggleActive(c *gin.Context) {
	giftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid gift id")
		return
	}
	active, err := h.repo.ToggleActive(c.Request.Context(), giftID)
	if err != nil {
		response.NotFound(c, "gift not found")
		return
	}
	response.OK(c, gin.H{"id": giftID, "active": active})
}

// Delete handles DELETE /gifts/:id (admin only). Removes the icon object too.
func (h *Handler) Delete(c *gin.Context) {
	giftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid gift id")
		return
	}
	gift, err := h.repo.GetByID(c.Request.Context(), giftID)
	if err != nil {
		response.NotFound(c, "gift not found")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), giftID); err != nil {
		h.logger.Error("delete gift failed", zap.Error(err))
		response.Internal(c, "failed to delete gift")
		return
	}
	if h.s3 != nil && gift.S3Key != "" {
		if err := h.s3.DeleteGiftIcon(c.Request.Context(), gift.S3Key); err != nil {
			h.logger.Warn("delete icon object failed", zap.Error(err), zap.String("key", gift.S3Key))
		}
	}
	response.NoContent(c)
}
