package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medicai-app/backend/internal/avatar"
	"github.com/medicai-app/backend/internal/supabase"
	"github.com/medicai-app/backend/internal/validate"
	"github.com/medicai-app/backend/pkg/model"
	"go.uber.org/zap"
)

// maxAvatarBytes caps avatar uploads at 5 MiB
const maxAvatarBytes = 5 << 20

// ProfileHandler proxies profile operations to the backend and stores
// avatars in blob storage when configured
type ProfileHandler struct {
	client  *supabase.Client
	avatars avatar.Storage
	logger  *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler. avatars may be nil when
// no blob storage is configured; avatar upload then returns 503.
func NewProfileHandler(client *supabase.Client, avatars avatar.Storage, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		client:  client,
		avatars: avatars,
		logger:  logger,
	}
}

// Get returns the caller's profile row
func (h *ProfileHandler) Get(c *gin.Context) {
	userID := callerID(c)
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "user_id is required",
		})
		return
	}

	profile, err := h.client.GetProfile(c.Request.Context(), sessionFrom(c), userID)
	if err != nil {
		h.remoteError(c, "get profile", err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Update patches the caller's profile row
func (h *ProfileHandler) Update(c *gin.Context) {
	var patch model.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	if patch.Phone != nil && *patch.Phone != "" && !validate.Phone(*patch.Phone) {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":   "VALIDATION_ERROR",
			"fields": gin.H{"phone": "invalid phone number"},
		})
		return
	}

	userID := callerID(c)
	profile, err := h.client.UpdateProfile(c.Request.Context(), sessionFrom(c), userID, patch)
	if err != nil {
		h.remoteError(c, "update profile", err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UploadAvatar stores a new profile picture and writes its URL back to
// the profile row
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	if h.avatars == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Code:    "NOT_CONFIGURED",
			Message: "Avatar storage is not configured",
		})
		return
	}

	userID := callerID(c)
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "user_id is required",
		})
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "avatar file is required",
			Details: stringPtr(err.Error()),
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "failed to read avatar file",
			Details: stringPtr(err.Error()),
		})
		return
	}
	if len(data) > maxAvatarBytes {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "avatar file exceeds the 5MB limit",
		})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.avatars.Upload(c.Request.Context(), userID, header.Filename, data, contentType)
	if err != nil {
		h.logger.Error("failed to upload avatar",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to upload avatar",
			Details: stringPtr(err.Error()),
		})
		return
	}

	profile, err := h.client.UpdateProfile(c.Request.Context(), sessionFrom(c), userID, model.ProfilePatch{
		AvatarURL: &url,
	})
	if err != nil {
		h.remoteError(c, "update avatar url", err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *ProfileHandler) remoteError(c *gin.Context, op string, err error) {
	h.logger.Error("profile operation failed", zap.String("op", op), zap.Error(err))

	status := http.StatusBadGateway
	var remote *supabase.RemoteError
	if errors.As(err, &remote) && remote.Status >= 400 && remote.Status < 500 {
		status = remote.Status
	}

	c.JSON(status, ErrorResponse{
		Code:    "REMOTE_ERROR",
		Message: "Profile service error",
		Details: stringPtr(err.Error()),
	})
}
