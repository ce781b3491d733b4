package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medicai-app/backend/internal/store"
	"github.com/medicai-app/backend/pkg/model"
	"go.uber.org/zap"
)

// SettingsHandler exposes the on-device settings document
type SettingsHandler struct {
	store  *store.SettingsStore
	logger *zap.Logger
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(st *store.SettingsStore, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		store:  st,
		logger: logger,
	}
}

// Get returns the current settings
func (h *SettingsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Get())
}

// Update merges patch fields into the settings
func (h *SettingsHandler) Update(c *gin.Context) {
	var patch model.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	if patch.DailyMessageLimit != nil && *patch.DailyMessageLimit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":   "VALIDATION_ERROR",
			"fields": gin.H{"daily_message_limit": "must not be negative"},
		})
		return
	}

	c.JSON(http.StatusOK, h.store.Update(patch))
}
