package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medicai-app/backend/internal/scheduler"
	"github.com/medicai-app/backend/internal/store"
	"github.com/medicai-app/backend/pkg/model"
	"go.uber.org/zap"
)

// ReminderHandler implements reminder endpoints over the local store
type ReminderHandler struct {
	store  *store.ReminderStore
	bridge *scheduler.Bridge
	logger *zap.Logger
}

// NewReminderHandler creates a new ReminderHandler
func NewReminderHandler(st *store.ReminderStore, bridge *scheduler.Bridge, logger *zap.Logger) *ReminderHandler {
	return &ReminderHandler{
		store:  st,
		bridge: bridge,
		logger: logger,
	}
}

// Update patches a reminder's schedule and recomputes its alarms from
// scratch
func (h *ReminderHandler) Update(c *gin.Context) {
	var patch model.ReminderPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	reminder, err := h.store.UpdateReminder(c.Param("id"), patch)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Failed to update reminder",
			Details: stringPtr(err.Error()),
		})
		return
	}

	h.bridge.Sync(reminder)

	c.JSON(http.StatusOK, reminder)
}

// ToggleRequest flips a reminder's enabled flag
type ToggleRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// Toggle enables or disables a reminder without deleting it. Disabling
// cancels every alarm held for the reminder; enabling recomputes them.
func (h *ReminderHandler) Toggle(c *gin.Context) {
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	reminder, err := h.store.ToggleReminder(c.Param("id"), *req.Enabled)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "Failed to toggle reminder",
			Details: stringPtr(err.Error()),
		})
		return
	}

	h.bridge.Sync(reminder)

	c.JSON(http.StatusOK, reminder)
}

// Delete removes a reminder and cancels its alarms
func (h *ReminderHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.DeleteReminder(id); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "Failed to delete reminder",
			Details: stringPtr(err.Error()),
		})
		return
	}

	h.bridge.Remove(id)

	c.Status(http.StatusNoContent)
}

// LogRequest records how the user acted on a fired reminder
type LogRequest struct {
	UserID  string                  `json:"user_id"`
	Status  model.ReminderLogStatus `json:"status" binding:"required"`
	TakenAt *time.Time              `json:"taken_at"`
	Note    *string                 `json:"note"`
}

// CreateLog appends a reminder log entry
func (h *ReminderHandler) CreateLog(c *gin.Context) {
	var req LogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = callerID(c)
	}

	in := store.AddLogInput{
		UserID:     userID,
		ReminderID: c.Param("id"),
		Status:     req.Status,
		Note:       req.Note,
	}
	if req.TakenAt != nil {
		in.TakenAt = *req.TakenAt
	}

	entry, err := h.store.AddLog(in)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Failed to log reminder",
			Details: stringPtr(err.Error()),
		})
		return
	}

	h.logger.Info("reminder log recorded",
		zap.String("reminder_id", entry.ReminderID),
		zap.String("status", string(entry.Status)),
	)

	c.JSON(http.StatusOK, entry)
}

// ListLogs returns the log entries for a reminder, most recent first
func (h *ReminderHandler) ListLogs(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.store.Reminder(id); !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "Reminder not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": h.store.Logs(id)})
}
