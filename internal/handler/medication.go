package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medicai-app/backend/internal/scheduler"
	"github.com/medicai-app/backend/internal/store"
	"github.com/medicai-app/backend/pkg/model"
	"go.uber.org/zap"
)

// MedicationHandler implements medication endpoints over the local store.
// Reminder alarms follow every mutation through the scheduling bridge.
type MedicationHandler struct {
	store  *store.ReminderStore
	bridge *scheduler.Bridge
	logger *zap.Logger
}

// NewMedicationHandler creates a new MedicationHandler
func NewMedicationHandler(st *store.ReminderStore, bridge *scheduler.Bridge, logger *zap.Logger) *MedicationHandler {
	return &MedicationHandler{
		store:  st,
		bridge: bridge,
		logger: logger,
	}
}

// CreateMedicationRequest is the add-medication payload
type CreateMedicationRequest struct {
	UserID       string  `json:"user_id"`
	Name         string  `json:"name" binding:"required"`
	Dose         float64 `json:"dose" binding:"required"`
	Unit         string  `json:"unit" binding:"required"`
	Instructions *string `json:"instructions"`
}

// Create adds a new medication
func (h *MedicationHandler) Create(c *gin.Context) {
	var req CreateMedicationRequest
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

	med, err := h.store.AddMedication(store.AddMedicationInput{
		UserID:       userID,
		Name:         req.Name,
		Dose:         req.Dose,
		Unit:         req.Unit,
		Instructions: req.Instructions,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Failed to add medication",
			Details: stringPtr(err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, med)
}

// List returns all medications for a user
func (h *MedicationHandler) List(c *gin.Context) {
	userID := callerID(c)
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "user_id is required",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"medications": h.store.Medications(userID)})
}

// Update patches a medication
func (h *MedicationHandler) Update(c *gin.Context) {
	var patch model.MedicationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	med, err := h.store.UpdateMedication(c.Param("id"), patch)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "Failed to update medication",
			Details: stringPtr(err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, med)
}

// Delete removes a medication, cascading to its reminders and their
// alarms
func (h *MedicationHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	removedReminders, err := h.store.DeleteMedication(id)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "Failed to delete medication",
			Details: stringPtr(err.Error()),
		})
		return
	}

	for _, rid := range removedReminders {
		h.bridge.Remove(rid)
	}

	h.logger.Info("medication deleted",
		zap.String("medication_id", id),
		zap.Int("reminders_removed", len(removedReminders)),
	)

	c.Status(http.StatusNoContent)
}

// CreateReminderRequest is the add-reminder payload
type CreateReminderRequest struct {
	UserID        string             `json:"user_id"`
	ScheduleType  model.ScheduleType `json:"schedule_type" binding:"required"`
	Times         []string           `json:"times"`
	IntervalHours int                `json:"interval_hours"`
	Timezone      string             `json:"timezone"`
}

// CreateReminder adds a reminder for a medication and arms its alarms
func (h *MedicationHandler) CreateReminder(c *gin.Context) {
	var req CreateReminderRequest
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

	reminder, err := h.store.AddReminder(store.AddReminderInput{
		UserID:        userID,
		MedicationID:  c.Param("id"),
		ScheduleType:  req.ScheduleType,
		Times:         req.Times,
		IntervalHours: req.IntervalHours,
		Timezone:      req.Timezone,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Failed to add reminder",
			Details: stringPtr(err.Error()),
		})
		return
	}

	h.bridge.Sync(reminder)

	c.JSON(http.StatusOK, reminder)
}

// ListReminders returns all reminders for a medication
func (h *MedicationHandler) ListReminders(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.store.Medication(id); !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "Medication not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminders": h.store.RemindersForMedication(id)})
}
