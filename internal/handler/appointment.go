package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medicai-app/backend/internal/supabase"
	"github.com/medicai-app/backend/internal/validate"
	"github.com/medicai-app/backend/pkg/model"
	"go.uber.org/zap"
)

// AppointmentHandler proxies appointment operations to the backend.
// The backend owns appointment rows; nothing is cached here beyond the
// response the caller already holds.
type AppointmentHandler struct {
	client *supabase.Client
	logger *zap.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler
func NewAppointmentHandler(client *supabase.Client, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		client: client,
		logger: logger,
	}
}

// CreateAppointmentRequest is the new-appointment payload
type CreateAppointmentRequest struct {
	UserID     string  `json:"user_id"`
	DoctorName string  `json:"doctor_name" binding:"required"`
	Specialty  string  `json:"specialty"`
	Date       string  `json:"date" binding:"required"`
	Time       string  `json:"time" binding:"required"`
	Location   string  `json:"location"`
	Notes      *string `json:"notes"`
}

// List returns the user's appointments
func (h *AppointmentHandler) List(c *gin.Context) {
	userID := callerID(c)
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "user_id is required",
		})
		return
	}

	appts, err := h.client.ListAppointments(c.Request.Context(), sessionFrom(c), userID)
	if err != nil {
		h.remoteError(c, "list appointments", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

// Create schedules a new appointment
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	fieldErrs := make(map[string]string)
	if !validate.DateTodayOrFuture(req.Date) {
		fieldErrs["date"] = "date must be today or later (yyyy-MM-dd)"
	}
	if !validate.ClockTime(req.Time) {
		fieldErrs["time"] = "time must be HH:MM"
	}
	if len(fieldErrs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":   "VALIDATION_ERROR",
			"fields": fieldErrs,
		})
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = callerID(c)
	}

	appt, err := h.client.CreateAppointment(c.Request.Context(), sessionFrom(c), model.Appointment{
		UserID:     userID,
		DoctorName: req.DoctorName,
		Specialty:  req.Specialty,
		Date:       req.Date,
		Time:       req.Time,
		Location:   req.Location,
		Notes:      req.Notes,
		Status:     model.AppointmentScheduled,
	})
	if err != nil {
		h.remoteError(c, "create appointment", err)
		return
	}

	c.JSON(http.StatusOK, appt)
}

// Update patches a single appointment row
func (h *AppointmentHandler) Update(c *gin.Context) {
	var patch model.AppointmentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	if patch.Date != nil && !validate.DateTodayOrFuture(*patch.Date) {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":   "VALIDATION_ERROR",
			"fields": gin.H{"date": "date must be today or later (yyyy-MM-dd)"},
		})
		return
	}

	appt, err := h.client.UpdateAppointment(c.Request.Context(), sessionFrom(c), c.Param("id"), patch)
	if err != nil {
		h.remoteError(c, "update appointment", err)
		return
	}

	c.JSON(http.StatusOK, appt)
}

// Cancel marks an appointment cancelled
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	appt, err := h.client.CancelAppointment(c.Request.Context(), sessionFrom(c), c.Param("id"))
	if err != nil {
		h.remoteError(c, "cancel appointment", err)
		return
	}

	c.JSON(http.StatusOK, appt)
}

func (h *AppointmentHandler) remoteError(c *gin.Context, op string, err error) {
	h.logger.Error("appointment operation failed", zap.String("op", op), zap.Error(err))

	status := http.StatusBadGateway
	var remote *supabase.RemoteError
	if errors.As(err, &remote) && remote.Status >= 400 && remote.Status < 500 {
		status = remote.Status
	}

	c.JSON(status, ErrorResponse{
		Code:    "REMOTE_ERROR",
		Message: "Appointment service error",
		Details: stringPtr(err.Error()),
	})
}
