package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medicai-app/backend/internal/supabase"
	"github.com/medicai-app/backend/internal/validate"
	"go.uber.org/zap"
)

// AuthHandler implements the login, registration and password flows
type AuthHandler struct {
	client *supabase.Client
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(client *supabase.Client, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		client: client,
		logger: logger,
	}
}

// LoginRequest is the sign-in payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the sign-up payload
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// ResetRequest asks for a password recovery email
type ResetRequest struct {
	Email string `json:"email" binding:"required"`
}

// PasswordRequest sets a new password for the authenticated user
type PasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login signs the user in against the backend
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	// Field validation happens locally so failures render inline without
	// a round-trip
	if fieldErrs := validateCredentials(req.Email, req.Password); len(fieldErrs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":   "VALIDATION_ERROR",
			"fields": fieldErrs,
		})
		return
	}

	session, err := h.client.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.remoteError(c, "login", err)
		return
	}

	h.logger.Info("user signed in", zap.String("user_id", session.UserID))

	c.JSON(http.StatusOK, session)
}

// Register creates a new account
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	fieldErrs := validateCredentials(req.Email, req.Password)
	if req.Phone != "" && !validate.Phone(req.Phone) {
		fieldErrs["phone"] = "invalid phone number"
	}
	if len(fieldErrs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":   "VALIDATION_ERROR",
			"fields": fieldErrs,
		})
		return
	}

	session, err := h.client.SignUp(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		h.remoteError(c, "register", err)
		return
	}

	h.logger.Info("user registered", zap.String("user_id", session.UserID))

	c.JSON(http.StatusOK, session)
}

// ResetPassword triggers a recovery email
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validate.Email(req.Email) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "A valid email is required",
		})
		return
	}

	if err := h.client.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.remoteError(c, "reset password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": true})
}

// UpdatePassword sets a new password for the bearer session
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req PasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	if !validate.Password(req.Password) {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":   "VALIDATION_ERROR",
			"fields": gin.H{"password": "password must be at least 8 characters"},
		})
		return
	}

	session := sessionFrom(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "UNAUTHORIZED",
			Message: "Authentication required",
		})
		return
	}

	if err := h.client.UpdatePassword(c.Request.Context(), session, req.Password); err != nil {
		h.remoteError(c, "update password", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// validateCredentials returns field-keyed messages for inline display
func validateCredentials(email, password string) map[string]string {
	fieldErrs := make(map[string]string)
	if !validate.Email(email) {
		fieldErrs["email"] = "invalid email address"
	}
	if !validate.Password(password) {
		fieldErrs["password"] = "password must be at least 8 characters"
	}
	return fieldErrs
}

// remoteError renders a backend failure as an inline error response
func (h *AuthHandler) remoteError(c *gin.Context, op string, err error) {
	h.logger.Error("auth operation failed", zap.String("op", op), zap.Error(err))

	status := http.StatusBadGateway
	var remote *supabase.RemoteError
	if errors.As(err, &remote) && remote.Status >= 400 && remote.Status < 500 {
		status = remote.Status
	}

	c.JSON(status, ErrorResponse{
		Code:    "REMOTE_ERROR",
		Message: "Authentication service error",
		Details: stringPtr(err.Error()),
	})
}
