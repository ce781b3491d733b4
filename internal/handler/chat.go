package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medicai-app/backend/internal/chat"
	"github.com/medicai-app/backend/internal/store"
	"github.com/medicai-app/backend/pkg/model"
	"go.uber.org/zap"
)

// ChatHandler implements the conversation endpoints
type ChatHandler struct {
	store   *store.ChatStore
	service *chat.Service
	logger  *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(st *store.ChatStore, service *chat.Service, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		store:   st,
		service: service,
		logger:  logger,
	}
}

// CreateThreadRequest is the new-thread payload
type CreateThreadRequest struct {
	Title string `json:"title"`
}

// RenameThreadRequest is the thread-rename payload
type RenameThreadRequest struct {
	Title string `json:"title" binding:"required"`
}

// SendMessageRequest is the send payload
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
	UserID  string `json:"user_id"`
}

// ListThreads returns all threads, newest first
func (h *ChatHandler) ListThreads(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"threads":          h.store.Threads(),
		"active_thread_id": h.store.ActiveThreadID(),
	})
}

// CreateThread allocates a new conversation
func (h *ChatHandler) CreateThread(c *gin.Context) {
	var req CreateThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	thread := h.store.CreateThread(req.Title)
	c.JSON(http.StatusOK, thread)
}

// RenameThread updates a thread's title
func (h *ChatHandler) RenameThread(c *gin.Context) {
	var req RenameThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	id := c.Param("id")
	if !h.store.UpdateThread(id, model.ThreadPatch{Title: &req.Title}) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "Thread not found",
		})
		return
	}

	thread, _ := h.store.Thread(id)
	c.JSON(http.StatusOK, thread)
}

// ListMessages returns a thread's ordered message list
func (h *ChatHandler) ListMessages(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.store.Thread(id); !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "Thread not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": h.store.Messages(id)})
}

// SendMessage runs the full send flow and returns both stored messages.
// Reply failures degrade inside the service; this endpoint only fails on
// bad input.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	threadID := c.Param("id")
	userID := req.UserID
	if userID == "" {
		userID = callerID(c)
	}

	result, err := h.service.Send(c.Request.Context(), threadID, userID, req.Content)
	if err != nil {
		h.logger.Error("failed to send message",
			zap.Error(err),
			zap.String("thread_id", threadID),
		)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "SEND_FAILED",
			Message: "Failed to send message",
			Details: stringPtr(err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_message":      result.UserMessage,
		"assistant_message": result.AssistantMessage,
		"provider":          result.Provider,
		"model":             result.Model,
	})
}
