package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/medicai-app/backend/internal/audit"
	"github.com/medicai-app/backend/internal/llm"
	"github.com/medicai-app/backend/pkg/model"
	"go.uber.org/zap"
)

// AIChatHandler implements the hosted chat function contract.
// It is the server side of the edge tier: the mobile client (and this
// service's own edge provider) POSTs the message list here.
type AIChatHandler struct {
	upstream   llm.Provider
	audit      *audit.Logger
	dailyLimit func() int
	logger     *zap.Logger
}

// NewAIChatHandler creates a new AIChatHandler. upstream is the
// server-credentialed model provider; audit may be nil. dailyLimit
// supplies the per-user daily invocation cap; it is only enforced when
// the audit trail is configured, since usage counts live there.
func NewAIChatHandler(upstream llm.Provider, auditLogger *audit.Logger, dailyLimit func() int, logger *zap.Logger) *AIChatHandler {
	return &AIChatHandler{
		upstream:   upstream,
		audit:      auditLogger,
		dailyLimit: dailyLimit,
		logger:     logger,
	}
}

// aiChatRequest is the function's wire request
type aiChatRequest struct {
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ThreadID string `json:"threadId"`
	Model    string `json:"model"`
	UserID   string `json:"userId"`
}

// aiChatError is the function's wire error shape
type aiChatError struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// Post handles POST. The response matrix is fixed: 400 for a missing
// message list, 500 when the server credential is absent, 502 when the
// upstream model fails, 200 with content/model/usage/latency otherwise.
// When the audit trail is configured, callers over their daily limit get
// a 429 before any upstream call.
func (h *AIChatHandler) Post(c *gin.Context) {
	var req aiChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, aiChatError{
			Status: http.StatusBadRequest,
			Error:  "messages is required and must be a non-empty array",
		})
		return
	}

	if h.audit != nil && h.dailyLimit != nil && req.UserID != "" {
		if limit := h.dailyLimit(); limit > 0 {
			used, err := h.audit.UsageToday(c.Request.Context(), req.UserID)
			if err != nil {
				// A broken counter must not block replies
				h.logger.Warn("failed to read chat usage count", zap.Error(err))
			} else if used >= limit {
				c.JSON(http.StatusTooManyRequests, aiChatError{
					Status: http.StatusTooManyRequests,
					Error:  "daily message limit reached",
				})
				return
			}
		}
	}

	if h.upstream == nil || !h.upstream.Available() {
		h.logger.Error("chat function invoked without server credential")
		c.JSON(http.StatusInternalServerError, aiChatError{
			Status: http.StatusInternalServerError,
			Error:  "server is not configured with a model credential",
		})
		return
	}

	messages := make([]model.ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, model.ChatMessage{
			Role:    model.MessageRole(m.Role),
			Content: m.Content,
		})
	}

	start := time.Now()
	reply, err := h.upstream.Reply(c.Request.Context(), req.ThreadID, messages)
	if err != nil {
		h.logger.Error("upstream model failed",
			zap.Error(err),
			zap.String("thread_id", req.ThreadID),
		)
		c.JSON(http.StatusBadGateway, aiChatError{
			Status: http.StatusBadGateway,
			Error:  "upstream model request failed",
		})
		return
	}

	latency := reply.Latency
	if latency == 0 {
		latency = time.Since(start)
	}

	if h.audit != nil {
		entry := audit.ChatUsage{
			UserID:    req.UserID,
			ThreadID:  req.ThreadID,
			Model:     reply.Model,
			Provider:  h.upstream.Name(),
			LatencyMS: latency.Milliseconds(),
		}
		if reply.Usage != nil {
			entry.PromptTokens = reply.Usage.PromptTokens
			entry.CompletionTokens = reply.Usage.CompletionTokens
			entry.TotalTokens = reply.Usage.TotalTokens
		}
		// Usage accounting must not fail the reply
		if err := h.audit.Log(c.Request.Context(), entry); err != nil {
			h.logger.Warn("failed to record chat usage", zap.Error(err))
		}
	}

	resp := gin.H{
		"content":    reply.Content,
		"model":      reply.Model,
		"latency_ms": latency.Milliseconds(),
	}
	if reply.Usage != nil {
		resp["usage"] = reply.Usage
	}

	c.JSON(http.StatusOK, resp)
}
