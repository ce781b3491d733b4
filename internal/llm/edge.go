package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/medicai-app/backend/pkg/model"
	"go.uber.org/zap"
)

// EdgeProvider is the first reply tier: the hosted backend's chat
// function. It receives the full message list and answers with the
// assistant content plus usage accounting.
type EdgeProvider struct {
	functionURL string
	anonKey     string
	model       string
	client      *http.Client
	logger      *zap.Logger
}

// Ensure EdgeProvider implements Provider interface
var _ Provider = (*EdgeProvider)(nil)

// NewEdgeProvider creates the edge-function tier. An empty functionURL
// leaves the tier unavailable.
func NewEdgeProvider(functionURL, anonKey, model string, logger *zap.Logger) *EdgeProvider {
	return &EdgeProvider{
		functionURL: functionURL,
		anonKey:     anonKey,
		model:       model,
		client:      &http.Client{},
		logger:      logger,
	}
}

func (p *EdgeProvider) Name() string { return "edge-function" }

func (p *EdgeProvider) Available() bool { return p.functionURL != "" }

// edgeRequest is the function's wire request
type edgeRequest struct {
	Messages []edgeMessage `json:"messages"`
	ThreadID string        `json:"threadId,omitempty"`
	Model    string        `json:"model,omitempty"`
}

type edgeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// edgeResponse is the function's wire response on success
type edgeResponse struct {
	Content   string `json:"content"`
	Model     string `json:"model"`
	Usage     *Usage `json:"usage,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// edgeError is the function's wire response on failure
type edgeError struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

func (p *EdgeProvider) Reply(ctx context.Context, threadID string, messages []model.ChatMessage) (*Reply, error) {
	payload := edgeRequest{
		Messages: make([]edgeMessage, 0, len(messages)),
		ThreadID: threadID,
		Model:    p.model,
	}
	for _, m := range messages {
		payload.Messages = append(payload.Messages, edgeMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat function request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.functionURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat function request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Authorization", "Bearer "+p.anonKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat function request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read chat function response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var fnErr edgeError
		if json.Unmarshal(raw, &fnErr) == nil && fnErr.Error != "" {
			return nil, fmt.Errorf("chat function returned %d: %s", resp.StatusCode, fnErr.Error)
		}
		return nil, fmt.Errorf("chat function returned %d", resp.StatusCode)
	}

	var fnResp edgeResponse
	if err := json.Unmarshal(raw, &fnResp); err != nil {
		return nil, fmt.Errorf("failed to decode chat function response: %w", err)
	}
	if fnResp.Content == "" {
		return nil, fmt.Errorf("chat function returned empty content")
	}

	return &Reply{
		Content: fnResp.Content,
		Model:   fnResp.Model,
		Usage:   fnResp.Usage,
		Latency: time.Duration(fnResp.LatencyMS) * time.Millisecond,
	}, nil
}
