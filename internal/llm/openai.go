package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/medicai-app/backend/pkg/model"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

// OpenAIProvider is the second reply tier: a direct call to the LLM
// provider's chat-completions API with a client-side key. It is only
// usable when a key is configured, and it is the sole tier honoring a
// caller-supplied cancellation signal.
type OpenAIProvider struct {
	client  *openai.Client
	enabled bool
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// Ensure OpenAIProvider implements Provider interface
var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates the direct tier. An empty apiKey leaves the
// tier unavailable without error.
func NewOpenAIProvider(apiKey, chatModel string, timeout time.Duration, logger *zap.Logger) *OpenAIProvider {
	p := &OpenAIProvider{
		model:   chatModel,
		timeout: timeout,
		logger:  logger,
	}
	if apiKey != "" {
		client := openai.NewClient(option.WithAPIKey(apiKey))
		p.client = &client
		p.enabled = true
	}
	return p
}

func (p *OpenAIProvider) Name() string { return "openai-direct" }

func (p *OpenAIProvider) Available() bool { return p.enabled }

func (p *OpenAIProvider) Reply(ctx context.Context, threadID string, messages []model.ChatMessage) (*Reply, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
	}
	for _, m := range messages {
		switch m.Role {
		case model.MessageRoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		case model.MessageRoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from model")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return nil, fmt.Errorf("empty content in model response")
	}

	latency := time.Since(start)
	p.logger.Info("direct completion token usage",
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
		zap.Int64("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("latency", latency),
	)

	return &Reply{
		Content: content,
		Model:   p.model,
		Usage: &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		Latency: latency,
	}, nil
}
