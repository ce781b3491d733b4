// Package llm implements the assistant-reply strategy chain: an ordered
// list of providers, each attempted exactly once, first success wins.
package llm

import (
	"context"
	"errors"
	"time"

	"github.com/medicai-app/backend/pkg/model"
	"go.uber.org/zap"
)

// ErrNoReply is returned when every configured provider failed or none
// was available
var ErrNoReply = errors.New("no provider produced a reply")

// Usage carries token accounting reported by an upstream model
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Reply is a resolved assistant reply
type Reply struct {
	Content  string
	Model    string
	Provider string
	Usage    *Usage
	Latency  time.Duration
}

// Provider is one tier of the reply chain
type Provider interface {
	// Name identifies the tier in logs and message metadata
	Name() string
	// Available reports whether the tier is configured at all; an
	// unavailable tier is skipped without counting as a failure
	Available() bool
	// Reply attempts to produce an assistant reply. It is called at most
	// once per send; there is no retry within a tier.
	Reply(ctx context.Context, threadID string, messages []model.ChatMessage) (*Reply, error)
}

// Chain iterates providers in order until one succeeds
type Chain struct {
	providers []Provider
	logger    *zap.Logger
}

// NewChain creates a reply chain over the given providers, tried in order
func NewChain(logger *zap.Logger, providers ...Provider) *Chain {
	return &Chain{
		providers: providers,
		logger:    logger,
	}
}

// Reply walks the chain: unavailable tiers are skipped, a failing tier
// hands over to the next, the first reply wins. When the whole chain is
// exhausted the last failure is wrapped in ErrNoReply.
func (c *Chain) Reply(ctx context.Context, threadID string, messages []model.ChatMessage) (*Reply, error) {
	var lastErr error

	for _, p := range c.providers {
		if !p.Available() {
			continue
		}

		start := time.Now()
		reply, err := p.Reply(ctx, threadID, messages)
		if err != nil {
			lastErr = err
			c.logger.Warn("reply tier failed, falling through",
				zap.String("provider", p.Name()),
				zap.String("thread_id", threadID),
				zap.Error(err),
			)
			continue
		}

		reply.Provider = p.Name()
		if reply.Latency == 0 {
			reply.Latency = time.Since(start)
		}

		c.logger.Info("assistant reply resolved",
			zap.String("provider", p.Name()),
			zap.String("thread_id", threadID),
			zap.Duration("latency", reply.Latency),
		)

		return reply, nil
	}

	if lastErr != nil {
		return nil, errors.Join(ErrNoReply, lastErr)
	}
	return nil, ErrNoReply
}
