// Package chat orchestrates the send flow: local append, assistant
// placeholder, reply chain, in-place placeholder replacement.
package chat

import (
	"context"
	"fmt"

	"github.com/medicai-app/backend/internal/llm"
	"github.com/medicai-app/backend/internal/store"
	"github.com/medicai-app/backend/pkg/model"
	"go.uber.org/zap"
)

// Placeholder is the assistant content shown while a reply is pending
const Placeholder = "..."

// Service composes the chat store and the reply chain
type Service struct {
	store  *store.ChatStore
	chain  *llm.Chain
	logger *zap.Logger
}

// NewService creates a chat service
func NewService(st *store.ChatStore, chain *llm.Chain, logger *zap.Logger) *Service {
	return &Service{
		store:  st,
		chain:  chain,
		logger: logger,
	}
}

// SendResult carries both stored messages of one send plus reply details
type SendResult struct {
	UserMessage      model.ChatMessage
	AssistantMessage model.ChatMessage
	Provider         string
	Model            string
}

// Send appends the user message and an assistant placeholder, resolves a
// reply through the chain and replaces the placeholder content in place.
// The placeholder keeps its id, role, timestamp and position.
//
// Sends on the same thread are not serialized against each other; two
// concurrent sends interleave in provider-latency order, matching the
// source behavior.
func (s *Service) Send(ctx context.Context, threadID, userID, content string) (*SendResult, error) {
	if content == "" {
		return nil, fmt.Errorf("message content is required")
	}

	userMsg, err := s.store.AddMessage(store.AddMessageInput{
		ThreadID: threadID,
		UserID:   userID,
		Role:     model.MessageRoleUser,
		Content:  content,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}
	threadID = userMsg.ThreadID

	placeholder, err := s.store.AddMessage(store.AddMessageInput{
		ThreadID: threadID,
		Role:     model.MessageRoleAssistant,
		Content:  Placeholder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store assistant placeholder: %w", err)
	}

	// The chain sees the conversation up to and including the user
	// message, never the placeholder itself.
	history := s.historyBefore(threadID, placeholder.ID)

	reply, err := s.chain.Reply(ctx, threadID, history)
	if err != nil {
		// An exhausted chain surfaces as assistant content rather than a
		// failed send, mirroring the source's inline-error behavior.
		errContent := fmt.Sprintf("Lo siento, no puedo responder ahora mismo. (%v)", err)
		s.store.ReplaceAssistantContent(threadID, placeholder.ID, errContent)
		placeholder.Content = errContent

		s.logger.Error("reply chain exhausted",
			zap.String("thread_id", threadID),
			zap.Error(err),
		)

		return &SendResult{
			UserMessage:      userMsg,
			AssistantMessage: placeholder,
		}, nil
	}

	s.store.ReplaceAssistantContent(threadID, placeholder.ID, reply.Content)
	placeholder.Content = reply.Content

	return &SendResult{
		UserMessage:      userMsg,
		AssistantMessage: placeholder,
		Provider:         reply.Provider,
		Model:            reply.Model,
	}, nil
}

func (s *Service) historyBefore(threadID, placeholderID string) []model.ChatMessage {
	msgs := s.store.Messages(threadID)
	out := make([]model.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.ID == placeholderID {
			continue
		}
		out = append(out, m)
	}
	return out
}
