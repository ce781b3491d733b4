package llm

import (
	"context"

	"github.com/medicai-app/backend/pkg/model"
)

// EchoProvider is the last reply tier: a deterministic echo of the most
// recent user message. It exists so the conversation flow keeps working
// in tests and when no upstream is reachable; it is not a production
// reply path and it never fails.
type EchoProvider struct{}

// Ensure EchoProvider implements Provider interface
var _ Provider = (*EchoProvider)(nil)

func (EchoProvider) Name() string { return "echo" }

func (EchoProvider) Available() bool { return true }

func (EchoProvider) Reply(_ context.Context, _ string, messages []model.ChatMessage) (*Reply, error) {
	content := "..."
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == model.MessageRoleUser {
			content = messages[i].Content
			break
		}
	}

	return &Reply{
		Content: content,
		Model:   "echo",
	}, nil
}
