package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/medicai-app/backend/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEdgeProvider_Reply(t *testing.T) {
	var captured edgeRequest
	var capturedHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(edgeResponse{
			Content:   "Hola, ¿en qué puedo ayudarte?",
			Model:     "gpt-4o-mini",
			Usage:     &Usage{PromptTokens: 12, CompletionTokens: 9, TotalTokens: 21},
			LatencyMS: 340,
		})
	}))
	defer server.Close()

	p := NewEdgeProvider(server.URL, "anon-key", "gpt-4o-mini", zap.NewNop())
	require.True(t, p.Available())

	reply, err := p.Reply(context.Background(), "thread-1", []model.ChatMessage{
		{Role: model.MessageRoleUser, Content: "Hola"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hola, ¿en qué puedo ayudarte?", reply.Content)
	assert.Equal(t, "gpt-4o-mini", reply.Model)
	assert.Equal(t, 340*time.Millisecond, reply.Latency)
	require.NotNil(t, reply.Usage)
	assert.Equal(t, int64(21), reply.Usage.TotalTokens)

	assert.Equal(t, "anon-key", capturedHeaders.Get("apikey"))
	assert.Equal(t, "Bearer anon-key", capturedHeaders.Get("Authorization"))
	assert.Equal(t, "application/json", capturedHeaders.Get("Content-Type"))

	assert.Equal(t, "thread-1", captured.ThreadID)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Equal(t, "Hola", captured.Messages[0].Content)
}

func TestEdgeProvider_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(edgeError{Status: 502, Error: "OpenAI request failed"})
	}))
	defer server.Close()

	p := NewEdgeProvider(server.URL, "anon-key", "", zap.NewNop())
	_, err := p.Reply(context.Background(), "t1", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "OpenAI request failed")
}

func TestEdgeProvider_EmptyContentIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(edgeResponse{Model: "gpt-4o-mini"})
	}))
	defer server.Close()

	p := NewEdgeProvider(server.URL, "anon-key", "", zap.NewNop())
	_, err := p.Reply(context.Background(), "t1", nil)
	assert.Error(t, err)
}

func TestEdgeProvider_UnavailableWithoutURL(t *testing.T) {
	p := NewEdgeProvider("", "anon-key", "", zap.NewNop())
	assert.False(t, p.Available())
}
