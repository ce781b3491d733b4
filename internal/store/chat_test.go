package store

import (
	"encoding/json"
	"testing"

	"github.com/medicai-app/backend/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// asJSON renders a value for field-for-field comparison; round-tripped
// timestamps lose their monotonic reading, so struct equality is too strict
func asJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func newChatStore(t *testing.T) (*ChatStore, Persister) {
	t.Helper()

	persister, err := NewFilePersister(t.TempDir())
	require.NoError(t, err)

	s, err := NewChatStore(persister, zap.NewNop())
	require.NoError(t, err)

	return s, persister
}

func TestCreateThread_HeadInsertAndActive(t *testing.T) {
	s, _ := newChatStore(t)

	first := s.CreateThread("first")
	second := s.CreateThread("second")

	threads := s.Threads()
	require.Len(t, threads, 2)
	assert.Equal(t, second.ID, threads[0].ID, "newest thread should be at the head")
	assert.Equal(t, first.ID, threads[1].ID)
	assert.Equal(t, second.ID, s.ActiveThreadID())
}

func TestAddMessage_DefaultsToActiveThread(t *testing.T) {
	s, _ := newChatStore(t)

	thread := s.CreateThread("")

	msg, err := s.AddMessage(AddMessageInput{Role: model.MessageRoleUser, Content: "hola"})
	require.NoError(t, err)
	assert.Equal(t, thread.ID, msg.ThreadID)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestAddMessage_UnknownThread(t *testing.T) {
	s, _ := newChatStore(t)
	s.CreateThread("")

	_, err := s.AddMessage(AddMessageInput{ThreadID: "missing", Role: model.MessageRoleUser, Content: "x"})
	assert.Error(t, err)
}

func TestReplaceAssistantContent_PreservesIdentityAndPosition(t *testing.T) {
	s, _ := newChatStore(t)
	thread := s.CreateThread("")

	_, err := s.AddMessage(AddMessageInput{Role: model.MessageRoleUser, Content: "Hola"})
	require.NoError(t, err)

	placeholder, err := s.AddMessage(AddMessageInput{Role: model.MessageRoleAssistant, Content: "..."})
	require.NoError(t, err)

	_, err = s.AddMessage(AddMessageInput{Role: model.MessageRoleUser, Content: "sigues ahí?"})
	require.NoError(t, err)

	s.ReplaceAssistantContent(thread.ID, placeholder.ID, "Hola, ¿en qué puedo ayudarte?")

	msgs := s.Messages(thread.ID)
	require.Len(t, msgs, 3)

	replaced := msgs[1]
	assert.Equal(t, placeholder.ID, replaced.ID)
	assert.Equal(t, model.MessageRoleAssistant, replaced.Role)
	assert.Equal(t, placeholder.CreatedAt.UnixNano(), replaced.CreatedAt.UnixNano())
	assert.Equal(t, "Hola, ¿en qué puedo ayudarte?", replaced.Content)
}

func TestReplaceAssistantContent_MissingIsNoOp(t *testing.T) {
	s, _ := newChatStore(t)
	thread := s.CreateThread("")

	// Neither a missing message nor a missing thread signals anything
	s.ReplaceAssistantContent(thread.ID, "missing-message", "x")
	s.ReplaceAssistantContent("missing-thread", "missing-message", "x")

	assert.Empty(t, s.Messages(thread.ID))
}

func TestUpdateThread_PatchSemantics(t *testing.T) {
	s, _ := newChatStore(t)
	thread := s.CreateThread("old title")

	// Empty patch changes nothing but bumps UpdatedAt
	require.True(t, s.UpdateThread(thread.ID, model.ThreadPatch{}))
	got, ok := s.Thread(thread.ID)
	require.True(t, ok)
	assert.Equal(t, "old title", got.Title)

	title := "new title"
	require.True(t, s.UpdateThread(thread.ID, model.ThreadPatch{Title: &title}))
	got, _ = s.Thread(thread.ID)
	assert.Equal(t, "new title", got.Title)

	assert.False(t, s.UpdateThread("missing", model.ThreadPatch{Title: &title}))
}

func TestChatStore_RoundTrip(t *testing.T) {
	persister, err := NewFilePersister(t.TempDir())
	require.NoError(t, err)

	s, err := NewChatStore(persister, zap.NewNop())
	require.NoError(t, err)

	thread := s.CreateThread("Nuevo chat")
	_, err = s.AddMessage(AddMessageInput{Role: model.MessageRoleUser, Content: "Hola", UserID: "user-1"})
	require.NoError(t, err)
	_, err = s.AddMessage(AddMessageInput{Role: model.MessageRoleAssistant, Content: "¿En qué puedo ayudarte?"})
	require.NoError(t, err)

	// A fresh store over the same persister must see identical state
	reloaded, err := NewChatStore(persister, zap.NewNop())
	require.NoError(t, err)

	assert.JSONEq(t, asJSON(t, s.Threads()), asJSON(t, reloaded.Threads()))
	assert.JSONEq(t, asJSON(t, s.Messages(thread.ID)), asJSON(t, reloaded.Messages(thread.ID)))
	assert.Equal(t, s.ActiveThreadID(), reloaded.ActiveThreadID())
}
