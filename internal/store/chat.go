package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/medicai-app/backend/pkg/model"
	"go.uber.org/zap"
)

const chatDocument = "chat"

// chatState is the persisted shape of the chat store: the thread list,
// messages grouped by thread, and the currently active thread.
type chatState struct {
	Threads        []model.ChatThread             `json:"threads"`
	Messages       map[string][]model.ChatMessage `json:"messages"`
	ActiveThreadID string                         `json:"active_thread_id,omitempty"`
}

// ChatStore owns the on-device chat document. All mutations are applied
// in memory first and then the whole document is rewritten; the in-memory
// state is the source of truth while the process lives.
type ChatStore struct {
	mu      sync.Mutex
	state   chatState
	persist Persister
	logger  *zap.Logger
}

// NewChatStore loads the chat document (if any) and returns the store
func NewChatStore(persist Persister, logger *zap.Logger) (*ChatStore, error) {
	s := &ChatStore{
		state:   chatState{Messages: make(map[string][]model.ChatMessage)},
		persist: persist,
		logger:  logger,
	}

	found, err := persist.Load(chatDocument, &s.state)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat store: %w", err)
	}
	if s.state.Messages == nil {
		s.state.Messages = make(map[string][]model.ChatMessage)
	}
	if found {
		logger.Info("chat store loaded",
			zap.Int("threads", len(s.state.Threads)),
		)
	}

	return s, nil
}

// CreateThread allocates a new thread, inserts it at the head of the
// thread list and marks it active. Message operations with an empty
// thread id target the active thread.
func (s *ChatStore) CreateThread(title string) model.ChatThread {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	thread := model.ChatThread{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.state.Threads = append([]model.ChatThread{thread}, s.state.Threads...)
	s.state.ActiveThreadID = thread.ID
	s.save()

	s.logger.Info("thread created",
		zap.String("thread_id", thread.ID),
		zap.String("title", title),
	)

	return thread
}

// Threads returns the thread list, newest first
func (s *ChatStore) Threads() []model.ChatThread {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.ChatThread, len(s.state.Threads))
	copy(out, s.state.Threads)
	return out
}

// ActiveThreadID returns the id of the active thread, or empty when no
// thread exists yet
func (s *ChatStore) ActiveThreadID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ActiveThreadID
}

// Thread returns a thread by id
func (s *ChatStore) Thread(id string) (model.ChatThread, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.state.Threads {
		if t.ID == id {
			return t, true
		}
	}
	return model.ChatThread{}, false
}

// Messages returns the ordered message list of a thread
func (s *ChatStore) Messages(threadID string) []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.state.Messages[threadID]
	out := make([]model.ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}

// AddMessageInput describes a message append
type AddMessageInput struct {
	ThreadID string
	UserID   string
	Role     model.MessageRole
	Content  string
	Meta     map[string]string
}

// AddMessage appends a message with a generated id and current timestamp
// to the thread's ordered list and returns the created record. An empty
// ThreadID targets the active thread.
func (s *ChatStore) AddMessage(in AddMessageInput) (model.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	threadID := in.ThreadID
	if threadID == "" {
		threadID = s.state.ActiveThreadID
	}
	if threadID == "" {
		return model.ChatMessage{}, fmt.Errorf("no thread to add message to")
	}
	if !s.threadExists(threadID) {
		return model.ChatMessage{}, fmt.Errorf("thread not found: %s", threadID)
	}

	msg := model.ChatMessage{
		ID:        uuid.New().String(),
		ThreadID:  threadID,
		UserID:    in.UserID,
		Role:      in.Role,
		Content:   in.Content,
		Meta:      in.Meta,
		CreatedAt: time.Now(),
	}

	s.state.Messages[threadID] = append(s.state.Messages[threadID], msg)
	s.touchThread(threadID)
	s.save()

	return msg, nil
}

// ReplaceAssistantContent swaps the content of a message in place,
// preserving id, role, createdAt and the message's position in the list.
// A missing thread or message is a silent no-op; callers must not rely on
// an error here.
func (s *ChatStore) ReplaceAssistantContent(threadID, messageID, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.state.Messages[threadID]
	for i := range msgs {
		if msgs[i].ID == messageID {
			msgs[i].Content = content
			s.touchThread(threadID)
			s.save()
			return
		}
	}
}

// UpdateThread merges patch fields into the thread record and bumps
// UpdatedAt. It reports whether the thread was found.
func (s *ChatStore) UpdateThread(id string, patch model.ThreadPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Threads {
		if s.state.Threads[i].ID != id {
			continue
		}
		if patch.Title != nil {
			s.state.Threads[i].Title = *patch.Title
		}
		s.state.Threads[i].UpdatedAt = time.Now()
		s.save()
		return true
	}
	return false
}

// SetActiveThread marks the given thread active
func (s *ChatStore) SetActiveThread(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.threadExists(id) {
		return false
	}
	s.state.ActiveThreadID = id
	s.save()
	return true
}

func (s *ChatStore) threadExists(id string) bool {
	for _, t := range s.state.Threads {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (s *ChatStore) touchThread(id string) {
	for i := range s.state.Threads {
		if s.state.Threads[i].ID == id {
			s.state.Threads[i].UpdatedAt = time.Now()
			return
		}
	}
}

// save rewrites the whole chat document. The in-memory state is already
// updated when this runs; a failed write only loses durability, so it is
// logged rather than propagated.
func (s *ChatStore) save() {
	if err := s.persist.Save(chatDocument, &s.state); err != nil {
		s.logger.Error("failed to persist chat store", zap.Error(err))
	}
}
