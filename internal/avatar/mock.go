package avatar

import (
	"context"
	"fmt"
	"path"
	"sync"
)

// MockStorage is an in-memory Storage implementation for testing
type MockStorage struct {
	mu    sync.RWMutex
	Blobs map[string][]byte
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock avatar storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		Blobs: make(map[string][]byte),
	}
}

// Upload stores the avatar in memory and returns a mock URL
func (m *MockStorage) Upload(_ context.Context, userID, filename string, data []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	blobName := path.Join(userID, filename)
	m.Blobs[blobName] = data

	return fmt.Sprintf("https://mock.blob.local/avatars/%s", blobName), nil
}

// Delete removes the avatar from memory
func (m *MockStorage) Delete(_ context.Context, blobName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.Blobs[blobName]; !ok {
		return fmt.Errorf("blob not found: %s", blobName)
	}
	delete(m.Blobs, blobName)
	return nil
}
