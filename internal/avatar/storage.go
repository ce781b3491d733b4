package avatar

import "context"

// Storage defines the interface for avatar object storage.
// This interface allows for easier testing with mock implementations.
type Storage interface {
	Upload(ctx context.Context, userID, filename string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, blobName string) error
}
