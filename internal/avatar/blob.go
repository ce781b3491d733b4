// Package avatar stores profile pictures in a blob container and hands
// the resulting URL back for the profile's avatar_url field.
package avatar

import (
	"context"
	"fmt"
	"path"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"go.uber.org/zap"
)

// BlobClient wraps the Azure Blob Storage SDK for avatar uploads
type BlobClient struct {
	client        *azblob.Client
	accountName   string
	containerName string
	logger        *zap.Logger
}

// Ensure BlobClient implements Storage interface
var _ Storage = (*BlobClient)(nil)

// NewBlobClient creates a new avatar blob storage client
func NewBlobClient(accountName, accountKey, containerName string, logger *zap.Logger) (*BlobClient, error) {
	if accountName == "" || accountKey == "" || containerName == "" {
		return nil, fmt.Errorf("accountName, accountKey, and containerName are required")
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", accountName)

	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create shared key credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &BlobClient{
		client:        client,
		accountName:   accountName,
		containerName: containerName,
		logger:        logger,
	}, nil
}

// Upload stores an avatar image and returns its public URL. Each user
// keeps one blob per filename; re-uploading overwrites it.
func (c *BlobClient) Upload(ctx context.Context, userID, filename string, data []byte, contentType string) (string, error) {
	c.logger.Info("uploading avatar to blob storage",
		zap.String("user_id", userID),
		zap.String("filename", filename),
		zap.Int("size_bytes", len(data)),
	)

	blobName := path.Join(userID, filename)

	blobClient := c.client.ServiceClient().NewContainerClient(c.containerName).NewBlockBlobClient(blobName)

	_, err := blobClient.UploadBuffer(ctx, data, &azblob.UploadBufferOptions{
		Metadata: map[string]*string{
			"contenttype": &contentType,
		},
	})
	if err != nil {
		c.logger.Error("failed to upload avatar",
			zap.Error(err),
			zap.String("blob_name", blobName),
		)
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	url := fmt.Sprintf("https://%s.blob.core.windows.net/%s/%s", c.accountName, c.containerName, blobName)
	return url, nil
}

// Delete removes an avatar blob
func (c *BlobClient) Delete(ctx context.Context, blobName string) error {
	_, err := c.client.DeleteBlob(ctx, c.containerName, blobName, nil)
	if err != nil {
		c.logger.Error("failed to delete avatar",
			zap.Error(err),
			zap.String("blob_name", blobName),
		)
		return fmt.Errorf("failed to delete avatar: %w", err)
	}
	return nil
}
