package contracts

import "context"

// BlobStore is the external binary store for avatars and chat images.
type BlobStore interface {
	// Upload stores data under key and returns the download reference
	// handed to clients.
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, key string) (data []byte, contentType string, err error)
}
