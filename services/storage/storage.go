package storage

import "context"

// StorageService persists processed results outside the session store.
type StorageService interface {
	// UploadBlob stores binary data under key and returns its public URL.
	UploadBlob(ctx context.Context, data []byte, key, contentType string) (string, error)
	// DeleteBlob removes a stored blob; called when a session is evicted.
	DeleteBlob(ctx context.Context, key string) error
}
