// Package blobstore keeps uploaded images and hands out URLs for them.
package blobstore

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultContentType = "application/octet-stream"

// Store is implemented by S3Store, MinioStore and MemoryStore.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	// URL returns a link the client can fetch the object from. For remote
	// backends it is presigned and expires.
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// NewKey builds a storage key for an upload of userID:
// images/<userID>/<yyyy>/<m>/<d>/<uuid><ext>.
func NewKey(userID, fileName string, now time.Time) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("images/%s/%d/%d/%d/%v%s", userID, now.Year(), now.Month(), now.Day(), uuid.New(), ext)
}

// OwnedBy reports whether key was created by NewKey for userID.
func OwnedBy(key, userID string) bool {
	return userID != "" && strings.HasPrefix(key, "images/"+userID+"/")
}

func contentTypeOrDefault(ct string) string {
	if ct == "" {
		return defaultContentType
	}
	return ct
}
