/*
Package storage presigns attachment uploads and downloads against S3-compatible object
storage.
*/
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned by Stat for a key without an object.
var ErrObjectNotFound = errors.New("storage: object not found")

// ServiceConfig holds the bucket and credentials of the object store.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// ObjectInfo is the metadata of a stored object.
type ObjectInfo struct {
	ContentType string
	Size        int64
}

// StorageService is the object store port used by the attachment handlers.
type StorageService interface {
	// PresignUpload returns a URL accepting one PUT of exactly fileSize bytes of mimeType.
	PresignUpload(ctx context.Context, key string, mimeType string, fileSize int64, duration time.Duration) (string, error)

	// PresignDownload returns a URL serving a GET of key.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Stat returns the metadata of key, or ErrObjectNotFound.
	Stat(ctx context.Context, key string) (*ObjectInfo, error)
}

// NewStorageService connects to the S3-compatible endpoint of cfg.
func NewStorageService(ctx context.Context, cfg ServiceConfig) (StorageService, error) {
	return newS3Client(ctx, cfg)
}
