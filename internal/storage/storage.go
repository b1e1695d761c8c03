package storage

import (
	"context"
	"io"
)

// Package storage contains the object storage gateway used for uploaded
// images. Implementations must avoid using local disk and rely on streaming
// I/O only.

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and
// the implementation will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object. URL is the publicly addressable
// location of the object, built from the configured public base URL.
type ObjectInfo struct {
	Key  string
	Size int64
	ETag string
	URL  string
}

// Storage is the upload gateway: it persists bytes under a key and hands back
// a shareable URL. Uploads under the same key silently overwrite.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
}
