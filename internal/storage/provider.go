// Package storage persists export artifacts locally or in S3-compatible
// object storage.
package storage

import (
	"context"
	"io"
)

// Provider stores export artifacts.
type Provider interface {
	// StreamToFile returns a writer streaming to the destination named by
	// key. The channel delivers a single error (or nil) once the store side
	// of the stream finishes.
	StreamToFile(ctx context.Context, key string) (io.WriteCloser, <-chan error)

	// OpenFile opens a stored artifact for reading.
	OpenFile(ctx context.Context, key string) (io.ReadCloser, error)

	// Location returns a URL describing where the artifact lives.
	Location(key string) string
}
