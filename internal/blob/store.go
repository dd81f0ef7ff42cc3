// Package blob provides durable storage for attachment payloads, keyed by
// generated identifier and kept separate from task metadata.
package blob

import "context"

// Record is a stored attachment: metadata plus the binary payload.
type Record struct {
	ID   string
	Name string
	Type string
	Data []byte
}

// Store defines the persistence interface for attachment blobs.
// Get returns (nil, nil) when no record matches; Delete of a missing
// record is not an error.
type Store interface {
	Put(ctx context.Context, name, mimeType string, data []byte) (string, error)
	Get(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	IDs(ctx context.Context) ([]string, error)
	Close() error
}
