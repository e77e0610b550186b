// Package blobstore is the I/O boundary of the admin panel: get and put of an
// opaque byte payload addressed by bucket and key.
//
// Backends:
//   - S3Store: Amazon S3 or any S3-compatible service (MinIO).
//   - SQLStore: a single table in SQLite or PostgreSQL.
//   - MemoryStore: process memory, for tests and local runs.
//
// Every backend returns an opaque revision with each object and honors an
// ifMatch revision on Put, failing with common.ErrVersionConflict when the
// stored object has moved on. A missing object is common.ErrNotFound.
package blobstore

import "context"

// Object is a stored payload together with the revision it was read at.
type Object struct {
	Body     []byte
	Revision string
}

// Store is implemented by every backend.
type Store interface {
	// Get returns the object at bucket/key or common.ErrNotFound.
	Get(ctx context.Context, bucket, key string) (*Object, error)

	// Put overwrites the object at bucket/key and returns the new revision.
	// A non-empty ifMatch makes the write conditional on the current revision.
	Put(ctx context.Context, bucket, key string, body []byte, ifMatch string) (string, error)
}
