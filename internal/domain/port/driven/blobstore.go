package driven

import (
	"context"
	"errors"
)

// ErrBlobNotFound indicates no blob is stored under the requested key.
var ErrBlobNotFound = errors.New("blob not found")

// ErrBlobConflict indicates the stored blob changed since the revision the
// writer last read.
var ErrBlobConflict = errors.New("blob revision conflict")

// Blob is a stored document and the revision it was read at. Revision 0
// means nothing is stored.
type Blob struct {
	Value    string
	Revision int64
}

// BlobStore defines the driven port for the persistence collaborator: a
// string-keyed store of opaque, revisioned documents shared by every process
// that opens the same database.
// Get returns ErrBlobNotFound if nothing is stored under key.
// Put stores value only if the stored revision still equals rev and returns
// the new revision; otherwise it returns ErrBlobConflict.
type BlobStore interface {
	Get(ctx context.Context, key string) (Blob, error)
	Put(ctx context.Context, key, value string, rev int64) (int64, error)
	Delete(ctx context.Context, key string) error
}
