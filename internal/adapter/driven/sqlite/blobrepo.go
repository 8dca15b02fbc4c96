package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/pwcatalog/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BlobStore = (*BlobRepo)(nil)

// BlobRepo is the SQLite implementation of the BlobStore port. Each key maps
// to one text document and a revision that increases on every write.
type BlobRepo struct {
	db *DB
}

// NewBlobRepo creates a new BlobRepo backed by the given DB.
func NewBlobRepo(db *DB) *BlobRepo {
	return &BlobRepo{db: db}
}

// Get returns the document stored under key, or driven.ErrBlobNotFound.
func (r *BlobRepo) Get(ctx context.Context, key string) (driven.Blob, error) {
	const query = `SELECT value, revision FROM blobs WHERE key = ?`

	var blob driven.Blob
	err := r.db.Reader.QueryRowContext(ctx, query, key).Scan(&blob.Value, &blob.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return driven.Blob{}, fmt.Errorf("get blob %q: %w", key, driven.ErrBlobNotFound)
	}
	if err != nil {
		return driven.Blob{}, fmt.Errorf("get blob %q: %w", key, err)
	}

	return blob, nil
}

// Put stores value under key if the stored revision still equals rev (0 when
// the key must not exist yet). Each write is a single statement, so writers
// in other processes sharing the file are serialized by SQLite.
func (r *BlobRepo) Put(ctx context.Context, key, value string, rev int64) (int64, error) {
	const (
		insert = `INSERT INTO blobs (key, value, revision, updated_at) VALUES (?, ?, 1, CURRENT_TIMESTAMP)
			ON CONFLICT(key) DO NOTHING`
		update = `UPDATE blobs SET value = ?, revision = revision + 1, updated_at = CURRENT_TIMESTAMP
			WHERE key = ? AND revision = ?`
	)

	var (
		res sql.Result
		err error
	)
	if rev == 0 {
		res, err = r.db.Writer.ExecContext(ctx, insert, key, value)
	} else {
		res, err = r.db.Writer.ExecContext(ctx, update, value, key, rev)
	}
	if err != nil {
		return 0, fmt.Errorf("put blob %q: %w", key, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("put blob %q: rows affected: %w", key, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("put blob %q at revision %d: %w", key, rev, driven.ErrBlobConflict)
	}

	return rev + 1, nil
}

// Delete removes the document under key. Deleting a missing key is not an error.
func (r *BlobRepo) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM blobs WHERE key = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}
	return nil
}
