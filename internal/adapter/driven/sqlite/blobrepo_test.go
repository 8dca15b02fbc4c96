package sqlite

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/ericfisherdev/pwcatalog/internal/application"
	"github.com/ericfisherdev/pwcatalog/internal/domain/port/driven"
)

func TestBlobRepo_PutGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlobRepo(db)
	ctx := context.Background()

	rev, err := repo.Put(ctx, "passwordServices.v1", `[{"name":"Google"}]`, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	got, err := repo.Get(ctx, "passwordServices.v1")
	require.NoError(t, err)
	assert.Equal(t, driven.Blob{Value: `[{"name":"Google"}]`, Revision: 1}, got)
}

func TestBlobRepo_PutReplaces(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlobRepo(db)
	ctx := context.Background()

	rev, err := repo.Put(ctx, "k", "first", 0)
	require.NoError(t, err)
	rev, err = repo.Put(ctx, "k", "second", rev)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)

	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Value)

	var count int
	require.NoError(t, db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM blobs`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestBlobRepo_PutConflict(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, repo *BlobRepo)
		rev   int64
	}{
		{
			name: "insert over an existing key",
			setup: func(t *testing.T, repo *BlobRepo) {
				_, err := repo.Put(context.Background(), "k", "theirs", 0)
				require.NoError(t, err)
			},
			rev: 0,
		},
		{
			name: "update at a stale revision",
			setup: func(t *testing.T, repo *BlobRepo) {
				rev, err := repo.Put(context.Background(), "k", "v1", 0)
				require.NoError(t, err)
				_, err = repo.Put(context.Background(), "k", "theirs", rev)
				require.NoError(t, err)
			},
			rev: 1,
		},
		{
			name:  "update of a deleted key",
			setup: func(*testing.T, *BlobRepo) {},
			rev:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			repo := NewBlobRepo(db)
			tt.setup(t, repo)

			_, err := repo.Put(context.Background(), "k", "mine", tt.rev)
			assert.ErrorIs(t, err, driven.ErrBlobConflict)

			got, err := repo.Get(context.Background(), "k")
			if err == nil {
				assert.Equal(t, "theirs", got.Value)
			} else {
				assert.ErrorIs(t, err, driven.ErrBlobNotFound)
			}
		})
	}
}

func TestBlobRepo_Get_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlobRepo(db)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, driven.ErrBlobNotFound)
}

func TestBlobRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBlobRepo(db)
	ctx := context.Background()

	_, err := repo.Put(ctx, "k", "v", 0)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, "k"))

	_, err = repo.Get(ctx, "k")
	assert.ErrorIs(t, err, driven.ErrBlobNotFound)

	assert.NoError(t, repo.Delete(ctx, "k"), "deleting a missing key is not an error")
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, RunMigrations(db.Writer))
}

func TestCatalogPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")
	pipeline := application.NewQueryPipeline(language.English)

	db, err := NewDB(ctx, path)
	require.NoError(t, err)
	require.NoError(t, RunMigrations(db.Writer))

	catalog := application.NewEditableCatalog(NewBlobRepo(db), "", pipeline, slog.Default())
	require.NoError(t, catalog.Load(ctx))
	require.NoError(t, catalog.Clear(ctx))
	created, err := catalog.Create(ctx, map[string]any{"name": "GitHub", "minLength": 8})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := NewDB(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	require.NoError(t, RunMigrations(reopened.Writer))

	again := application.NewEditableCatalog(NewBlobRepo(reopened), "", pipeline, slog.Default())
	require.NoError(t, again.Load(ctx))

	list := again.List()
	require.Len(t, list, 1)
	assert.Equal(t, created, list[0])
	assert.Equal(t, path, reopened.Path())
}

func TestCatalog_TwoWritersShareDatabase(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	pipeline := application.NewQueryPipeline(language.English)

	server := application.NewEditableCatalog(NewBlobRepo(db), "", pipeline, slog.Default())
	require.NoError(t, server.Load(ctx))
	require.NoError(t, server.Clear(ctx))

	cli := application.NewEditableCatalog(NewBlobRepo(db), "", pipeline, slog.Default())
	require.NoError(t, cli.Load(ctx))
	_, err := cli.Import(ctx, []byte(`[{"name":"FromCLI","minLength":8}]`))
	require.NoError(t, err)

	_, err = server.Create(ctx, map[string]any{"name": "FromGUI", "minLength": 10})
	require.NoError(t, err)

	blob, err := NewBlobRepo(db).Get(ctx, application.DefaultStorageKey)
	require.NoError(t, err)
	assert.Contains(t, blob.Value, "FromCLI")
	assert.Contains(t, blob.Value, "FromGUI")

	names := make([]string, 0, 2)
	for _, svc := range server.List() {
		names = append(names, svc.Name)
	}
	assert.Equal(t, []string{"FromCLI", "FromGUI"}, names)
}
