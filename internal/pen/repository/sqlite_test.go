package repository

import (
	"context"
	"path/filepath"
	"testing"

	"pen-tool/internal/pen/document"
	"pen-tool/migrations"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "pen.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := New(db)
	require.NoError(t, repo.Init(context.Background(), migrations.Files))
	return repo
}

func TestRepository_PutGet(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)

	require.NoError(t, repo.Put(ctx, "loop", []byte(`{"version":1,"curves":[{},{}],"groups":[]}`)))
	data, err := repo.Get(ctx, "loop")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"curves":[{},{}],"groups":[]}`, string(data))

	info, err := repo.Info(ctx, "loop")
	require.NoError(t, err)
	assert.Equal(t, "loop", info.Name)
	assert.Equal(t, 2, info.Curves)
	assert.NotEmpty(t, info.UpdatedAt)

	require.NoError(t, repo.Put(ctx, "loop", []byte(`{"version":1,"curves":[],"groups":[]}`)))
	info, err = repo.Info(ctx, "loop")
	require.NoError(t, err)
	assert.Equal(t, 0, info.Curves, "put replaces")

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, document.ErrNotFound)
	_, err = repo.Info(ctx, "missing")
	assert.ErrorIs(t, err, document.ErrNotFound)
}

func TestRepository_ListDelete(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t)

	names, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	for _, n := range []string{"b", "a", "c"} {
		require.NoError(t, repo.Put(ctx, n, []byte(`{"curves":[]}`)))
	}
	names, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names)

	require.NoError(t, repo.Delete(ctx, "b"))
	assert.ErrorIs(t, repo.Delete(ctx, "b"), document.ErrNotFound)

	drawings, err := repo.Drawings(ctx)
	require.NoError(t, err)
	require.Len(t, drawings, 2)
	assert.Equal(t, "c", drawings[1].Name)
}

func TestRepository_RejectsGarbage(t *testing.T) {
	repo := openRepo(t)
	assert.Error(t, repo.Put(context.Background(), "x", []byte("not json")))
}

func TestRepository_InitTwice(t *testing.T) {
	repo := openRepo(t)
	assert.NoError(t, repo.Init(context.Background(), migrations.Files))
}
