// Package local_test tests the local filesystem blob store.
package local_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coroscristianos/contentgen/internal/storage/local"
)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		tempDir := t.TempDir()
		store, err := local.New(local.Config{BaseDir: tempDir})
		require.NoError(t, err)
		assert.Equal(t, tempDir, store.BaseDir())
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("CreatesBaseDir", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		_, err := local.NewWithFs(fs, local.Config{BaseDir: "/site/out"})
		require.NoError(t, err)
		ok, err := afero.DirExists(fs, "/site/out")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/site", []byte("x"), 0o644))
		_, err := local.NewWithFs(fs, local.Config{BaseDir: "/site"})
		assert.Error(t, err)
	})

	t.Run("BaseDirNotWritable", func(t *testing.T) {
		fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
		_, err := local.NewWithFs(fs, local.Config{BaseDir: "/site"})
		assert.Error(t, err)
	})
}

func TestPutObject(t *testing.T) {
	tempDir := t.TempDir()
	store, err := local.New(local.Config{BaseDir: tempDir})
	require.NoError(t, err)

	t.Run("ValidPut", func(t *testing.T) {
		path := "content/artists/ana.json"
		data := []byte(`{"name":"Ana"}`)
		uri, err := store.PutObject(context.Background(), path, "application/json", bytes.NewReader(data))
		require.NoError(t, err)

		assert.Equal(t, "file://"+filepath.Join(tempDir, path), uri)
		// #nosec G304 -- test reads from the controlled temp directory.
		readData, err := os.ReadFile(filepath.Join(tempDir, path))
		require.NoError(t, err)
		assert.Equal(t, data, readData)
		_, err = os.Stat(filepath.Join(tempDir, path) + ".tmp")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("Overwrite", func(t *testing.T) {
		path := "public/search-index.json"
		_, err := store.PutObject(context.Background(), path, "", bytes.NewReader([]byte("old")))
		require.NoError(t, err)
		_, err = store.PutObject(context.Background(), path, "", bytes.NewReader([]byte("new")))
		require.NoError(t, err)
		// #nosec G304 -- test reads from the controlled temp directory.
		readData, err := os.ReadFile(filepath.Join(tempDir, path))
		require.NoError(t, err)
		assert.Equal(t, "new", string(readData))
	})

	t.Run("EmptyPath", func(t *testing.T) {
		_, err := store.PutObject(context.Background(), "", "application/json", bytes.NewReader([]byte("data")))
		assert.Error(t, err)
	})

	t.Run("Traversal", func(t *testing.T) {
		_, err := store.PutObject(context.Background(), "../escape.json", "", bytes.NewReader([]byte("data")))
		assert.ErrorContains(t, err, "path traversal")
	})

	t.Run("AbsolutePath", func(t *testing.T) {
		other := t.TempDir()
		target := filepath.Join(other, "videos.json")
		uri, err := store.PutObject(context.Background(), target, "", bytes.NewReader([]byte("{}")))
		require.NoError(t, err)
		assert.Equal(t, "file://"+target, uri)
	})
}

func TestListAndDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fs := afero.NewMemMapFs()
	store, err := local.NewWithFs(fs, local.Config{BaseDir: "/site"})
	require.NoError(t, err)

	for _, p := range []string{"lyrics/b.json", "lyrics/a.json", "lyrics/nested/c.json"} {
		_, err := store.PutObject(ctx, p, "", bytes.NewReader([]byte("{}")))
		require.NoError(t, err)
	}

	names, err := store.ListObjects(ctx, "lyrics")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json"}, names)

	missing, err := store.ListObjects(ctx, "nothing-here")
	require.NoError(t, err)
	assert.Empty(t, missing)

	require.NoError(t, store.DeleteObject(ctx, "lyrics/a.json"))
	require.NoError(t, store.DeleteObject(ctx, "lyrics/a.json"))
	names, err = store.ListObjects(ctx, "lyrics")
	require.NoError(t, err)
	assert.Equal(t, []string{"b.json"}, names)
}
