package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestNew_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "store.json")
	ds, err := NewWithConfig(Config{FilePath: path})
	require.NoError(t, err)
	defer ds.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(data))
}

func TestPutGet_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")

	ds, err := NewWithConfig(Config{FilePath: path})
	require.NoError(t, err)
	require.NoError(t, ds.Put("guild", item{Name: "a", Count: 2}))
	require.NoError(t, ds.Close())

	ds, err = New(path)
	require.NoError(t, err)
	defer ds.Close()

	var got item
	ok, err := ds.Get("guild", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, item{Name: "a", Count: 2}, got)
	assert.Equal(t, 1, ds.Keys())
}

func TestGet_Missing(t *testing.T) {
	ds, err := NewWithConfig(Config{FilePath: filepath.Join(t.TempDir(), "store.json")})
	require.NoError(t, err)
	defer ds.Close()

	var got item
	ok, err := ds.Get("nope", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPut_AfterClose(t *testing.T) {
	ds, err := NewWithConfig(Config{FilePath: filepath.Join(t.TempDir(), "store.json")})
	require.NoError(t, err)
	require.NoError(t, ds.Close())

	assert.ErrorIs(t, ds.Put("k", 1), ErrClosed)
	assert.ErrorIs(t, ds.SaveToFile(), ErrClosed)
	assert.NoError(t, ds.Close())
}

func TestNew_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	_, err := New(path)
	assert.Error(t, err)
}
