package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/media-bot/internal/config"
	"github.com/keshon/media-bot/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	media := filepath.Join(dir, "media")
	require.NoError(t, os.Mkdir(media, 0o755))
	for _, f := range []string{"intro_theme.mp3", "outro.ogg", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(media, f), []byte("x"), 0o644))
	}
	return &config.Config{
		MediaFolder: media,
		StoragePath: filepath.Join(dir, "datastore.json"),
	}
}

func TestRun_Files(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), testConfig(t), []string{"files"}, &out))
	assert.Equal(t, "intro_theme.mp3\noutro.ogg\n", out.String())
}

func TestRun_Match(t *testing.T) {
	cfg := testConfig(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, []string{"match", "intro", "theme"}, &out))
	assert.Equal(t, "intro_theme.mp3\n", out.String())

	err := run(context.Background(), cfg, []string{"match", "zzzzzzzz"}, &out)
	assert.Error(t, err)
}

func TestRun_History(t *testing.T) {
	cfg := testConfig(t)
	store, err := storage.New(cfg.StoragePath)
	require.NoError(t, err)
	require.NoError(t, store.AppendCommandToHistory("g1", storage.CommandHistoryRecord{
		Username: "alice", Command: "play", Param: "intro", Datetime: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}))
	require.NoError(t, store.Close())

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, []string{"history", "g1"}, &out))
	assert.Contains(t, out.String(), "2026-01-02 03:04:05")
	assert.Contains(t, out.String(), "play intro")
}

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorIs(t, run(context.Background(), testConfig(t), nil, &out), errUsage)
	assert.ErrorIs(t, run(context.Background(), testConfig(t), []string{"bogus"}, &out), errUsage)
	assert.ErrorIs(t, run(context.Background(), testConfig(t), []string{"history"}, &out), errUsage)
}
