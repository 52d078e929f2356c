package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T, files ...string) *Catalog {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644))
	}
	return New(dir)
}

func TestCatalog_Match(t *testing.T) {
	c := newCatalog(t, "song_one.mp3", "another.mp4", "notes.txt")

	tests := []struct {
		name   string
		query  string
		want   string
		wantOK bool
	}{
		{name: "exact", query: "another.mp4", want: "another.mp4", wantOK: true},
		{name: "exact ignores case", query: "ANOTHER.MP4", want: "another.mp4", wantOK: true},
		{name: "substring", query: "song", want: "song_one.mp3", wantOK: true},
		{name: "substring ignores case", query: "Song_One", want: "song_one.mp3", wantOK: true},
		{name: "fuzzy above cutoff", query: "sng_one.mp3", want: "song_one.mp3", wantOK: true},
		{name: "fuzzy below cutoff", query: "songg", wantOK: false},
		{name: "unsupported extension ignored", query: "notes", wantOK: false},
		{name: "empty query", query: "  ", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := c.Match(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_ExactBeatsSubstring(t *testing.T) {
	c := newCatalog(t, "intro.mp3.mp3", "intro.mp3")

	got, ok, err := c.Match("intro.mp3")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "intro.mp3", got)
}

func TestCatalog_MissingDirIsCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "media")
	c := New(dir)

	got, ok, err := c.Match("anything")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, got)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCatalog_ListSkipsDirectories(t *testing.T) {
	c := newCatalog(t, "b.mp3", "a.ogg")
	require.NoError(t, os.Mkdir(filepath.Join(c.Dir(), "sub.mp3"), 0o755))

	files, err := c.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ogg", "b.mp3"}, files)
}

func TestNew_NormalizesExtensions(t *testing.T) {
	c := newCatalog(t, "loop.WAV", "clip.mp3")
	c = New(c.Dir(), "wav", " ")

	files, err := c.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"loop.WAV"}, files)
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("abc", "abc"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 1e-9)
	assert.Less(t, Similarity("songg", "song_one.mp3"), MinSimilarity)
}

func TestIsMediaURL(t *testing.T) {
	c := New(t.TempDir())
	tests := []struct {
		in   string
		want bool
	}{
		{"https://cdn.example.org/radio/show.MP3", true},
		{"http://example.org/a.ogg?token=1", true},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", false},
		{"https://example.org/stream", false},
		{"ftp://example.org/a.mp3", false},
		{"song.mp3", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.IsMediaURL(tt.in), tt.in)
	}
}
