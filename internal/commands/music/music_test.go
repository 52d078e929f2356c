package music

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/media-bot/internal/command"
	"github.com/keshon/media-bot/internal/music/catalog"
	"github.com/keshon/media-bot/internal/music/player"
	"github.com/keshon/media-bot/internal/music/sources"
	"github.com/keshon/media-bot/internal/music/stream"
	"github.com/keshon/media-bot/internal/music/volume"
	"github.com/keshon/media-bot/internal/templates"
	"github.com/keshon/media-bot/pkg/cmd"
)

type nopResolver struct{}

func (nopResolver) Resolve(ctx context.Context, e sources.Entry) (*stream.Handle, error) {
	return stream.NewHandle(e.Title, io.NopCloser(strings.NewReader("")), nil), nil
}

// holdTransport plays until stopped.
type holdTransport struct {
	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func (h *holdTransport) Play(hd *stream.Handle, gain func() float64, done func(error)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	stop, finished := make(chan struct{}), make(chan struct{})
	h.stop, h.done = stop, finished
	go func() {
		<-stop
		_ = hd.Close()
		close(finished)
		done(nil)
	}()
	return nil
}

func (h *holdTransport) Stop() {
	h.mu.Lock()
	stop, finished := h.stop, h.done
	h.stop = nil
	h.mu.Unlock()
	if stop != nil {
		close(stop)
		<-finished
	}
}

func (h *holdTransport) Disconnect() error { return nil }

type fakeVoice struct{ p *player.Player }

func (f *fakeVoice) UserVoiceChannel(guildID, userID string) (string, error) { return "vc", nil }
func (f *fakeVoice) JoinVoice(guildID, channelID string) (string, error)     { return "General", nil }
func (f *fakeVoice) Player(guildID string) *player.Player                    { return f.p }

type fakeLookup struct {
	entry sources.Entry
	err   error
	calls int
}

func (f *fakeLookup) Lookup(ctx context.Context, query string) (sources.Entry, error) {
	f.calls++
	return f.entry, f.err
}

type env struct {
	reg     *cmd.Registry
	svc     *command.Services
	player  *player.Player
	lookup  *fakeLookup
	replies []string
}

func newEnv(t *testing.T, files ...string) *env {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644))
	}
	vol := volume.New(volume.DefaultPercent)
	p := player.New("g1", nopResolver{}, &holdTransport{}, vol, nil)
	t.Cleanup(p.Close)

	e := &env{reg: cmd.NewRegistry(), player: p, lookup: &fakeLookup{}}
	e.svc = &command.Services{
		Voice:     &fakeVoice{p: p},
		Catalog:   catalog.New(dir),
		Lookup:    e.lookup,
		Volume:    vol,
		Templates: templates.Default(),
		Registry:  e.reg,
	}
	Register(e.reg, e.svc)
	return e
}

func (e *env) run(t *testing.T, name string, args ...string) {
	t.Helper()
	c := e.reg.Get(name)
	require.NotNil(t, c, name)
	inv := &cmd.Invocation{Args: args, Data: &command.MessageContext{
		GuildID:  "g1",
		UserID:   "u1",
		Username: "alice",
		Reply: func(text string) error {
			e.replies = append(e.replies, text)
			return nil
		},
	}}
	require.NoError(t, c.Run(context.Background(), inv))
}

func (e *env) last() string {
	if len(e.replies) == 0 {
		return ""
	}
	return e.replies[len(e.replies)-1]
}

func TestJoin(t *testing.T) {
	e := newEnv(t)
	e.run(t, "join")
	assert.Equal(t, "👋 Joined **General**", e.last())
}

func TestPlay_LocalMatch(t *testing.T) {
	e := newEnv(t, "song_one.mp3", "other.mp3")
	e.run(t, "play", "Song", "One")

	assert.Equal(t, "✅ Added to queue: `song_one.mp3` (position 1)", e.last())
	assert.Eventually(t, func() bool {
		cur, ok, err := e.player.Current()
		return err == nil && ok && cur.Title == "song_one.mp3" && cur.Kind == sources.KindLocal
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPlay_NotFound(t *testing.T) {
	e := newEnv(t, "song_one.mp3")
	e.run(t, "play", "zzzzzz")
	assert.Equal(t, "❌ File not found matching: zzzzzz", e.last())

	q, err := e.player.Queue()
	require.NoError(t, err)
	assert.Empty(t, q)
}

func TestPlay_Usage(t *testing.T) {
	e := newEnv(t)
	e.run(t, "p")
	assert.Equal(t, "Usage: `play <file name>`", e.last())
}

func TestPlayRemote_SearchPhrase(t *testing.T) {
	e := newEnv(t)
	e.lookup.entry = sources.NewEntry(sources.KindRemoteSearch, "Lofi Beats", "https://www.youtube.com/watch?v=abcdefghijk", "")
	e.run(t, "play-remote", "lofi", "beats")

	require.Len(t, e.replies, 2)
	assert.Equal(t, "🔎 Searching for: **lofi beats**...", e.replies[0])
	assert.Equal(t, "✅ Added to queue: `Lofi Beats` (position 1)", e.replies[1])
	assert.Equal(t, 1, e.lookup.calls)
}

func TestPlayRemote_MediaURLSkipsLookup(t *testing.T) {
	e := newEnv(t)
	e.run(t, "yt", "https://cdn.example.org/shows/ep1.mp3?sig=1")

	assert.Equal(t, 0, e.lookup.calls)
	assert.Equal(t, "✅ Added to queue: `ep1.mp3` (position 1)", e.last())
	assert.Eventually(t, func() bool {
		cur, ok, _ := e.player.Current()
		return ok && cur.Kind == sources.KindDirectURL
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPlayRemote_LookupError(t *testing.T) {
	e := newEnv(t)
	e.lookup.err = errors.New("no results")
	e.run(t, "play-remote", "nothing")
	assert.Equal(t, "Error: no results", e.last())
}

func TestVolume(t *testing.T) {
	e := newEnv(t)

	e.run(t, "volume")
	assert.Equal(t, "🔊 Volume is 50%", e.last())

	e.run(t, "vol", "150")
	assert.Equal(t, "🔊 Volume set to 100%", e.last())
	assert.Equal(t, 100, e.svc.Volume.Get())

	e.run(t, "volume", "25%")
	assert.Equal(t, "🔊 Volume set to 25%", e.last())

	e.run(t, "volume", "loud")
	assert.Equal(t, "Usage: `volume [0-100]`", e.last())
	assert.Equal(t, 25, e.svc.Volume.Get())
}

func TestSkip_NothingPlaying(t *testing.T) {
	e := newEnv(t)
	e.run(t, "skip")
	assert.Equal(t, "Nothing is playing.", e.last())
}

func TestSkipTo_InvalidPosition(t *testing.T) {
	e := newEnv(t, "a.mp3", "b.mp3")
	e.run(t, "play", "a.mp3")
	e.run(t, "play", "b.mp3")

	e.run(t, "skip-to", "5")
	assert.Contains(t, e.last(), "Invalid position 5")

	e.run(t, "skip-to", "x")
	assert.Equal(t, "Usage: `skip-to <position>`", e.last())
}

func TestQueueAndClear(t *testing.T) {
	e := newEnv(t, "a.mp3", "b.mp3", "c.mp3")

	e.run(t, "queue")
	assert.Equal(t, "The queue is empty.", e.last())

	e.run(t, "play", "a.mp3")
	require.Eventually(t, func() bool {
		_, ok, _ := e.player.Current()
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	e.run(t, "play", "b.mp3")
	e.run(t, "play", "c.mp3")

	e.run(t, "q")
	assert.Equal(t, "📜 **Queue** (2 pending)\n▶️ a.mp3\n1. b.mp3 · requested by alice\n2. c.mp3 · requested by alice", e.last())

	e.run(t, "clear")
	assert.Equal(t, "🧹 Removed 2 entries from the queue.", e.last())
}

func TestStop(t *testing.T) {
	e := newEnv(t, "a.mp3")
	e.run(t, "play", "a.mp3")
	n := len(e.replies)

	e.run(t, "stop")
	assert.Len(t, e.replies, n)
	state, err := e.player.State()
	require.NoError(t, err)
	assert.Equal(t, player.StateIdle, state)
}
