package discord

import (
	"bytes"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/media-bot/internal/health"
	"github.com/keshon/media-bot/internal/music/player"
	"github.com/keshon/media-bot/internal/music/sources"
	"github.com/keshon/media-bot/internal/music/stream"
	"github.com/keshon/media-bot/internal/templates"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		content string
		name    string
		args    []string
		ok      bool
	}{
		{"!play some song", "play", []string{"some", "song"}, true},
		{"!SKIP", "skip", []string{}, true},
		{"!  vol   30 ", "vol", []string{"30"}, true},
		{"play song", "", nil, false},
		{"!", "", nil, false},
		{"", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			name, args, ok := parseCommand(tt.content, "!")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
			if tt.ok {
				assert.Equal(t, tt.args, args)
			}
		})
	}
}

func TestEventMessage(t *testing.T) {
	tpl := templates.Default()
	entry := sources.NewEntry(sources.KindLocal, "song.mp3", "song.mp3", "alice")

	assert.Equal(t, "🎶 **Now Playing:** song.mp3 (volume 40%)",
		eventMessage(tpl, player.Event{Type: player.EventTrackStarted, Entry: entry, Volume: 40}))
	assert.Equal(t, "⚠️ Could not play **song.mp3**: file not found",
		eventMessage(tpl, player.Event{Type: player.EventTrackFailed, Entry: entry, Err: errors.Wrap(sources.ErrNotFound, "open")}))
	assert.Equal(t, tpl.QueueEnded, eventMessage(tpl, player.Event{Type: player.EventQueueEnded}))
	assert.Equal(t, tpl.Stopped, eventMessage(tpl, player.Event{Type: player.EventStopped}))
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "could not resolve the source", failureReason(errors.Mark(errors.New("boom"), sources.ErrResolution)))
	assert.Equal(t, "playback was interrupted", failureReason(errors.Mark(errors.New("eof"), sources.ErrTransport)))
	assert.Equal(t, "other", failureReason(errors.New("other")))
	assert.Equal(t, "unknown error", failureReason(nil))
}

func TestPresence(t *testing.T) {
	tpl := templates.Default()

	on := presence(tpl, health.State{IP: "1.2.3.4", Online: true}, "1.2.3.4:25565")
	assert.Equal(t, "online", on.Status)
	require.Len(t, on.Activities, 1)
	assert.Equal(t, "Server online · 1.2.3.4:25565", on.Activities[0].Name)

	off := presence(tpl, health.State{IP: "1.2.3.4"}, "1.2.3.4:25565")
	assert.Equal(t, "dnd", off.Status)
	assert.Equal(t, tpl.PresenceOffline, off.Activities[0].Name)
}

type countingEncoder struct{ n atomic.Int32 }

func (c *countingEncoder) Encode(pcm []int16, frameSize, maxDataBytes int) ([]byte, error) {
	c.n.Add(1)
	return []byte{0xF8}, nil
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func newTestTransport(enc stream.Encoder) *voiceTransport {
	return &voiceTransport{
		guildID:    "g1",
		newEncoder: func() (stream.Encoder, error) { return enc, nil },
		log:        zerolog.Nop(),
	}
}

func TestVoiceTransport_PlayNotConnected(t *testing.T) {
	tr := newTestTransport(&countingEncoder{})
	h := stream.NewHandle("t", io.NopCloser(bytes.NewReader(nil)), nil)
	err := tr.Play(h, func() float64 { return 1 }, func(error) {})
	assert.ErrorIs(t, err, errNotConnected)
}

func TestVoiceTransport_PlaysToEnd(t *testing.T) {
	enc := &countingEncoder{}
	tr := newTestTransport(enc)
	vc := &discordgo.VoiceConnection{OpusSend: make(chan []byte, 8)}
	tr.attach(vc)

	frames := 3
	pcm := make([]byte, frames*stream.FrameSize*stream.Channels*2)
	var cleaned atomic.Bool
	h := stream.NewHandle("t", io.NopCloser(bytes.NewReader(pcm)), func() { cleaned.Store(true) })

	done := make(chan error, 1)
	require.NoError(t, tr.Play(h, func() float64 { return 0.5 }, func(err error) { done <- err }))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("track did not finish")
	}
	assert.Equal(t, int32(frames), enc.n.Load())
	assert.Len(t, vc.OpusSend, frames)
	assert.True(t, cleaned.Load())

	// the transport is free for the next track
	h2 := stream.NewHandle("t2", io.NopCloser(bytes.NewReader(nil)), nil)
	require.NoError(t, tr.Play(h2, func() float64 { return 1 }, func(error) {}))
}

func TestVoiceTransport_StopReleasesHandle(t *testing.T) {
	tr := newTestTransport(&countingEncoder{})
	tr.attach(&discordgo.VoiceConnection{OpusSend: make(chan []byte)})

	var cleaned atomic.Bool
	h := stream.NewHandle("t", io.NopCloser(zeroReader{}), func() { cleaned.Store(true) })

	var calls atomic.Int32
	require.NoError(t, tr.Play(h, func() float64 { return 1 }, func(err error) {
		assert.NoError(t, err)
		calls.Add(1)
	}))

	err := tr.Play(h, func() float64 { return 1 }, func(error) {})
	assert.ErrorIs(t, err, errBusy)

	tr.Stop()
	assert.True(t, cleaned.Load())
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// a second stop is a no-op
	tr.Stop()
	assert.Equal(t, int32(1), calls.Load())
}
