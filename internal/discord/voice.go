package discord

import (
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/keshon/media-bot/internal/music/stream"
)

var (
	errNotConnected = errors.New("not connected to a voice channel")
	errBusy         = errors.New("a track is already streaming")
)

// voiceTransport streams opus frames into one guild voice connection.
// It implements player.Transport.
type voiceTransport struct {
	dg         *discordgo.Session
	guildID    string
	newEncoder func() (stream.Encoder, error)
	log        zerolog.Logger

	mu       sync.Mutex
	vc       *discordgo.VoiceConnection
	handle   *stream.Handle
	stop     chan struct{}
	finished chan struct{}
}

func newVoiceTransport(dg *discordgo.Session, guildID string, log zerolog.Logger) *voiceTransport {
	return &voiceTransport{
		dg:         dg,
		guildID:    guildID,
		newEncoder: stream.NewOpusEncoder,
		log:        log.With().Str("component", "voice").Str("guild", guildID).Logger(),
	}
}

// Connect joins channelID, reusing the open connection when it already
// points there.
func (t *voiceTransport) Connect(channelID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.vc != nil && t.vc.ChannelID == channelID {
		return nil
	}
	vc, err := t.dg.ChannelVoiceJoin(t.guildID, channelID, false, true)
	if err != nil {
		return errors.Wrap(err, "failed to join voice channel")
	}
	t.vc = vc
	t.log.Info().Str("channel", channelID).Msg("Joined voice channel")
	return nil
}

func (t *voiceTransport) attach(vc *discordgo.VoiceConnection) {
	t.mu.Lock()
	t.vc = vc
	t.mu.Unlock()
}

func (t *voiceTransport) Play(h *stream.Handle, gain func() float64, done func(err error)) error {
	t.mu.Lock()
	vc := t.vc
	if vc == nil {
		t.mu.Unlock()
		return errNotConnected
	}
	if t.stop != nil {
		t.mu.Unlock()
		return errBusy
	}
	enc, err := t.newEncoder()
	if err != nil {
		t.mu.Unlock()
		return err
	}
	stop, finished := make(chan struct{}), make(chan struct{})
	t.handle, t.stop, t.finished = h, stop, finished
	t.mu.Unlock()

	go func() {
		if err := vc.Speaking(true); err != nil {
			t.log.Debug().Err(err).Msg("Speaking(true) failed")
		}
		err := stream.Pump(h, enc, gain, stop, vc.OpusSend)
		if err := vc.Speaking(false); err != nil {
			t.log.Debug().Err(err).Msg("Speaking(false) failed")
		}
		_ = h.Close()

		t.mu.Lock()
		if t.stop == stop {
			t.handle, t.stop, t.finished = nil, nil, nil
		}
		t.mu.Unlock()

		close(finished)
		done(err)
	}()
	return nil
}

// Stop ends the current stream. Closing the handle unblocks a read stalled
// on a slow source.
func (t *voiceTransport) Stop() {
	t.mu.Lock()
	h, stop, finished := t.handle, t.stop, t.finished
	t.handle, t.stop, t.finished = nil, nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	_ = h.Close()
	<-finished
}

func (t *voiceTransport) Disconnect() error {
	t.Stop()

	t.mu.Lock()
	vc := t.vc
	t.vc = nil
	t.mu.Unlock()

	if vc == nil {
		return nil
	}
	t.log.Info().Msg("Leaving voice channel")
	return vc.Disconnect()
}
