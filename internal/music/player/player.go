// Package player runs the per-guild playback queue.
package player

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/keshon/media-bot/internal/music/sources"
	"github.com/keshon/media-bot/internal/music/stream"
	"github.com/keshon/media-bot/internal/music/volume"
)

// ErrClosed is returned by operations on a closed player.
var ErrClosed = errors.New("player is closed")

// eventBuffer bounds undelivered notifications before they are dropped.
const eventBuffer = 64

// Resolver opens a stream for an entry. It is called off the control loop.
type Resolver interface {
	Resolve(ctx context.Context, e sources.Entry) (*stream.Handle, error)
}

// Transport is the voice connection a player streams into.
type Transport interface {
	// Play starts streaming h in the background. done is called exactly once,
	// after h has been released; err is nil for a natural end or a Stop.
	Play(h *stream.Handle, gain func() float64, done func(err error)) error
	// Stop ends the current stream and returns once it is released.
	Stop()
	// Disconnect leaves the voice channel.
	Disconnect() error
}

type session struct {
	id       string
	entry    sources.Entry
	handle   *stream.Handle
	skipping bool
}

// Player owns the queue of one voice connection. Every state transition
// runs on a single control-loop goroutine; public methods post to it and
// wait for the result.
type Player struct {
	guildID   string
	resolver  Resolver
	transport Transport
	volume    *volume.Controller
	notify    Notifier
	log       zerolog.Logger

	requests chan func()
	events   chan Event
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}

	// owned by the control loop
	queue   []sources.Entry
	current *session
	state   State
	gen     uint64
}

// New creates a player and starts its control loop. notify may be nil.
func New(guildID string, resolver Resolver, transport Transport, vol *volume.Controller, notify Notifier) *Player {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		guildID:   guildID,
		resolver:  resolver,
		transport: transport,
		volume:    vol,
		notify:    notify,
		log:       log.With().Str("component", "player").Str("guild", guildID).Logger(),
		requests:  make(chan func()),
		events:    make(chan Event, eventBuffer),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go p.run()
	go p.dispatch()
	return p
}

// Enqueue appends e and starts playback when idle. It returns the 1-based
// position of e in the pending queue.
func (p *Player) Enqueue(e sources.Entry) (int, error) {
	var pos int
	err := p.do(func() {
		p.queue = append(p.queue, e)
		pos = len(p.queue)
		p.log.Info().Str("title", e.Title).Str("kind", e.Kind.String()).Int("queue_len", pos).Msg("Enqueued")
		if p.state == StateIdle {
			p.advance()
		}
	})
	return pos, err
}

// Skip ends the current track; the next one starts when the stream is
// released. Returns sources.ErrNotPlaying when nothing is playing.
func (p *Player) Skip() error {
	var err error
	if doErr := p.do(func() { err = p.skip() }); doErr != nil {
		return doErr
	}
	return err
}

// SkipTo drops the pending entries before position pos (1-based) and skips
// to it. Positions outside the queue return sources.ErrInvalidIndex and
// change nothing.
func (p *Player) SkipTo(pos int) error {
	var err error
	doErr := p.do(func() {
		if pos < 1 || pos > len(p.queue) {
			err = errors.Wrapf(sources.ErrInvalidIndex, "position %d, queue has %d", pos, len(p.queue))
			return
		}
		p.queue = slices.Clone(p.queue[pos-1:])
		p.log.Info().Int("position", pos).Int("queue_len", len(p.queue)).Msg("Skip to")

		switch p.state {
		case StatePlaying:
			if p.current != nil && p.current.skipping {
				// the pending completion advances into the new front
				return
			}
			err = p.skip()
		case StateResolving:
			// drop the in-flight resolution so the target plays next
			p.gen++
			p.advance()
		default:
			p.advance()
		}
	})
	if doErr != nil {
		return doErr
	}
	return err
}

// Clear empties the pending queue and returns how many entries it removed.
// The current track keeps playing.
func (p *Player) Clear() (int, error) {
	var n int
	err := p.do(func() {
		n = len(p.queue)
		p.queue = nil
	})
	return n, err
}

// Stop clears the queue, ends the current stream without advancing and
// disconnects from voice.
func (p *Player) Stop() error {
	var err error
	if doErr := p.do(func() { err = p.stop() }); doErr != nil {
		return doErr
	}
	return err
}

// Queue returns a copy of the pending entries.
func (p *Player) Queue() ([]sources.Entry, error) {
	var q []sources.Entry
	err := p.do(func() { q = slices.Clone(p.queue) })
	return q, err
}

// Current returns the playing entry.
func (p *Player) Current() (sources.Entry, bool, error) {
	var (
		e  sources.Entry
		ok bool
	)
	err := p.do(func() {
		if p.current != nil {
			e, ok = p.current.entry, true
		}
	})
	return e, ok, err
}

// State returns the engine state.
func (p *Player) State() (State, error) {
	var s State
	err := p.do(func() { s = p.state })
	return s, err
}

// Volume returns the gain percent applied to the stream.
func (p *Player) Volume() int {
	return p.volume.Get()
}

// Close stops playback and shuts the control loop down.
func (p *Player) Close() {
	_ = p.do(func() {
		if p.state != StateIdle {
			_ = p.stop()
		}
	})
	p.cancel()
	<-p.done
}

func (p *Player) run() {
	defer close(p.done)
	for {
		select {
		case fn := <-p.requests:
			fn()
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Player) dispatch() {
	for {
		select {
		case ev := <-p.events:
			if p.notify != nil {
				p.notify(ev)
			}
		case <-p.ctx.Done():
			return
		}
	}
}

// do runs fn on the control loop and waits for it.
func (p *Player) do(fn func()) error {
	finished := make(chan struct{})
	if !p.post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}
	<-finished
	return nil
}

// post hands fn to the control loop without waiting for it to run.
func (p *Player) post(fn func()) bool {
	select {
	case p.requests <- fn:
		return true
	case <-p.ctx.Done():
		return false
	}
}

func (p *Player) emit(ev Event) {
	select {
	case p.events <- ev:
	default:
		p.log.Warn().Str("event", ev.Type.String()).Msg("Player event dropped (channel full)")
	}
}

// advance starts the next entry. Resolution runs on a worker goroutine and
// re-enters the loop through onResolved.
func (p *Player) advance() {
	if len(p.queue) == 0 {
		p.current = nil
		p.state = StateIdle
		p.log.Info().Msg("Queue is empty, nothing to play")
		p.emit(Event{Type: EventQueueEnded})
		return
	}

	entry := p.queue[0]
	p.queue = p.queue[1:]
	p.state = StateResolving
	gen := p.gen

	p.log.Debug().Str("title", entry.Title).Msg("Resolving next entry")
	go func() {
		h, err := p.resolver.Resolve(p.ctx, entry)
		if !p.post(func() { p.onResolved(gen, entry, h, err) }) && h != nil {
			_ = h.Close()
		}
	}()
}

func (p *Player) onResolved(gen uint64, entry sources.Entry, h *stream.Handle, err error) {
	if gen != p.gen {
		if h != nil {
			_ = h.Close()
		}
		return
	}

	if err != nil {
		p.log.Warn().Err(err).Str("title", entry.Title).Msg("Skipping entry that failed to resolve")
		p.emit(Event{Type: EventTrackFailed, Entry: entry, Err: err})
		p.advance()
		return
	}

	if h.Title != "" {
		entry.Title = h.Title
	}

	s := &session{id: uuid.NewString(), entry: entry, handle: h}
	if err := p.transport.Play(h, p.volume.Gain, p.completion(s.id)); err != nil {
		_ = h.Close()
		err = errors.Mark(errors.Wrap(err, "start playback"), sources.ErrTransport)
		p.log.Warn().Err(err).Str("title", entry.Title).Msg("Skipping entry that failed to start")
		p.emit(Event{Type: EventTrackFailed, Entry: entry, Err: err})
		p.advance()
		return
	}

	p.current = s
	p.state = StatePlaying
	p.log.Info().Str("title", entry.Title).Str("session", s.id).Int("queue_len", len(p.queue)).Msg("Now playing")
	p.emit(Event{Type: EventTrackStarted, Entry: entry, Volume: p.volume.Get()})
}

// completion builds the transport callback for session id. The transport
// may call it from inside Stop, so it must not block the caller.
func (p *Player) completion(id string) func(error) {
	return func(err error) {
		go p.post(func() { p.onEnded(id, err) })
	}
}

func (p *Player) onEnded(id string, err error) {
	if p.current == nil || p.current.id != id {
		return
	}
	if err != nil {
		p.log.Warn().Err(err).Str("title", p.current.entry.Title).Msg("Playback failed")
		p.emit(Event{Type: EventTrackFailed, Entry: p.current.entry, Err: errors.Mark(err, sources.ErrTransport)})
	}
	p.current = nil
	p.advance()
}

func (p *Player) skip() error {
	if p.state != StatePlaying || p.current == nil || p.current.skipping {
		return sources.ErrNotPlaying
	}
	p.current.skipping = true
	p.log.Info().Str("title", p.current.entry.Title).Msg("Skipping current track")
	p.transport.Stop()
	return nil
}

func (p *Player) stop() error {
	p.gen++
	p.queue = nil
	if p.current != nil {
		p.transport.Stop()
		p.current = nil
	}
	p.state = StateIdle
	p.log.Info().Msg("Playback stopped")
	p.emit(Event{Type: EventStopped})
	if err := p.transport.Disconnect(); err != nil {
		return errors.Mark(errors.Wrap(err, "disconnect"), sources.ErrTransport)
	}
	return nil
}
