package player

import "github.com/keshon/media-bot/internal/music/sources"

// State is the engine state of one voice connection.
type State int

const (
	StateIdle      State = iota // nothing playing
	StateResolving              // next entry is being resolved
	StatePlaying                // a stream is live
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// EventType identifies a user-facing playback notification.
type EventType int

const (
	EventTrackStarted EventType = iota
	EventTrackFailed
	EventQueueEnded
	EventStopped
)

func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackFailed:
		return "track_failed"
	case EventQueueEnded:
		return "queue_ended"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

func (e EventType) Emoji() string {
	switch e {
	case EventTrackStarted:
		return "🎶"
	case EventTrackFailed:
		return "❌"
	case EventQueueEnded:
		return "📭"
	case EventStopped:
		return "🛑"
	default:
		return ""
	}
}

// Event is emitted on every change of the playing track.
type Event struct {
	Type   EventType
	Entry  sources.Entry // zero for queue_ended and stopped
	Volume int           // gain percent at track start
	Err    error         // set for track_failed
}

// Notifier receives events in order on a dedicated goroutine.
type Notifier func(Event)
