package discord

import (
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/keshon/media-bot/internal/music/player"
	"github.com/keshon/media-bot/internal/music/sources"
	"github.com/keshon/media-bot/internal/templates"
)

// notifier posts player events to the text channel the guild last used for
// a command.
func (b *Bot) notifier(guildID string) player.Notifier {
	return func(ev player.Event) {
		b.send(b.textChannel(guildID), eventMessage(b.deps.Templates, ev))
	}
}

func eventMessage(tpl *templates.Templates, ev player.Event) string {
	switch ev.Type {
	case player.EventTrackStarted:
		return templates.Render(tpl.NowPlaying, "title", ev.Entry.Title, "volume", strconv.Itoa(ev.Volume))
	case player.EventTrackFailed:
		return templates.Render(tpl.TrackFailed, "title", ev.Entry.Title, "error", failureReason(ev.Err))
	case player.EventQueueEnded:
		return tpl.QueueEnded
	case player.EventStopped:
		return tpl.Stopped
	default:
		return ""
	}
}

func failureReason(err error) string {
	switch {
	case err == nil:
		return "unknown error"
	case errors.Is(err, sources.ErrNotFound):
		return "file not found"
	case errors.Is(err, sources.ErrResolution):
		return "could not resolve the source"
	case errors.Is(err, sources.ErrTransport):
		return "playback was interrupted"
	default:
		return err.Error()
	}
}
