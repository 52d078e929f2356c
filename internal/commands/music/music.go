// Package music holds the playback commands.
package music

import (
	"context"
	"path"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"github.com/keshon/media-bot/internal/command"
	"github.com/keshon/media-bot/internal/middleware"
	"github.com/keshon/media-bot/internal/music/sources"
	"github.com/keshon/media-bot/internal/templates"
	"github.com/keshon/media-bot/pkg/cmd"
)

const category = "🎵 Music"

// Register adds the music commands to reg. Commands that need the bot in
// the caller's voice channel get the voice middleware innermost; mws wrap
// every command.
func Register(reg *cmd.Registry, svc *command.Services, mws ...cmd.Middleware) {
	voice := middleware.WithVoice(svc.Voice, svc.Templates)
	withVoice := append([]cmd.Middleware{voice}, mws...)

	command.Register(reg, &JoinCommand{base{svc}}, withVoice...)
	command.Register(reg, &PlayCommand{base{svc}}, withVoice...)
	command.Register(reg, &PlayRemoteCommand{base{svc}}, withVoice...)
	command.Register(reg, &VolumeCommand{base{svc}}, mws...)
	command.Register(reg, &SkipCommand{base{svc}}, mws...)
	command.Register(reg, &SkipToCommand{base{svc}}, mws...)
	command.Register(reg, &QueueCommand{base{svc}}, mws...)
	command.Register(reg, &ClearCommand{base{svc}}, mws...)
	command.Register(reg, &StopCommand{base{svc}}, mws...)
}

// base carries the metadata every music command shares.
type base struct {
	svc *command.Services
}

func (base) Group() string    { return "music" }
func (base) Category() string { return category }

func (b base) tpl() *templates.Templates { return b.svc.Templates }

// enqueue appends e to the guild queue and confirms with its position.
func (b base) enqueue(mc *command.MessageContext, e sources.Entry) error {
	pos, err := b.svc.Voice.Player(mc.GuildID).Enqueue(e)
	if err != nil {
		return errors.Wrap(err, "enqueue")
	}
	log.Info().Str("component", "discord").Str("guild", mc.GuildID).Str("user", mc.Username).
		Str("kind", e.Kind.String()).Str("title", e.Title).Int("position", pos).Msg("Track queued")
	return mc.Reply(templates.Render(b.tpl().Added, "title", e.Title, "position", strconv.Itoa(pos)))
}

// remoteEntry turns play-remote input into an entry: media file URLs are
// streamed as is, anything else goes through the streaming-site lookup.
func (b base) remoteEntry(ctx context.Context, mc *command.MessageContext, query string) (sources.Entry, error) {
	if b.svc.Catalog.IsMediaURL(query) {
		title := path.Base(strings.SplitN(query, "?", 2)[0])
		return sources.NewEntry(sources.KindDirectURL, title, query, mc.Username), nil
	}

	_ = mc.Reply(templates.Render(b.tpl().Searching, "query", query))
	e, err := b.svc.Lookup.Lookup(ctx, query)
	if err != nil {
		return sources.Entry{}, err
	}
	e.RequestedBy = mc.Username
	return e, nil
}

func usage(tpl *templates.Templates, mc *command.MessageContext, u string) error {
	return mc.Reply(templates.Render(tpl.Usage, "usage", u))
}

func replyError(tpl *templates.Templates, mc *command.MessageContext, err error) error {
	return mc.Reply(templates.Render(tpl.Error, "error", err.Error()))
}
