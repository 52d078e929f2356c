package music

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/keshon/media-bot/internal/command"
	"github.com/keshon/media-bot/internal/music/sources"
	"github.com/keshon/media-bot/internal/templates"
	"github.com/keshon/media-bot/pkg/cmd"
)

type JoinCommand struct{ base }

func (c *JoinCommand) Name() string        { return "join" }
func (c *JoinCommand) Description() string { return "Join your voice channel" }
func (c *JoinCommand) Usage() string       { return "join" }

func (c *JoinCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := command.Context(inv)
	if !ok {
		return nil
	}
	return mc.Reply(templates.Render(c.tpl().Joined, "channel", mc.VoiceChannelName))
}

// PlayCommand queues a file from the media folder. A URL argument is
// handled like play-remote.
type PlayCommand struct{ base }

func (c *PlayCommand) Name() string        { return "play" }
func (c *PlayCommand) Description() string { return "Queue a file from the media folder" }
func (c *PlayCommand) Aliases() []string   { return []string{"p"} }
func (c *PlayCommand) Usage() string       { return "play <file name>" }

func (c *PlayCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := command.Context(inv)
	if !ok {
		return nil
	}
	query := strings.TrimSpace(strings.Join(inv.Args, " "))
	if query == "" {
		return usage(c.tpl(), mc, c.Usage())
	}

	if sources.IsURL(query) {
		e, err := c.remoteEntry(ctx, mc, query)
		if err != nil {
			return replyError(c.tpl(), mc, err)
		}
		return c.enqueue(mc, e)
	}

	name, found, err := c.svc.Catalog.Match(query)
	if err != nil {
		return errors.Wrap(err, "match media file")
	}
	if !found {
		return mc.Reply(templates.Render(c.tpl().NotFound, "query", query))
	}
	return c.enqueue(mc, sources.NewEntry(sources.KindLocal, name, name, mc.Username))
}

// PlayRemoteCommand queues a streaming-site track, a search phrase or a
// direct media link.
type PlayRemoteCommand struct{ base }

func (c *PlayRemoteCommand) Name() string        { return "play-remote" }
func (c *PlayRemoteCommand) Description() string { return "Search or link a track from a streaming site" }
func (c *PlayRemoteCommand) Aliases() []string   { return []string{"yt", "pr"} }
func (c *PlayRemoteCommand) Usage() string       { return "play-remote <search phrase or URL>" }

func (c *PlayRemoteCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := command.Context(inv)
	if !ok {
		return nil
	}
	query := strings.TrimSpace(strings.Join(inv.Args, " "))
	if query == "" {
		return usage(c.tpl(), mc, c.Usage())
	}

	e, err := c.remoteEntry(ctx, mc, query)
	if err != nil {
		return replyError(c.tpl(), mc, err)
	}
	return c.enqueue(mc, e)
}
