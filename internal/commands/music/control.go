package music

import (
	"context"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/keshon/media-bot/internal/command"
	"github.com/keshon/media-bot/internal/music/sources"
	"github.com/keshon/media-bot/internal/templates"
	"github.com/keshon/media-bot/pkg/cmd"
)

type VolumeCommand struct{ base }

func (c *VolumeCommand) Name() string        { return "volume" }
func (c *VolumeCommand) Description() string { return "Show or set playback volume" }
func (c *VolumeCommand) Aliases() []string   { return []string{"vol"} }
func (c *VolumeCommand) Usage() string       { return "volume [0-100]" }

func (c *VolumeCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := command.Context(inv)
	if !ok {
		return nil
	}
	if len(inv.Args) == 0 {
		return mc.Reply(templates.Render(c.tpl().VolumeCurrent, "volume", strconv.Itoa(c.svc.Volume.Get())))
	}

	percent, err := strconv.Atoi(strings.TrimSuffix(inv.Args[0], "%"))
	if err != nil {
		return usage(c.tpl(), mc, c.Usage())
	}
	set := c.svc.Volume.Set(percent)
	return mc.Reply(templates.Render(c.tpl().VolumeSet, "volume", strconv.Itoa(set)))
}

type SkipCommand struct{ base }

func (c *SkipCommand) Name() string        { return "skip" }
func (c *SkipCommand) Description() string { return "Skip the current track" }
func (c *SkipCommand) Aliases() []string   { return []string{"next", "s"} }
func (c *SkipCommand) Usage() string       { return "skip" }

func (c *SkipCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := command.Context(inv)
	if !ok {
		return nil
	}
	err := c.svc.Voice.Player(mc.GuildID).Skip()
	switch {
	case errors.Is(err, sources.ErrNotPlaying):
		return mc.Reply(c.tpl().NothingPlaying)
	case err != nil:
		return errors.Wrap(err, "skip")
	}
	return mc.Reply(c.tpl().Skipped)
}

type SkipToCommand struct{ base }

func (c *SkipToCommand) Name() string        { return "skip-to" }
func (c *SkipToCommand) Description() string { return "Jump to a position in the queue" }
func (c *SkipToCommand) Aliases() []string   { return []string{"skipto", "jump"} }
func (c *SkipToCommand) Usage() string       { return "skip-to <position>" }

func (c *SkipToCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := command.Context(inv)
	if !ok {
		return nil
	}
	if len(inv.Args) != 1 {
		return usage(c.tpl(), mc, c.Usage())
	}
	pos, err := strconv.Atoi(inv.Args[0])
	if err != nil {
		return usage(c.tpl(), mc, c.Usage())
	}

	p := c.svc.Voice.Player(mc.GuildID)
	err = p.SkipTo(pos)
	switch {
	case errors.Is(err, sources.ErrInvalidIndex):
		q, _ := p.Queue()
		return mc.Reply(templates.Render(c.tpl().InvalidIndex, "position", inv.Args[0], "length", strconv.Itoa(len(q))))
	case err != nil:
		return errors.Wrap(err, "skip to")
	}
	return mc.Reply(templates.Render(c.tpl().SkippedTo, "position", strconv.Itoa(pos)))
}

type ClearCommand struct{ base }

func (c *ClearCommand) Name() string        { return "clear" }
func (c *ClearCommand) Description() string { return "Remove all pending tracks" }
func (c *ClearCommand) Usage() string       { return "clear" }

func (c *ClearCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := command.Context(inv)
	if !ok {
		return nil
	}
	n, err := c.svc.Voice.Player(mc.GuildID).Clear()
	if err != nil {
		return errors.Wrap(err, "clear")
	}
	return mc.Reply(templates.Render(c.tpl().Cleared, "count", strconv.Itoa(n)))
}

// StopCommand stops playback and leaves voice. The stopped notice comes
// from the player event.
type StopCommand struct{ base }

func (c *StopCommand) Name() string        { return "stop" }
func (c *StopCommand) Description() string { return "Stop playback, clear the queue and leave voice" }
func (c *StopCommand) Aliases() []string   { return []string{"leave"} }
func (c *StopCommand) Usage() string       { return "stop" }

func (c *StopCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := command.Context(inv)
	if !ok {
		return nil
	}
	if err := c.svc.Voice.Player(mc.GuildID).Stop(); err != nil {
		return errors.Wrap(err, "stop")
	}
	return nil
}
