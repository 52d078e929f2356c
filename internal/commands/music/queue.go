package music

import (
	"context"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/keshon/media-bot/internal/command"
	"github.com/keshon/media-bot/internal/templates"
	"github.com/keshon/media-bot/pkg/cmd"
)

// queueListLimit caps the listed pending entries to stay under the
// Discord message size.
const queueListLimit = 15

type QueueCommand struct{ base }

func (c *QueueCommand) Name() string        { return "queue" }
func (c *QueueCommand) Description() string { return "Show the current track and pending queue" }
func (c *QueueCommand) Aliases() []string   { return []string{"q", "list"} }
func (c *QueueCommand) Usage() string       { return "queue" }

func (c *QueueCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := command.Context(inv)
	if !ok {
		return nil
	}
	p := c.svc.Voice.Player(mc.GuildID)
	current, playing, err := p.Current()
	if err != nil {
		return errors.Wrap(err, "current")
	}
	pending, err := p.Queue()
	if err != nil {
		return errors.Wrap(err, "queue")
	}
	if !playing && len(pending) == 0 {
		return mc.Reply(c.tpl().QueueEmpty)
	}

	tpl := c.tpl()
	var sb strings.Builder
	sb.WriteString(templates.Render(tpl.QueueHeader, "count", strconv.Itoa(len(pending))))
	if playing {
		sb.WriteString("\n")
		sb.WriteString(templates.Render(tpl.QueueCurrent, "title", current.Title))
	}
	for i, e := range pending {
		if i == queueListLimit {
			sb.WriteString("\n… +" + strconv.Itoa(len(pending)-i))
			break
		}
		sb.WriteString("\n")
		sb.WriteString(templates.Render(tpl.QueueLine,
			"position", strconv.Itoa(i+1),
			"title", e.Title,
			"user", e.RequestedBy,
		))
	}
	return mc.Reply(sb.String())
}
