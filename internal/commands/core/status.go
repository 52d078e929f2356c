package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/media-bot/internal/command"
	"github.com/keshon/media-bot/internal/templates"
	"github.com/keshon/media-bot/pkg/cmd"
	"github.com/keshon/media-bot/pkg/util"
)

// StatusCommand probes the game server and reports the fresh result.
type StatusCommand struct{ svc *command.Services }

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Check whether the game server is reachable" }
func (c *StatusCommand) Aliases() []string   { return []string{"server"} }
func (c *StatusCommand) Usage() string       { return "status" }
func (c *StatusCommand) Group() string       { return "core" }
func (c *StatusCommand) Category() string    { return "🕯️ Information" }

func (c *StatusCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := command.Context(inv)
	if !ok {
		return nil
	}
	tpl := c.svc.Templates
	if c.svc.Health == nil {
		return mc.Reply(tpl.StatusDisabled)
	}

	s := c.svc.Health.Check(ctx)
	checked := util.FormatDate(s.CheckedAt, "hh:mm:ss")
	switch {
	case !s.Known():
		return mc.Reply(templates.Render(tpl.StatusUnknown, "checked", checked))
	case s.Online:
		return mc.Reply(templates.Render(tpl.StatusOnline, "address", c.svc.Health.Address(), "checked", checked))
	default:
		return mc.Reply(templates.Render(tpl.StatusOffline, "address", c.svc.Health.Address(), "checked", checked))
	}
}

// LogCommand shows the guild command journal, latest first. From a direct
// message the developer names the guild as the first argument.
type LogCommand struct{}

func (c *LogCommand) Name() string        { return "cmd-log" }
func (c *LogCommand) Description() string { return "Review recent commands" }
func (c *LogCommand) Aliases() []string   { return []string{"history"} }
func (c *LogCommand) Usage() string       { return "cmd-log [guild-id]" }
func (c *LogCommand) Group() string       { return "core" }
func (c *LogCommand) Category() string    { return "🛠️ Maintenance" }
func (c *LogCommand) DeveloperDM() bool   { return true }

func (c *LogCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := command.Context(inv)
	if !ok || mc.Storage == nil {
		return nil
	}
	guildID := mc.GuildID
	if guildID == "" {
		if len(inv.Args) == 0 {
			return mc.Reply("Usage: cmd-log <guild-id>")
		}
		guildID = inv.Args[0]
	}
	records, err := mc.Storage.FetchCommandHistory(guildID)
	if err != nil {
		return mc.Reply(fmt.Sprintf("Failed to fetch command logs: %v", err))
	}
	if len(records) == 0 {
		return mc.Reply("No command logs found.")
	}

	var sb strings.Builder
	sb.WriteString("```md\n")
	sb.WriteString(fmt.Sprintf("%-19s  %-15s  %s\n", "# Datetime", "# Username", "# Command"))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		line := fmt.Sprintf("%-19s  %-15s  %s %s\n", util.FormatDate(r.Datetime, "YYYY-MM-DD hh:mm:ss"), r.Username, r.Command, r.Param)
		if sb.Len()+len(line)+3 > discordMaxMessageLength {
			break
		}
		sb.WriteString(line)
	}
	sb.WriteString("```")
	return mc.Reply(sb.String())
}
