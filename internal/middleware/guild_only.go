package middleware

import (
	"context"

	"github.com/keshon/media-bot/internal/command"
	"github.com/keshon/media-bot/internal/templates"
	"github.com/keshon/media-bot/pkg/cmd"
)

// WithGuildOnly wraps a command to refuse direct messages. The developer
// (empty disables the exemption) may still run commands that implement
// command.DeveloperDM.
func WithGuildOnly(tpl *templates.Templates, developerID string) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		dm, _ := cmd.Root(c).(command.DeveloperDM)
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			mc, ok := command.Context(inv)
			if ok && mc.GuildID == "" {
				if developerID == "" || mc.UserID != developerID || dm == nil || !dm.DeveloperDM() {
					return mc.Reply(tpl.GuildOnly)
				}
			}
			return c.Run(ctx, inv)
		})
	}
}
