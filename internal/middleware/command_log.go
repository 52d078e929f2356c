package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/keshon/media-bot/internal/command"
	"github.com/keshon/media-bot/internal/storage"
	"github.com/keshon/media-bot/pkg/cmd"
)

// WithCommandLogger records every executed command in the guild journal.
func WithCommandLogger() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			err := c.Run(ctx, inv)

			mc, ok := command.Context(inv)
			if !ok || mc.Storage == nil || mc.GuildID == "" {
				return err
			}
			rec := storage.CommandHistoryRecord{
				ChannelID: mc.ChannelID,
				UserID:    mc.UserID,
				Username:  mc.Username,
				Command:   c.Name(),
				Param:     strings.Join(inv.Args, " "),
				Datetime:  time.Now(),
			}
			rec.ChannelName, rec.GuildName = names(mc.Session, mc.GuildID, mc.ChannelID)
			if e := mc.Storage.AppendCommandToHistory(mc.GuildID, rec); e != nil {
				log.Warn().Err(e).Str("component", "discord").Str("command", c.Name()).Msg("Failed to log command")
			}
			return err
		})
	}
}

// names resolves channel and guild names from the session state cache.
func names(s *discordgo.Session, guildID, channelID string) (channel, guild string) {
	if s == nil || s.State == nil {
		return "", ""
	}
	if ch, err := s.State.Channel(channelID); err == nil {
		channel = ch.Name
	}
	if g, err := s.State.Guild(guildID); err == nil {
		guild = g.Name
	}
	return channel, guild
}
