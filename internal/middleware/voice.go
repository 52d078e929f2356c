package middleware

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"github.com/keshon/media-bot/internal/command"
	"github.com/keshon/media-bot/internal/templates"
	"github.com/keshon/media-bot/pkg/cmd"
)

// WithVoice makes sure the bot is in the caller's voice channel before the
// command runs. Callers outside voice get the not_in_voice reply.
func WithVoice(voice command.Voice, tpl *templates.Templates) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			mc, ok := command.Context(inv)
			if !ok {
				return c.Run(ctx, inv)
			}

			channelID, err := voice.UserVoiceChannel(mc.GuildID, mc.UserID)
			if err != nil {
				if !errors.Is(err, command.ErrNotInVoice) {
					log.Warn().Err(err).Str("component", "discord").Str("guild", mc.GuildID).Msg("Voice state lookup failed")
				}
				return mc.Reply(tpl.NotInVoice)
			}

			name, err := voice.JoinVoice(mc.GuildID, channelID)
			if err != nil {
				return errors.Wrap(err, "join voice channel")
			}
			mc.VoiceChannelID, mc.VoiceChannelName = channelID, name
			return c.Run(ctx, inv)
		})
	}
}
