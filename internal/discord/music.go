package discord

import (
	"github.com/cockroachdb/errors"

	"github.com/keshon/media-bot/internal/command"
	"github.com/keshon/media-bot/internal/music/player"
)

var _ command.Voice = (*Bot)(nil)

// Player returns the guild player, creating it on first use.
func (b *Bot) Player(guildID string) *player.Player {
	return b.session(guildID).player
}

func (b *Bot) session(guildID string) *guildSession {
	b.mu.Lock()
	defer b.mu.Unlock()

	if gs, ok := b.sessions[guildID]; ok {
		return gs
	}
	t := newVoiceTransport(b.dg, guildID, b.log)
	gs := &guildSession{
		transport: t,
		player:    player.New(guildID, b.deps.Resolver, t, b.deps.Volume, b.notifier(guildID)),
	}
	b.sessions[guildID] = gs
	return gs
}

// UserVoiceChannel finds the voice channel userID is connected to.
func (b *Bot) UserVoiceChannel(guildID, userID string) (string, error) {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return "", errors.Wrap(err, "error retrieving guild")
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs.ChannelID, nil
		}
	}
	return "", command.ErrNotInVoice
}

// JoinVoice connects the guild player to channelID and returns the channel
// name for replies.
func (b *Bot) JoinVoice(guildID, channelID string) (string, error) {
	if err := b.session(guildID).transport.Connect(channelID); err != nil {
		return "", err
	}
	if ch, err := b.dg.State.Channel(channelID); err == nil {
		return ch.Name, nil
	}
	return channelID, nil
}
