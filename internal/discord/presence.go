package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/media-bot/internal/health"
	"github.com/keshon/media-bot/internal/templates"
)

// UpdatePresence mirrors the game server health in the bot status. It is
// meant as the health monitor's change hook.
func (b *Bot) UpdatePresence(s health.State) {
	address := s.IP
	if b.deps.Health != nil {
		address = b.deps.Health.Address()
	}
	data := presence(b.deps.Templates, s, address)
	if err := b.dg.UpdateStatusComplex(data); err != nil {
		b.log.Warn().Err(err).Msg("Failed to update presence")
		return
	}
	b.log.Debug().Str("status", data.Status).Msg("Presence updated")
}

func presence(tpl *templates.Templates, s health.State, address string) discordgo.UpdateStatusData {
	if s.Online {
		return discordgo.UpdateStatusData{
			Status: string(discordgo.StatusOnline),
			Activities: []*discordgo.Activity{{
				Name: templates.Render(tpl.PresenceOnline, "address", address),
				Type: discordgo.ActivityTypeGame,
			}},
		}
	}
	return discordgo.UpdateStatusData{
		Status: string(discordgo.StatusDoNotDisturb),
		Activities: []*discordgo.Activity{{
			Name: tpl.PresenceOffline,
			Type: discordgo.ActivityTypeGame,
		}},
	}
}
