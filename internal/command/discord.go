package command

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"

	"github.com/keshon/media-bot/internal/health"
	"github.com/keshon/media-bot/internal/music/catalog"
	"github.com/keshon/media-bot/internal/music/player"
	"github.com/keshon/media-bot/internal/music/sources"
	"github.com/keshon/media-bot/internal/music/volume"
	"github.com/keshon/media-bot/internal/storage"
	"github.com/keshon/media-bot/internal/templates"
	"github.com/keshon/media-bot/pkg/cmd"
)

// ErrNotInVoice is returned when the caller is not in a voice channel.
var ErrNotInVoice = errors.New("user not in any voice channel")

// MessageContext is what the Discord adapter passes in cmd.Invocation.Data
// for a prefix message command.
type MessageContext struct {
	Session *discordgo.Session // nil outside Discord
	Event   *discordgo.MessageCreate
	Storage *storage.Storage

	GuildID   string
	ChannelID string
	UserID    string
	Username  string

	// set by the voice middleware
	VoiceChannelID   string
	VoiceChannelName string

	Reply func(text string) error
}

// Context extracts the MessageContext from an invocation.
func Context(inv *cmd.Invocation) (*MessageContext, bool) {
	mc, ok := inv.Data.(*MessageContext)
	return mc, ok
}

// DiscordMeta is exposed by commands so help and middleware can read
// grouping and usage without depending on the concrete type.
type DiscordMeta interface {
	Group() string
	Category() string
	Usage() string
}

// DeveloperDM is implemented by maintenance commands the configured
// developer may also run from a direct message.
type DeveloperDM interface {
	DeveloperDM() bool
}

// Voice is what the bot offers commands for voice and playback.
type Voice interface {
	UserVoiceChannel(guildID, userID string) (string, error)
	JoinVoice(guildID, channelID string) (name string, err error)
	Player(guildID string) *player.Player
}

// Lookuper finds a streaming-site track for play-remote.
type Lookuper interface {
	Lookup(ctx context.Context, query string) (sources.Entry, error)
}

// Services are the shared components command handlers work with.
type Services struct {
	Prefix    string
	Voice     Voice
	Catalog   *catalog.Catalog
	Lookup    Lookuper
	Volume    *volume.Controller
	Templates *templates.Templates
	Health    *health.Monitor // nil when monitoring is disabled
	Registry  *cmd.Registry
}

// Register applies mws to c and adds it to reg.
func Register(reg *cmd.Registry, c cmd.Command, mws ...cmd.Middleware) {
	reg.Register(cmd.Apply(c, mws...))
}
