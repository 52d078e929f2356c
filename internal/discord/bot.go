// Package discord connects the command registry and the guild players to a
// Discord gateway session.
package discord

import (
	"context"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/keshon/media-bot/internal/command"
	"github.com/keshon/media-bot/internal/health"
	"github.com/keshon/media-bot/internal/music/player"
	"github.com/keshon/media-bot/internal/music/volume"
	"github.com/keshon/media-bot/internal/storage"
	"github.com/keshon/media-bot/internal/templates"
	"github.com/keshon/media-bot/pkg/cmd"
	"github.com/keshon/media-bot/pkg/jobmgr"
)

// commandTimeout bounds one command run, remote lookups included.
const commandTimeout = 2 * time.Minute

// Deps are the components the bot wires together.
type Deps struct {
	Token     string
	Prefix    string
	Storage   *storage.Storage
	Registry  *cmd.Registry
	Resolver  player.Resolver
	Volume    *volume.Controller
	Templates *templates.Templates
	Health    *health.Monitor // nil when monitoring is disabled
	Jobs      *jobmgr.Manager
}

// guildSession is the voice state of one guild.
type guildSession struct {
	player    *player.Player
	transport *voiceTransport
}

// Bot is a Discord bot
type Bot struct {
	deps Deps
	dg   *discordgo.Session
	ctx  context.Context
	log  zerolog.Logger

	mu           sync.RWMutex
	sessions     map[string]*guildSession
	textChannels map[string]string
}

// NewBot creates a bot. The gateway session is opened by Run.
func NewBot(deps Deps) (*Bot, error) {
	dg, err := discordgo.New("Bot " + deps.Token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session")
	}
	return &Bot{
		deps:         deps,
		dg:           dg,
		ctx:          context.Background(),
		log:          log.With().Str("component", "discord").Logger(),
		sessions:     make(map[string]*guildSession),
		textChannels: make(map[string]string),
	}, nil
}

// Run opens the gateway session and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent
	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)

	if err := b.dg.Open(); err != nil {
		return errors.Wrap(err, "failed to open Discord session")
	}

	<-ctx.Done()
	b.log.Info().Msg("❎ Shutdown signal received. Cleaning up...")

	if b.deps.Jobs != nil {
		b.deps.Jobs.StopAll()
	}
	b.closeSessions()
	return b.dg.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msgf("✅ Discord bot %v is running.", r.User.Username)

	if b.deps.Health == nil || b.deps.Jobs == nil {
		return
	}
	// Ready fires again after a resume; the job keeps running across it.
	if err := b.deps.Jobs.StartAsync(b.ctx, "health", b.deps.Health.Run); err != nil && !errors.Is(err, jobmgr.ErrAlreadyRunning) {
		b.log.Error().Err(err).Msg("Failed to start health monitor")
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	name, args, ok := parseCommand(m.Content, b.deps.Prefix)
	if !ok {
		return
	}
	c := b.deps.Registry.Get(name)
	if c == nil {
		return
	}
	if m.GuildID != "" {
		b.setTextChannel(m.GuildID, m.ChannelID)
	}

	mc := &command.MessageContext{
		Session:   s,
		Event:     m,
		Storage:   b.deps.Storage,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		UserID:    m.Author.ID,
		Username:  m.Author.Username,
		Reply: func(text string) error {
			_, err := s.ChannelMessageSend(m.ChannelID, text)
			return err
		},
	}
	b.dispatch(c, &cmd.Invocation{Args: args, Data: mc}, mc)
}

func (b *Bot) dispatch(c cmd.Command, inv *cmd.Invocation, mc *command.MessageContext) {
	logger := b.log.With().Str("command", c.Name()).Str("guild", mc.GuildID).Str("user", mc.Username).Logger()
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Command panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	if err := c.Run(ctx, inv); err != nil {
		logger.Error().Err(err).Msg("Error running command")
		if rerr := mc.Reply(templates.Render(b.deps.Templates.Error, "error", err.Error())); rerr != nil {
			logger.Warn().Err(rerr).Msg("Failed to send error reply")
		}
	}
}

// parseCommand splits a prefixed message into a lowercase command name and
// its arguments.
func parseCommand(content, prefix string) (string, []string, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(content[len(prefix):])
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

func (b *Bot) setTextChannel(guildID, channelID string) {
	b.mu.Lock()
	b.textChannels[guildID] = channelID
	b.mu.Unlock()
}

func (b *Bot) textChannel(guildID string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.textChannels[guildID]
}

func (b *Bot) send(channelID, text string) {
	if channelID == "" || text == "" {
		return
	}
	if _, err := b.dg.ChannelMessageSend(channelID, text); err != nil {
		b.log.Warn().Err(err).Str("channel", channelID).Msg("Failed to send message")
	}
}

func (b *Bot) closeSessions() {
	b.mu.Lock()
	sessions := b.sessions
	b.sessions = make(map[string]*guildSession)
	b.mu.Unlock()

	for guildID, gs := range sessions {
		gs.player.Close()
		if err := gs.transport.Disconnect(); err != nil {
			b.log.Warn().Err(err).Str("guild", guildID).Msg("Voice disconnect failed")
		}
	}
}
