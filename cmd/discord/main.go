// cmd/discord/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/keshon/media-bot/internal/command"
	"github.com/keshon/media-bot/internal/commands/core"
	"github.com/keshon/media-bot/internal/commands/music"
	"github.com/keshon/media-bot/internal/config"
	"github.com/keshon/media-bot/internal/discord"
	"github.com/keshon/media-bot/internal/health"
	"github.com/keshon/media-bot/internal/logger"
	"github.com/keshon/media-bot/internal/middleware"
	"github.com/keshon/media-bot/internal/music/catalog"
	"github.com/keshon/media-bot/internal/music/resolver"
	"github.com/keshon/media-bot/internal/music/volume"
	"github.com/keshon/media-bot/internal/storage"
	"github.com/keshon/media-bot/internal/templates"
	v "github.com/keshon/media-bot/internal/version"
	"github.com/keshon/media-bot/pkg/cmd"
	"github.com/keshon/media-bot/pkg/jobmgr"
)

func main() {
	envFile := pflag.String("env-file", ".env", "path to the .env file")
	logLevel := pflag.String("log-level", "", "log level override (debug, info, warn, error)")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile})

	log.Info().Str("release", v.Release()).Msgf("Starting %v bot...", v.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.Close()

	tpl, err := templates.Load(cfg.TemplatesPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.TemplatesPath).Msg("Failed to load templates")
	}

	cat := catalog.New(cfg.MediaFolder, cfg.MediaExtensions...)
	res := resolver.New(cat, resolver.WithTimeout(cfg.ResolveTimeout))
	vol := volume.New(cfg.DefaultVolume)

	jobs := jobmgr.NewManager(func(ev jobmgr.Event) {
		e := log.Info()
		if ev.Err != nil {
			e = log.Error().Err(ev.Err)
		}
		e.Str("component", "jobs").Str("job", ev.Job).Str("status", ev.Status).Msg("Job status changed")
	})

	var bot *discord.Bot
	var monitor *health.Monitor
	if cfg.Health.Enabled {
		monitor = health.New(ipLookup(cfg.Health),
			health.WithPort(cfg.Health.Port),
			health.WithInterval(cfg.Health.Interval),
			health.WithTimeout(cfg.Health.Timeout),
			health.WithOnChange(func(s health.State) { bot.UpdatePresence(s) }),
		)
	}

	reg := cmd.NewRegistry()
	bot, err = discord.NewBot(discord.Deps{
		Token:     cfg.DiscordToken,
		Prefix:    cfg.CommandPrefix,
		Storage:   store,
		Registry:  reg,
		Resolver:  res,
		Volume:    vol,
		Templates: tpl,
		Health:    monitor,
		Jobs:      jobs,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	svc := &command.Services{
		Prefix:    cfg.CommandPrefix,
		Voice:     bot,
		Catalog:   cat,
		Lookup:    res,
		Volume:    vol,
		Templates: tpl,
		Health:    monitor,
		Registry:  reg,
	}
	mws := []cmd.Middleware{
		middleware.WithGuildOnly(tpl, cfg.DeveloperID),
		middleware.WithCommandLogger(),
	}
	music.Register(reg, svc, mws...)
	core.Register(reg, svc, mws...)

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Info().Str("signal", s.String()).Msg("Received signal, shutting down...")
		cancel()
		if err := <-errCh; err != nil {
			log.Error().Err(err).Msg("Discord bot error")
		}
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Discord bot error")
		}
		cancel()
	}

	log.Info().Msg("Discord bot exited cleanly")
}

// ipLookup prefers the configured host name and falls back to asking an
// external service for the public address of this machine.
func ipLookup(cfg config.HealthConfig) health.IPLookup {
	if cfg.Host != "" {
		return health.DNSLookup{Host: cfg.Host}
	}
	return health.HTTPLookup{URL: cfg.IPLookupURL, Client: &http.Client{Timeout: cfg.Timeout}}
}
