// Command cli inspects the bot's local state without connecting to Discord.
//
//	cli files               list playable media files
//	cli match <query>       show which file a play query selects
//	cli history <guild-id>  print the command journal of a guild
//	cli probe               run one game server health check
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/keshon/media-bot/internal/config"
	"github.com/keshon/media-bot/internal/health"
	"github.com/keshon/media-bot/internal/logger"
	"github.com/keshon/media-bot/internal/music/catalog"
	"github.com/keshon/media-bot/internal/storage"
	"github.com/keshon/media-bot/pkg/util"
)

var errUsage = errors.New("usage: cli [--env-file path] files | match <query> | history <guild-id> | probe")

func main() {
	envFile := pflag.String("env-file", ".env", "path to the .env file")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Init(logger.Config{Level: "warn", Console: os.Stderr})

	if err := run(context.Background(), cfg, pflag.Args(), os.Stdout); err != nil {
		log.Error().Err(err).Msg("cli failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, args []string, w io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cat := catalog.New(cfg.MediaFolder, cfg.MediaExtensions...)

	switch args[0] {
	case "files":
		files, err := cat.List()
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(w, f)
		}
		return nil

	case "match":
		if len(args) < 2 {
			return errUsage
		}
		query := strings.Join(args[1:], " ")
		name, ok, err := cat.Match(query)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Newf("no file matches %q", query)
		}
		fmt.Fprintln(w, name)
		return nil

	case "history":
		if len(args) != 2 {
			return errUsage
		}
		store, err := storage.New(cfg.StoragePath)
		if err != nil {
			return err
		}
		defer store.Close()
		records, err := store.FetchCommandHistory(args[1])
		if err != nil {
			return err
		}
		for _, r := range records {
			fmt.Fprintf(w, "%s  %-15s  %s %s\n", util.FormatDate(r.Datetime, "YYYY-MM-DD hh:mm:ss"), r.Username, r.Command, r.Param)
		}
		return nil

	case "probe":
		var lookup health.IPLookup = health.HTTPLookup{URL: cfg.Health.IPLookupURL, Client: &http.Client{Timeout: cfg.Health.Timeout}}
		if cfg.Health.Host != "" {
			lookup = health.DNSLookup{Host: cfg.Health.Host}
		}
		mon := health.New(lookup, health.WithPort(cfg.Health.Port), health.WithTimeout(cfg.Health.Timeout))
		s := mon.Check(ctx)
		switch {
		case !s.Known():
			fmt.Fprintln(w, "unknown: server address could not be resolved")
		case s.Online:
			fmt.Fprintf(w, "online: %s\n", mon.Address())
		default:
			fmt.Fprintf(w, "offline: %s\n", mon.Address())
		}
		return nil
	}
	return errUsage
}
