// Package core holds the informational and maintenance commands.
package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/keshon/media-bot/internal/command"
	"github.com/keshon/media-bot/internal/config"
	"github.com/keshon/media-bot/internal/version"
	"github.com/keshon/media-bot/pkg/cmd"
)

const (
	discordMaxMessageLength = 2000
	helpFileLimit           = 20
)

// Register adds the core commands to reg.
func Register(reg *cmd.Registry, svc *command.Services, mws ...cmd.Middleware) {
	command.Register(reg, &HelpCommand{svc}, mws...)
	command.Register(reg, &AboutCommand{}, mws...)
	command.Register(reg, &StatusCommand{svc}, mws...)
	command.Register(reg, &LogCommand{}, mws...)
}

type HelpCommand struct{ svc *command.Services }

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Get a list of available commands" }
func (c *HelpCommand) Aliases() []string   { return []string{"h", "commands"} }
func (c *HelpCommand) Usage() string       { return "help" }
func (c *HelpCommand) Group() string       { return "core" }
func (c *HelpCommand) Category() string    { return "🕯️ Information" }

func (c *HelpCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := command.Context(inv)
	if !ok {
		return nil
	}
	out := buildHelpByCategory(c.svc.Registry, c.svc.Prefix)

	if c.svc.Catalog != nil {
		files, err := c.svc.Catalog.List()
		if err != nil {
			return errors.Wrap(err, "list media folder")
		}
		if len(files) > 0 {
			shown := files[:min(len(files), helpFileLimit)]
			out += fmt.Sprintf("\n**📁 Media folder** (%d files)\n%s", len(files), strings.Join(shown, ", "))
			if len(files) > helpFileLimit {
				out += ", …"
			}
		}
	}
	if len(out) > discordMaxMessageLength {
		out = out[:discordMaxMessageLength-1] + "…"
	}
	return mc.Reply(out)
}

func buildHelpByCategory(reg *cmd.Registry, prefix string) string {
	categoryMap := make(map[string][]string)
	for _, c := range reg.GetAll() {
		cat, usage := "Other", c.Name()
		if meta, ok := cmd.As[command.DiscordMeta](c); ok {
			cat, usage = meta.Category(), meta.Usage()
		}
		line := fmt.Sprintf("`%s%s` - %s", prefix, usage, c.Description())
		categoryMap[cat] = append(categoryMap[cat], line)
	}

	cats := make([]string, 0, len(categoryMap))
	for cat := range categoryMap {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		wi, wj := config.CategoryWeights[cats[i]], config.CategoryWeights[cats[j]]
		if wi != wj {
			return wi < wj
		}
		return cats[i] < cats[j]
	})

	var sb strings.Builder
	sb.WriteString("**" + version.AppName + " Help**\n")
	for _, cat := range cats {
		sb.WriteString("\n**" + cat + "**\n")
		sb.WriteString(strings.Join(categoryMap[cat], "\n"))
		sb.WriteString("\n")
	}
	return sb.String()
}

type AboutCommand struct{}

func (c *AboutCommand) Name() string        { return "about" }
func (c *AboutCommand) Description() string { return "Shows info about the bot" }
func (c *AboutCommand) Usage() string       { return "about" }
func (c *AboutCommand) Group() string       { return "core" }
func (c *AboutCommand) Category() string    { return "🕯️ Information" }

func (c *AboutCommand) Run(ctx context.Context, inv *cmd.Invocation) error {
	mc, ok := command.Context(inv)
	if !ok {
		return nil
	}
	return mc.Reply(fmt.Sprintf("ℹ️ **%s** - %s\nRelease: %s", version.AppName, version.AppDescription, version.Release()))
}
