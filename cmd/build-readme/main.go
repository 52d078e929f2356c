// Command build-readme renders the command reference from the registered
// commands.
package main

import (
	"bytes"
	"os"
	"sort"
	"text/template"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/keshon/media-bot/internal/command"
	"github.com/keshon/media-bot/internal/commands/core"
	"github.com/keshon/media-bot/internal/commands/music"
	"github.com/keshon/media-bot/internal/config"
	"github.com/keshon/media-bot/internal/logger"
	"github.com/keshon/media-bot/internal/templates"
	"github.com/keshon/media-bot/internal/version"
	"github.com/keshon/media-bot/pkg/cmd"
)

type cmdInfo struct {
	Usage       string
	Aliases     []string
	Description string
}

type section struct {
	Category string
	Commands []cmdInfo
}

const readmeTemplate = `# {{ .AppName }}

{{ .Description }}

## Commands

Every command starts with the prefix ` + "`{{ .Prefix }}`" + `.
{{ range .Sections }}
### {{ .Category }}
{{ range .Commands }}
* **` + "`{{ $.Prefix }}{{ .Usage }}`" + `**{{ if .Aliases }} (aliases: {{ join .Aliases }}){{ end }}
  {{ .Description }}
{{ end }}{{ end }}`

func main() {
	out := pflag.StringP("out", "o", "README.md", "output file, - for stdout")
	prefix := pflag.String("prefix", "!", "command prefix shown in examples")
	pflag.Parse()

	logger.Init(logger.Config{Level: "info"})

	reg := cmd.NewRegistry()
	svc := &command.Services{Prefix: *prefix, Templates: templates.Default(), Registry: reg}
	music.Register(reg, svc)
	core.Register(reg, svc)

	data, err := render(reg, *prefix)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to render command reference")
	}
	if *out == "-" {
		_, _ = os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", *out).Msg("Failed to write command reference")
	}
	log.Info().Str("path", *out).Msg("Command reference written")
}

func render(reg *cmd.Registry, prefix string) ([]byte, error) {
	tmpl, err := template.New("readme").Funcs(template.FuncMap{
		"join": func(items []string) string {
			var buf bytes.Buffer
			for i, it := range items {
				if i > 0 {
					buf.WriteString(", ")
				}
				buf.WriteString("`" + prefix + it + "`")
			}
			return buf.String()
		},
	}).Parse(readmeTemplate)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, map[string]any{
		"AppName":     version.AppName,
		"Description": version.AppDescription,
		"Prefix":      prefix,
		"Sections":    sections(reg),
	})
	return buf.Bytes(), err
}

func sections(reg *cmd.Registry) []section {
	byCategory := make(map[string][]cmdInfo)
	for _, c := range reg.GetAll() {
		info := cmdInfo{Usage: c.Name(), Description: c.Description()}
		category := "Other"
		if meta, ok := cmd.As[command.DiscordMeta](c); ok {
			info.Usage, category = meta.Usage(), meta.Category()
		}
		if a, ok := cmd.As[cmd.Aliased](c); ok {
			info.Aliases = a.Aliases()
		}
		byCategory[category] = append(byCategory[category], info)
	}

	out := make([]section, 0, len(byCategory))
	for cat, cmds := range byCategory {
		out = append(out, section{Category: cat, Commands: cmds})
	}
	sort.Slice(out, func(i, j int) bool {
		wi, wj := config.CategoryWeights[out[i].Category], config.CategoryWeights[out[j].Category]
		if wi != wj {
			return wi < wj
		}
		return out[i].Category < out[j].Category
	})
	return out
}
