package core

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/media-bot/internal/command"
	"github.com/keshon/media-bot/internal/health"
	"github.com/keshon/media-bot/internal/music/catalog"
	"github.com/keshon/media-bot/internal/storage"
	"github.com/keshon/media-bot/internal/templates"
	"github.com/keshon/media-bot/internal/version"
	"github.com/keshon/media-bot/pkg/cmd"
)

type staticLookup string

func (s staticLookup) LookupIP(ctx context.Context) (string, error) { return string(s), nil }

func setup(t *testing.T, mon *health.Monitor) (*cmd.Registry, *command.Services) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "intro.mp3"), []byte("x"), 0o644))

	reg := cmd.NewRegistry()
	svc := &command.Services{
		Prefix:    "!",
		Catalog:   catalog.New(dir),
		Templates: templates.Default(),
		Health:    mon,
		Registry:  reg,
	}
	Register(reg, svc)
	return reg, svc
}

func run(t *testing.T, reg *cmd.Registry, name string, mc *command.MessageContext) string {
	t.Helper()
	var reply string
	mc.Reply = func(text string) error { reply = text; return nil }
	if mc.GuildID == "" {
		mc.GuildID = "g1"
	}
	c := reg.Get(name)
	require.NotNil(t, c, name)
	require.NoError(t, c.Run(context.Background(), &cmd.Invocation{Data: mc}))
	return reply
}

func TestHelp_ListsCommandsByCategory(t *testing.T) {
	reg, _ := setup(t, nil)
	out := run(t, reg, "help", &command.MessageContext{})

	assert.Contains(t, out, version.AppName+" Help")
	assert.Contains(t, out, "`!status` - Check whether the game server is reachable")
	assert.Contains(t, out, "intro.mp3")

	info := strings.Index(out, "🕯️ Information")
	maint := strings.Index(out, "🛠️ Maintenance")
	require.NotEqual(t, -1, info)
	require.NotEqual(t, -1, maint)
	assert.Less(t, info, maint)
}

func TestAbout(t *testing.T) {
	reg, _ := setup(t, nil)
	out := run(t, reg, "about", &command.MessageContext{})
	assert.Contains(t, out, version.AppName)
	assert.Contains(t, out, "Release:")
}

func TestStatus_Disabled(t *testing.T) {
	reg, svc := setup(t, nil)
	assert.Equal(t, svc.Templates.StatusDisabled, run(t, reg, "status", &command.MessageContext{}))
}

func TestStatus_OnlineAndOffline(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()
	port := ln.Addr().(*net.TCPAddr).Port

	mon := health.New(staticLookup("127.0.0.1"), health.WithPort(port), health.WithTimeout(time.Second))
	reg, _ := setup(t, mon)

	out := run(t, reg, "status", &command.MessageContext{})
	assert.Contains(t, out, "🟢")
	assert.Contains(t, out, mon.Address())

	require.NoError(t, ln.Close())
	out = run(t, reg, "server", &command.MessageContext{})
	assert.Contains(t, out, "🔴")
}

func TestCmdLog(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "datastore.json"))
	require.NoError(t, err)
	defer store.Close()

	reg, _ := setup(t, nil)
	mc := &command.MessageContext{Storage: store}
	assert.Equal(t, "No command logs found.", run(t, reg, "cmd-log", mc))

	require.NoError(t, store.AppendCommandToHistory("g1", storage.CommandHistoryRecord{
		Username: "alice", Command: "play", Param: "intro", Datetime: time.Now(),
	}))
	out := run(t, reg, "history", mc)
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "play intro")
}

func TestCmdLog_DirectMessageNamesGuild(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "datastore.json"))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.AppendCommandToHistory("g2", storage.CommandHistoryRecord{
		Username: "bob", Command: "vol", Param: "30", Datetime: time.Now(),
	}))

	reg, _ := setup(t, nil)
	c := reg.Get("cmd-log")
	require.NotNil(t, c)

	var reply string
	mc := &command.MessageContext{Storage: store, UserID: "dev", Reply: func(text string) error { reply = text; return nil }}
	require.NoError(t, c.Run(context.Background(), &cmd.Invocation{Data: mc}))
	assert.Equal(t, "Usage: cmd-log <guild-id>", reply)

	require.NoError(t, c.Run(context.Background(), &cmd.Invocation{Args: []string{"g2"}, Data: mc}))
	assert.Contains(t, reply, "bob")
	assert.Contains(t, reply, "vol 30")
}
