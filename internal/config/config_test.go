package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "!", cfg.CommandPrefix)
	assert.Equal(t, "media", cfg.MediaFolder)
	assert.Equal(t, 50, cfg.DefaultVolume)
	assert.Equal(t, 30*time.Second, cfg.ResolveTimeout)
	assert.Equal(t, "datastore.json", cfg.StoragePath)
	assert.True(t, cfg.Health.Enabled)
	assert.Equal(t, 25565, cfg.Health.Port)
	assert.Equal(t, time.Minute, cfg.Health.Interval)
	assert.Equal(t, 3*time.Second, cfg.Health.Timeout)
	assert.Equal(t, "https://api.ipify.org", cfg.Health.IPLookupURL)
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("COMMAND_PREFIX", "?")
	t.Setenv("MEDIA_EXTENSIONS", ".mp3,.flac")
	t.Setenv("DEFAULT_VOLUME", "80")
	t.Setenv("HEALTH_HOST", "mc.example.org")
	t.Setenv("HEALTH_INTERVAL", "15s")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "?", cfg.CommandPrefix)
	assert.Equal(t, []string{".mp3", ".flac"}, cfg.MediaExtensions)
	assert.Equal(t, 80, cfg.DefaultVolume)
	assert.Equal(t, "mc.example.org", cfg.Health.Host)
	assert.Equal(t, 15*time.Second, cfg.Health.Interval)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing token", map[string]string{"DISCORD_TOKEN": ""}},
		{"volume too high", map[string]string{"DISCORD_TOKEN": "t", "DEFAULT_VOLUME": "101"}},
		{"port out of range", map[string]string{"DISCORD_TOKEN": "t", "HEALTH_PORT": "70000"}},
		{"bad log level", map[string]string{"DISCORD_TOKEN": "t", "LOG_LEVEL": "loud"}},
		{"bad duration", map[string]string{"DISCORD_TOKEN": "t", "RESOLVE_TIMEOUT": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DISCORD_TOKEN=from-file\nMEDIA_FOLDER=tracks\n"), 0o644))

	// godotenv never overrides variables that are already set
	t.Setenv("DISCORD_TOKEN", "")
	require.NoError(t, os.Unsetenv("DISCORD_TOKEN"))
	t.Setenv("MEDIA_FOLDER", "")
	require.NoError(t, os.Unsetenv("MEDIA_FOLDER"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.DiscordToken)
	assert.Equal(t, "tracks", cfg.MediaFolder)
}
