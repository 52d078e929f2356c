// Package templates loads the user-facing message texts. Texts contain
// {placeholder} tokens filled in by Render.
package templates

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Templates is the message document. Keys missing from the file keep their
// built-in default.
type Templates struct {
	NowPlaying  string `yaml:"now_playing" default:"🎶 **Now Playing:** {title} (volume {volume}%)"`
	TrackFailed string `yaml:"track_failed" default:"⚠️ Could not play **{title}**: {error}"`
	QueueEnded  string `yaml:"queue_ended" default:"📭 Queue finished."`
	Stopped     string `yaml:"stopped" default:"🛑 Stopped."`

	Joined         string `yaml:"joined" default:"👋 Joined **{channel}**"`
	NotInVoice     string `yaml:"not_in_voice" default:"Join a voice channel first."`
	GuildOnly      string `yaml:"guild_only" default:"This command can only be used in a server."`
	NotFound       string `yaml:"not_found" default:"❌ File not found matching: {query}"`
	Searching      string `yaml:"searching" default:"🔎 Searching for: **{query}**..."`
	Added          string "yaml:\"added\" default:\"✅ Added to queue: `{title}` (position {position})\""
	Skipped        string `yaml:"skipped" default:"⏭️ Skipped."`
	SkippedTo      string `yaml:"skipped_to" default:"⏭️ Skipped to position {position}."`
	NothingPlaying string `yaml:"nothing_playing" default:"Nothing is playing."`
	InvalidIndex   string `yaml:"invalid_index" default:"❌ Invalid position {position}, the queue has {length} entries."`
	Cleared        string `yaml:"cleared" default:"🧹 Removed {count} entries from the queue."`
	VolumeSet      string `yaml:"volume_set" default:"🔊 Volume set to {volume}%"`
	VolumeCurrent  string `yaml:"volume_current" default:"🔊 Volume is {volume}%"`
	QueueEmpty     string `yaml:"queue_empty" default:"The queue is empty."`
	QueueHeader    string `yaml:"queue_header" default:"📜 **Queue** ({count} pending)"`
	QueueCurrent   string `yaml:"queue_current" default:"▶️ {title}"`
	QueueLine      string `yaml:"queue_line" default:"{position}. {title} · requested by {user}"`
	Usage          string "yaml:\"usage\" default:\"Usage: `{usage}`\""
	Error          string `yaml:"error" default:"Error: {error}"`

	StatusOnline   string `yaml:"status_online" default:"🟢 Server **{address}** is online (checked {checked})"`
	StatusOffline  string `yaml:"status_offline" default:"🔴 Server **{address}** is offline (checked {checked})"`
	StatusUnknown  string `yaml:"status_unknown" default:"⚪ Server address is not known yet (checked {checked})"`
	StatusDisabled string `yaml:"status_disabled" default:"Health monitoring is disabled."`

	PresenceOnline  string `yaml:"presence_online" default:"Server online · {address}"`
	PresenceOffline string `yaml:"presence_offline" default:"Server offline"`
}

// Default returns the built-in texts.
func Default() *Templates {
	t := &Templates{}
	if err := defaults.Set(t); err != nil {
		// tags are static; a failure here is a programming error
		panic(err)
	}
	return t
}

// Load reads the YAML document at path. A missing file yields the defaults.
func Load(path string) (*Templates, error) {
	t := &Templates{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) || path == "":
		log.Info().Str("component", "templates").Str("path", path).Msg("Templates file not found, using built-in texts")
	case err != nil:
		return nil, errors.Wrap(err, "failed to read templates file")
	default:
		if err := yaml.Unmarshal(data, t); err != nil {
			return nil, errors.Wrap(err, "failed to parse templates file")
		}
	}

	if err := defaults.Set(t); err != nil {
		return nil, errors.Wrap(err, "failed to set template defaults")
	}
	return t, nil
}

// Render replaces each {key} in text with its value. kv holds alternating
// keys and values; unknown tokens are left as is.
func Render(text string, kv ...string) string {
	if len(kv) < 2 {
		return text
	}
	pairs := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, "{"+kv[i]+"}", kv[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
