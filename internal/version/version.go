// Package version holds build metadata, set through -ldflags:
//
//	go build -ldflags "-X github.com/keshon/media-bot/internal/version.BuildDate=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import (
	"runtime/debug"
	"strings"
	"time"
)

var (
	AppName        = "Media Bot"
	AppDescription = "Plays local files, direct links and streaming-site tracks in voice, and watches a game server."
	BuildDate      = ""
	GoVersion      = ""
)

func init() {
	if GoVersion != "" {
		return
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		GoVersion = info.GoVersion
	}
}

// Release formats BuildDate and GoVersion for display.
func Release() string {
	date := "unknown"
	if BuildDate != "" {
		if t, err := time.Parse(time.RFC3339, BuildDate); err == nil {
			date = t.Format("2006-01-02")
		} else {
			date = "invalid date"
		}
	}
	goVer := "unknown"
	if GoVersion != "" {
		goVer = strings.TrimPrefix(GoVersion, "go")
	}
	return date + " (Go " + goVer + ")"
}
