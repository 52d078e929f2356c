package resolver

import (
	"context"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/kkdai/youtube/v2"
	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog/log"

	"github.com/keshon/media-bot/internal/music/sources"
)

// Media is the outcome of a remote extraction.
type Media struct {
	Title     string
	PageURL   string
	StreamURL string
}

// Extractor turns a page URL or search phrase into playable media.
type Extractor interface {
	Extract(ctx context.Context, locator string) (Media, error)
}

// SearchPrefix selects the provider search used for bare phrases.
const SearchPrefix = "ytsearch1:"

// YTDLP extracts through the yt-dlp binary.
type YTDLP struct {
	Format string
}

// NewYTDLP creates an extractor preferring the best audio-only format.
func NewYTDLP() *YTDLP {
	return &YTDLP{Format: "bestaudio/best"}
}

// Extract searches bare phrases and takes the first result, or extracts a
// page URL directly.
func (y *YTDLP) Extract(ctx context.Context, locator string) (Media, error) {
	target := strings.TrimSpace(locator)
	if !sources.IsURL(target) {
		target = SearchPrefix + target
	}

	res, err := ytdlp.New().
		Print("%(title)s\t%(webpage_url)s\t%(url)s").
		Format(y.Format).
		NoPlaylist().
		NoWarnings().
		IgnoreConfig().
		Run(ctx, "--skip-download", target)
	if err != nil {
		return Media{}, errors.Wrap(err, "yt-dlp")
	}
	return parseYTDLP(res.Stdout)
}

func parseYTDLP(stdout string) (Media, error) {
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 3 {
			continue
		}
		m := Media{
			Title:     strings.TrimSpace(parts[0]),
			PageURL:   strings.TrimSpace(parts[1]),
			StreamURL: strings.TrimSpace(parts[2]),
		}
		if !sources.IsURL(m.StreamURL) {
			continue
		}
		if m.PageURL == "NA" {
			m.PageURL = ""
		}
		return m, nil
	}
	return Media{}, errors.New("yt-dlp returned no media url")
}

var youtubeVideo = regexp.MustCompile(`^https?://(?:www\.|music\.|m\.)?(?:youtube\.com/watch\?(?:.*&)?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// YouTubeID returns the video id of a YouTube watch or short URL.
func YouTubeID(s string) (string, bool) {
	m := youtubeVideo.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// KKDAI extracts YouTube videos natively, without spawning yt-dlp.
type KKDAI struct {
	Client *youtube.Client
}

func NewKKDAI() *KKDAI {
	return &KKDAI{Client: &youtube.Client{}}
}

func (k *KKDAI) Extract(ctx context.Context, locator string) (Media, error) {
	id, ok := YouTubeID(locator)
	if !ok {
		return Media{}, errors.Newf("not a YouTube video url: %s", locator)
	}

	video, err := k.Client.GetVideoContext(ctx, id)
	if err != nil {
		return Media{}, errors.Wrap(err, "youtube client error")
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return Media{}, errors.New("no audio formats found for video")
	}

	link, err := k.Client.GetStreamURLContext(ctx, video, &formats[0])
	if err != nil {
		return Media{}, errors.Wrap(err, "get stream URL error")
	}

	return Media{
		Title:     video.Title,
		PageURL:   "https://www.youtube.com/watch?v=" + id,
		StreamURL: link,
	}, nil
}

// Chain routes YouTube video URLs to Native first and falls back to
// Fallback for everything else or when Native fails.
type Chain struct {
	Native   Extractor
	Fallback Extractor
}

func (c *Chain) Extract(ctx context.Context, locator string) (Media, error) {
	if _, ok := YouTubeID(locator); ok && c.Native != nil {
		m, err := c.Native.Extract(ctx, locator)
		if err == nil {
			return m, nil
		}
		log.Warn().Str("component", "resolver").Err(err).Str("locator", locator).Msg("Native extractor failed, falling back")
	}
	return c.Fallback.Extract(ctx, locator)
}
