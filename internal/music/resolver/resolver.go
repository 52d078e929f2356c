// Package resolver turns queue entries into ready-to-stream audio handles.
package resolver

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/keshon/media-bot/internal/music/catalog"
	"github.com/keshon/media-bot/internal/music/sources"
	"github.com/keshon/media-bot/internal/music/stream"
	"github.com/keshon/media-bot/pkg/retrylimit"
)

// DefaultTimeout bounds one resolution, extraction and decoder start-up included.
const DefaultTimeout = 30 * time.Second

// Resolver converts entries to stream handles. Remote extraction is deferred
// to play time because extracted stream URLs are short-lived.
type Resolver struct {
	catalog   *catalog.Catalog
	extractor Extractor
	open      stream.Opener
	limiter   *retrylimit.AdaptiveLimiter
	retry     retrylimit.RetryConfig
	timeout   time.Duration
	log       zerolog.Logger
}

type Option func(*Resolver)

// WithExtractor replaces the default yt-dlp/kkdai chain.
func WithExtractor(e Extractor) Option {
	return func(r *Resolver) { r.extractor = e }
}

// WithOpener replaces ffmpeg as the decoder.
func WithOpener(o stream.Opener) Option {
	return func(r *Resolver) { r.open = o }
}

// WithTimeout sets the per-resolution timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRetry sets the extraction retry policy.
func WithRetry(cfg retrylimit.RetryConfig) Option {
	return func(r *Resolver) { r.retry = cfg }
}

func New(cat *catalog.Catalog, opts ...Option) *Resolver {
	r := &Resolver{
		catalog:   cat,
		extractor: &Chain{Native: NewKKDAI(), Fallback: NewYTDLP()},
		open:      stream.Open,
		limiter:   retrylimit.NewAdaptiveLimiter(2, 1, 5, 1, 0.5),
		retry: retrylimit.RetryConfig{
			MaxAttempts:  2,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2,
			Jitter:       true,
		},
		timeout: DefaultTimeout,
		log:     log.With().Str("component", "resolver").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve opens a stream for e. Errors match sources.ErrNotFound for a
// vanished local file and sources.ErrResolution for everything else.
func (r *Resolver) Resolve(ctx context.Context, e sources.Entry) (*stream.Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var src stream.Source
	switch e.Kind {
	case sources.KindLocal:
		path := r.catalog.Path(e.Locator)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, errors.Wrapf(sources.ErrNotFound, "local file %q", e.Locator)
			}
			return nil, errors.Mark(errors.Wrapf(err, "stat %q", e.Locator), sources.ErrResolution)
		}
		src = stream.Source{Title: e.Title, Input: path}

	case sources.KindDirectURL:
		src = stream.Source{Title: e.Title, Input: e.Locator, Remote: true}

	case sources.KindRemoteSearch:
		m, err := r.extract(ctx, e.Locator)
		if err != nil {
			return nil, err
		}
		title := e.Title
		if m.Title != "" {
			title = m.Title
		}
		src = stream.Source{Title: title, Input: m.StreamURL, Remote: true}

	default:
		return nil, errors.Mark(errors.Newf("unknown entry kind %d", e.Kind), sources.ErrResolution)
	}

	h, err := r.open(ctx, src)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "open stream for %q", src.Title), sources.ErrResolution)
	}
	r.log.Debug().Str("kind", e.Kind.String()).Str("title", src.Title).Msg("Stream opened")
	return h, nil
}

// Lookup extracts a title and stable page URL for a remote query so the
// queue can show it. The stream URL it finds is discarded.
func (r *Resolver) Lookup(ctx context.Context, query string) (sources.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query = strings.TrimSpace(query)
	m, err := r.extract(ctx, query)
	if err != nil {
		return sources.Entry{}, err
	}

	// yt-dlp's generic extractor hands a raw stream URL back unchanged
	if m.StreamURL == query && sources.IsURL(query) {
		return sources.NewEntry(sources.KindDirectURL, m.Title, query, ""), nil
	}

	locator := m.PageURL
	if locator == "" {
		locator = query
	}
	return sources.Entry{Kind: sources.KindRemoteSearch, Title: m.Title, Locator: locator}, nil
}

func (r *Resolver) extract(ctx context.Context, locator string) (Media, error) {
	var m Media
	err := retrylimit.WithRetryConfig(ctx, func() error {
		var err error
		m, err = r.extractor.Extract(ctx, locator)
		if err == nil && m.StreamURL == "" {
			return &retrylimit.FatalError{Err: errors.New("no resolvable media url")}
		}
		return err
	}, r.limiter, r.retry)
	if err != nil {
		r.log.Warn().Err(err).Str("locator", locator).Msg("Extraction failed")
		return Media{}, errors.Mark(errors.Wrapf(err, "extract %q", locator), sources.ErrResolution)
	}
	return m, nil
}
