// Package catalog finds local media files by free-text query.
package catalog

import (
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog/log"
)

// MinSimilarity is the lowest fuzzy ratio accepted as a match.
const MinSimilarity = 0.5

// DefaultExtensions lists the file types the catalog serves.
var DefaultExtensions = []string{".mp3", ".mp4", ".wav", ".ogg", ".flac", ".m4a", ".webm", ".opus"}

// Catalog is a directory of playable media files. It is re-scanned on every
// call, so files dropped into the folder are picked up without a restart.
type Catalog struct {
	dir  string
	exts []string
}

// New creates a catalog over dir. When no extensions are given
// DefaultExtensions is used.
func New(dir string, exts ...string) *Catalog {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	norm := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		norm = append(norm, e)
	}
	return &Catalog{dir: dir, exts: norm}
}

// Dir returns the catalog directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// Path returns the full path of a catalog file name.
func (c *Catalog) Path(name string) string {
	return filepath.Join(c.dir, filepath.Base(name))
}

// IsMediaURL reports whether raw is an http(s) URL whose path ends in a
// playable extension, i.e. a file ffmpeg can stream without extraction.
func (c *Catalog) IsMediaURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	return slices.Contains(c.exts, strings.ToLower(filepath.Ext(u.Path)))
}

// List returns the playable file names in lexical order. A missing directory
// is created and reported as an empty catalog.
func (c *Catalog) List() ([]string, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, os.ErrNotExist) {
		log.Info().Str("component", "catalog").Str("dir", c.dir).Msg("Media folder missing, creating it")
		if err := os.MkdirAll(c.dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create media folder %s", c.dir)
		}
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read media folder %s", c.dir)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if slices.Contains(c.exts, strings.ToLower(filepath.Ext(e.Name()))) {
			files = append(files, e.Name())
		}
	}
	return files, nil
}

// Match resolves query to a file name. Rules are tried in order and the
// first hit wins: case-insensitive equality, case-insensitive substring,
// then the best fuzzy ratio if it reaches MinSimilarity. Ties keep the
// lexically first file.
func (c *Catalog) Match(query string) (string, bool, error) {
	files, err := c.List()
	if err != nil {
		return "", false, err
	}
	name, ok := match(strings.ToLower(strings.TrimSpace(query)), files)
	return name, ok, nil
}

func match(query string, files []string) (string, bool) {
	if query == "" || len(files) == 0 {
		return "", false
	}

	for _, f := range files {
		if strings.ToLower(f) == query {
			return f, true
		}
	}

	for _, f := range files {
		if strings.Contains(strings.ToLower(f), query) {
			return f, true
		}
	}

	best, bestScore := "", 0.0
	for _, f := range files {
		if score := Similarity(query, strings.ToLower(f)); score > bestScore {
			best, bestScore = f, score
		}
	}
	if bestScore >= MinSimilarity {
		return best, true
	}
	return "", false
}

// Similarity returns the difflib ratio of a and b compared rune by rune.
func Similarity(a, b string) float64 {
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}
