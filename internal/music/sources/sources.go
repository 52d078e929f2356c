package sources

import (
	"strings"
	"time"
)

// Kind tells the resolver how to turn an entry's locator into audio.
type Kind int

const (
	KindLocal Kind = iota
	KindDirectURL
	KindRemoteSearch
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindDirectURL:
		return "url"
	case KindRemoteSearch:
		return "remote"
	default:
		return "unknown"
	}
}

// Entry is one pending or playing unit of audio.
//
// For KindRemoteSearch the Locator is a page URL or a search phrase, never a
// stream URL: stream URLs expire, so they are extracted at play time.
type Entry struct {
	Kind        Kind
	Title       string
	Locator     string
	RequestedBy string
	AddedAt     time.Time
}

// NewEntry creates an entry stamped with the current time.
func NewEntry(kind Kind, title, locator, requestedBy string) Entry {
	if title == "" {
		title = locator
	}
	return Entry{
		Kind:        kind,
		Title:       title,
		Locator:     locator,
		RequestedBy: requestedBy,
		AddedAt:     time.Now().UTC(),
	}
}

// IsURL reports whether s looks like an http(s) URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
