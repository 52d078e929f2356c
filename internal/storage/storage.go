// Package storage keeps per-guild records in the datastore.
package storage

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/keshon/media-bot/datastore"
)

const commandHistoryLimit int = 20

type Storage struct {
	ds *datastore.DataStore
	mu sync.Mutex // serializes read-modify-write of guild records
}

type CommandHistoryRecord struct {
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	GuildName   string    `json:"guild_name"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Command     string    `json:"command"`
	Param       string    `json:"param"`
	Datetime    time.Time `json:"datetime"`
}

type Record struct {
	CommandsHistoryList []CommandHistoryRecord `json:"cmd_history"`
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

// NewWithStore wraps an open datastore.
func NewWithStore(ds *datastore.DataStore) *Storage {
	return &Storage{ds: ds}
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

func (s *Storage) getOrCreateGuildRecord(guildID string) (*Record, error) {
	var record Record
	if _, err := s.ds.Get(guildID, &record); err != nil {
		return nil, errors.Wrapf(err, "guild %s", guildID)
	}
	if record.CommandsHistoryList == nil {
		record.CommandsHistoryList = []CommandHistoryRecord{}
	}
	return &record, nil
}

// AppendCommandToHistory appends a command record, keeping the most recent
// entries only.
func (s *Storage) AppendCommandToHistory(guildID string, command CommandHistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	record.CommandsHistoryList = append(record.CommandsHistoryList, command)
	if n := len(record.CommandsHistoryList); n > commandHistoryLimit {
		record.CommandsHistoryList = record.CommandsHistoryList[n-commandHistoryLimit:]
	}
	return s.ds.Put(guildID, record)
}

// FetchCommandHistory returns the recorded commands, oldest first.
func (s *Storage) FetchCommandHistory(guildID string) ([]CommandHistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.CommandsHistoryList, nil
}
