// Package datastore is a JSON-file key/value store kept in memory and saved
// to disk periodically and on Close.
package datastore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrClosed is returned by writes to a closed store.
var ErrClosed = errors.New("datastore is closed")

// Config holds configuration options for the DataStore.
type Config struct {
	FilePath         string
	AutoSaveInterval time.Duration
}

// DefaultConfig returns the default configuration for filePath.
func DefaultConfig(filePath string) Config {
	return Config{
		FilePath:         filePath,
		AutoSaveInterval: 10 * time.Second,
	}
}

type DataStore struct {
	data         map[string]json.RawMessage
	file         string
	mu           sync.RWMutex
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	lastChecksum string
	closed       bool
	log          zerolog.Logger
}

// New opens the store at filePath with the default configuration.
func New(filePath string) (*DataStore, error) {
	return NewWithConfig(DefaultConfig(filePath))
}

// NewWithConfig opens the store, creating the file when it does not exist.
func NewWithConfig(cfg Config) (*DataStore, error) {
	if cfg.FilePath == "" {
		return nil, errors.New("file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create directory")
	}

	ds := &DataStore{
		data: make(map[string]json.RawMessage),
		file: cfg.FilePath,
		log:  log.With().Str("component", "datastore").Logger(),
	}

	switch _, err := os.Stat(cfg.FilePath); {
	case errors.Is(err, os.ErrNotExist):
		if err := ds.writeFileAtomic([]byte("{}")); err != nil {
			return nil, errors.Wrap(err, "failed to create empty JSON file")
		}
	case err != nil:
		return nil, errors.Wrap(err, "failed to check file existence")
	default:
		if err := ds.loadFromFile(); err != nil {
			return nil, errors.Wrap(err, "failed to load data from file")
		}
	}

	if cfg.AutoSaveInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		ds.cancel = cancel
		ds.wg.Add(1)
		go ds.autoSave(ctx, cfg.AutoSaveInterval)
	}
	return ds, nil
}

// Put stores value under key as JSON.
func (ds *DataStore) Put(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "marshal %q", key)
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.closed {
		return ErrClosed
	}
	ds.data[key] = raw
	return nil
}

// Get decodes the value under key into out. It reports false when the key
// is absent.
func (ds *DataStore) Get(key string, out any) (bool, error) {
	ds.mu.RLock()
	raw, ok := ds.data[key]
	ds.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, errors.Wrapf(err, "unmarshal %q", key)
	}
	return true, nil
}

// Delete removes key.
func (ds *DataStore) Delete(key string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	delete(ds.data, key)
}

// Keys returns the number of stored keys.
func (ds *DataStore) Keys() int {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return len(ds.data)
}

// SaveToFile forces an immediate save.
func (ds *DataStore) SaveToFile() error {
	ds.mu.RLock()
	closed := ds.closed
	ds.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	return ds.saveToFile()
}

// Close stops autosave and writes the final state.
func (ds *DataStore) Close() error {
	ds.mu.Lock()
	if ds.closed {
		ds.mu.Unlock()
		return nil
	}
	ds.closed = true
	ds.mu.Unlock()

	if ds.cancel != nil {
		ds.cancel()
	}
	ds.wg.Wait()
	return ds.saveToFile()
}

// saveToFile writes the data when it changed since the last save.
func (ds *DataStore) saveToFile() error {
	ds.mu.RLock()
	data, err := json.MarshalIndent(ds.data, "", "  ")
	ds.mu.RUnlock()
	if err != nil {
		return errors.Wrap(err, "failed to marshal data")
	}

	checksum := checksum(data)
	if checksum == ds.lastChecksum {
		return nil
	}
	if err := ds.writeFileAtomic(data); err != nil {
		return err
	}
	ds.lastChecksum = checksum
	return nil
}

func (ds *DataStore) loadFromFile() error {
	data, err := os.ReadFile(ds.file)
	if err != nil {
		return errors.Wrap(err, "failed to read file")
	}
	var temp map[string]json.RawMessage
	if err := json.Unmarshal(data, &temp); err != nil {
		return errors.Wrap(err, "invalid JSON format")
	}
	if temp == nil {
		temp = make(map[string]json.RawMessage)
	}
	ds.data = temp
	ds.lastChecksum = checksum(data)
	return nil
}

// writeFileAtomic writes through a temporary file and a rename.
func (ds *DataStore) writeFileAtomic(data []byte) error {
	tmpFile := ds.file + ".tmp"
	f, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to open temp file")
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpFile)
		return errors.Wrap(err, "failed to write temp file")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpFile)
		return errors.Wrap(err, "failed to sync temp file")
	}
	f.Close()

	if err := os.Rename(tmpFile, ds.file); err != nil {
		os.Remove(tmpFile)
		return errors.Wrap(err, "failed to rename temp file")
	}
	return nil
}

func (ds *DataStore) autoSave(ctx context.Context, every time.Duration) {
	defer ds.wg.Done()

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ds.saveToFile(); err != nil {
				ds.log.Error().Err(err).Msg("Auto-save failed")
			}
		}
	}
}

func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
