// Package cache implements the on-disk response cache.
//
// Every fetched document is stored in a flat directory, one file per URL,
// named by the hex MD5 of the URL. An entry is only served on the calendar
// day it was written: participant endpoints publish their public data daily,
// so a stale entry is deleted on read and the caller refetches. This is a
// deliberate once-per-calendar-day policy, not a rolling 24 hour window.
package cache

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/obrdata/openbankingbr/internal/constants"
	"github.com/obrdata/openbankingbr/internal/fileutils"
)

type timeProvider interface {
	Now() time.Time
}

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time {
	return time.Now()
}

// Store is a date-bucketed cache of raw fetched documents.
type Store struct {
	dir  string
	time timeProvider
}

type options struct {
	// Private member exported for tests.
	timeProvider timeProvider
}

// Options represents an optional function to override Store default values.
type Options func(*options)

// New returns a Store rooted at dir, creating the directory if needed.
// It errors if dir exists and is not a directory.
func New(dir string, args ...Options) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory cannot be an empty string")
	}

	if err := fileutils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %v", err)
	}

	opts := options{timeProvider: realTimeProvider{}}
	for _, opt := range args {
		opt(&opts)
	}

	return &Store{dir: dir, time: opts.timeProvider}, nil
}

// Get returns the cached document for url if a fresh entry exists.
// An entry written before today is deleted and reported as a miss.
func (s *Store) Get(url string) (any, bool) {
	path := s.entryPath(url)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	if !sameDay(info.ModTime(), s.time.Now()) {
		slog.Debug("Removing stale cache entry", "file", path, "written", info.ModTime())
		if err := os.Remove(path); err != nil {
			slog.Warn("Failed to remove stale cache entry", "file", path, "error", err)
		}
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Failed to read cache entry", "file", path, "error", err)
		return nil, false
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("Discarding corrupt cache entry", "file", path, "error", err)
		if err := os.Remove(path); err != nil {
			slog.Warn("Failed to remove corrupt cache entry", "file", path, "error", err)
		}
		return nil, false
	}

	return doc, true
}

// Put stores the document for url, overwriting any previous entry.
func (s *Store) Put(url string, doc any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode cache entry: %v", err)
	}

	if err := fileutils.AtomicWrite(s.entryPath(url), buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write cache entry: %v", err)
	}
	return nil
}

// Sweep deletes cache entries whose modification time is more than maxAge
// days in the past. It is a maintenance operation, independent from the
// per-read freshness check, and returns the number of entries removed.
func (s *Store) Sweep(maxAge uint) (removed int, err error) {
	cutoff := s.time.Now().AddDate(0, 0, -int(maxAge))

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %v", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != constants.CacheEntryExt {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			slog.Warn("Failed to stat cache entry", "file", entry.Name(), "error", err)
			continue
		}

		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.Warn("Failed to remove old cache entry", "file", path, "error", err)
			continue
		}
		removed++
	}

	return removed, nil
}

func (s *Store) entryPath(url string) string {
	sum := md5.Sum([]byte(url))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+constants.CacheEntryExt)
}

// WithTimeProvider overrides the clock used for freshness decisions.
func WithTimeProvider(tp timeProvider) Options {
	return func(o *options) {
		o.timeProvider = tp
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
