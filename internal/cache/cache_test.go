package cache_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/obrdata/openbankingbr/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedTime struct {
	now time.Time
}

func (f fixedTime) Now() time.Time {
	return f.now
}

const participantsURL = "https://data.directory.openbankingbrasil.org.br/participants"

func TestNew(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		emptyDir   bool
		dirMissing bool
		dirIsFile  bool

		wantErr bool
	}{
		"Existing directory": {},
		"Missing directory":  {dirMissing: true},
		"Empty path":         {emptyDir: true, wantErr: true},
		"Path is a file":     {dirIsFile: true, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			switch {
			case tc.emptyDir:
				dir = ""
			case tc.dirMissing:
				dir = filepath.Join(dir, "sub", "cache")
			case tc.dirIsFile:
				dir = filepath.Join(dir, "cache")
				require.NoError(t, os.WriteFile(dir, []byte("not a dir"), 0600), "Setup: could not write file")
			}

			_, err := cache.New(dir)
			if tc.wantErr {
				require.Error(t, err, "New should fail")
				return
			}
			require.NoError(t, err, "New should succeed")

			info, err := os.Stat(dir)
			require.NoError(t, err, "cache directory should exist")
			assert.True(t, info.IsDir())
		})
	}
}

func TestGetSameDayHit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := cache.New(dir)
	require.NoError(t, err, "Setup: New should succeed")

	doc := map[string]any{"data": map[string]any{"brand": "Banco Teste"}, "acentuação": "ção"}
	require.NoError(t, store.Put(participantsURL, doc), "Put should succeed")

	got, ok := store.Get(participantsURL)
	require.True(t, ok, "same day read should hit")
	assert.Equal(t, doc, got, "cached document should round trip")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "one entry per URL")
	assert.Equal(t, ".json", filepath.Ext(entries[0].Name()))

	raw, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "ção", "non-ASCII should be preserved unescaped")
}

func TestGetStaleEntryIsDeleted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// Write the entry "yesterday".
	yesterday := time.Now().AddDate(0, 0, -1)
	past, err := cache.New(dir, cache.WithTimeProvider(fixedTime{now: yesterday}))
	require.NoError(t, err, "Setup: New should succeed")
	require.NoError(t, past.Put(participantsURL, map[string]any{"stale": true}), "Setup: Put should succeed")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	entryPath := filepath.Join(dir, entries[0].Name())
	require.NoError(t, os.Chtimes(entryPath, yesterday, yesterday), "Setup: could not backdate entry")

	store, err := cache.New(dir)
	require.NoError(t, err, "Setup: New should succeed")

	_, ok := store.Get(participantsURL)
	assert.False(t, ok, "entry written before today should miss")
	assert.NoFileExists(t, entryPath, "stale entry should be deleted on read")
}

func TestGetMidnightBoundary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTime := time.Date(2026, 8, 29, 23, 59, 0, 0, time.Local)

	store, err := cache.New(dir, cache.WithTimeProvider(fixedTime{now: writeTime}))
	require.NoError(t, err, "Setup: New should succeed")
	require.NoError(t, store.Put(participantsURL, map[string]any{"v": 1.0}), "Setup: Put should succeed")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	entryPath := filepath.Join(dir, entries[0].Name())
	require.NoError(t, os.Chtimes(entryPath, writeTime, writeTime), "Setup: could not set entry time")

	// Two minutes later it is a new calendar day, so the entry is stale.
	later, err := cache.New(dir, cache.WithTimeProvider(fixedTime{now: writeTime.Add(2 * time.Minute)}))
	require.NoError(t, err, "Setup: New should succeed")

	_, ok := later.Get(participantsURL)
	assert.False(t, ok, "calendar day freshness, not a rolling window")
}

func TestGetCorruptEntry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := cache.New(dir)
	require.NoError(t, err, "Setup: New should succeed")
	require.NoError(t, store.Put(participantsURL, map[string]any{"v": 1.0}), "Setup: Put should succeed")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	entryPath := filepath.Join(dir, entries[0].Name())
	require.NoError(t, os.WriteFile(entryPath, []byte("{not json"), 0600), "Setup: could not corrupt entry")

	_, ok := store.Get(participantsURL)
	assert.False(t, ok, "corrupt entry should miss")
	assert.NoFileExists(t, entryPath, "corrupt entry should be removed")
}

func TestSweep(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		ageDays map[string]int // entry name -> age in days
		other   []string       // non-entry files that must survive
		maxAge  uint

		wantRemoved int
		wantKept    int
	}{
		"Nothing to sweep":       {ageDays: map[string]int{"a": 0, "b": 1}, maxAge: 5, wantKept: 2},
		"Old entries removed":    {ageDays: map[string]int{"a": 0, "b": 6, "c": 10}, maxAge: 5, wantRemoved: 2, wantKept: 1},
		"Exact age is removed":   {ageDays: map[string]int{"a": 5}, maxAge: 5, wantRemoved: 1},
		"Zero max age removes all": {ageDays: map[string]int{"a": 0, "b": 1}, maxAge: 0, wantRemoved: 2},
		"Foreign files are kept": {ageDays: map[string]int{"a": 9}, other: []string{"README.txt"}, maxAge: 5, wantRemoved: 1, wantKept: 1},
		"Empty cache":            {maxAge: 5},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			store, err := cache.New(dir)
			require.NoError(t, err, "Setup: New should succeed")

			now := time.Now()
			for url := range tc.ageDays {
				require.NoError(t, store.Put("https://example.com/"+url, map[string]any{"u": url}), "Setup: Put should succeed")
			}
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			require.Len(t, entries, len(tc.ageDays))

			// Backdate entries. Order over dir entries is not tied to ages, so
			// map ages onto files one by one.
			ages := make([]int, 0, len(tc.ageDays))
			for _, age := range tc.ageDays {
				ages = append(ages, age)
			}
			for i, entry := range entries {
				when := now.AddDate(0, 0, -ages[i])
				require.NoError(t, os.Chtimes(filepath.Join(dir, entry.Name()), when, when), "Setup: could not backdate entry")
			}

			for _, name := range tc.other {
				old := now.AddDate(0, 0, -30)
				p := filepath.Join(dir, name)
				require.NoError(t, os.WriteFile(p, []byte("keep me"), 0600), "Setup: could not write file")
				require.NoError(t, os.Chtimes(p, old, old), "Setup: could not backdate file")
			}

			removed, err := store.Sweep(tc.maxAge)
			require.NoError(t, err, "Sweep should succeed")
			assert.Equal(t, tc.wantRemoved, removed, "removed count mismatch")

			left, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, left, tc.wantKept, "kept entry count mismatch")
		})
	}
}
