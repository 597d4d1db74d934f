// Package localstore is the local persistent fallback used when no session
// is present: a JSON file of blobs under fixed key names, holding the theme
// preference and the anonymous watchlist. The anonymous list carries movies
// only - no store ids, no watched or rating fields - and is never merged into
// an authenticated watchlist.
package localstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"movienote/internal/types"
)

const (
	themeKey     = "theme"
	watchlistKey = "movieWatchlist"
)

type Store struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

// Open loads the store file, treating a missing file as empty defaults. A
// corrupt file is also treated as empty: the fallback store must never block
// application startup.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		data: make(map[string]json.RawMessage),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read local store: %w", err)
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		s.data = make(map[string]json.RawMessage)
	}
	return s, nil
}

// Theme returns the stored theme preference, defaulting to "dark".
func (s *Store) Theme() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok := s.data[themeKey]
	if !ok {
		return "dark"
	}
	var theme string
	if err := json.Unmarshal(raw, &theme); err != nil || theme == "" {
		return "dark"
	}
	return theme
}

// SetTheme persists the theme preference.
func (s *Store) SetTheme(theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(theme)
	if err != nil {
		return err
	}
	s.data[themeKey] = raw
	return s.flushLocked()
}

// Watchlist returns a copy of the anonymous watchlist.
func (s *Store) Watchlist() []types.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watchlistLocked()
}

// Add appends a movie to the anonymous watchlist. A duplicate id is a no-op;
// it reports whether the movie was added.
func (s *Store) Add(movie types.Movie) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.watchlistLocked()
	for _, m := range list {
		if m.ID == movie.ID {
			return false, nil
		}
	}
	list = append(list, movie)
	if err := s.saveWatchlistLocked(list); err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes a movie from the anonymous watchlist by id; it reports
// whether an entry was removed.
func (s *Store) Remove(movieID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.watchlistLocked()
	kept := list[:0]
	for _, m := range list {
		if m.ID != movieID {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(list) {
		return false, nil
	}
	if err := s.saveWatchlistLocked(kept); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) watchlistLocked() []types.Movie {
	raw, ok := s.data[watchlistKey]
	if !ok {
		return nil
	}
	var list []types.Movie
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}

func (s *Store) saveWatchlistLocked(list []types.Movie) error {
	raw, err := json.Marshal(list)
	if err != nil {
		return err
	}
	s.data[watchlistKey] = raw
	return s.flushLocked()
}

// flushLocked writes the whole store atomically: temp file plus rename, so a
// crash mid-write cannot corrupt the previous contents.
func (s *Store) flushLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create local store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".localstore-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write local store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close local store: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace local store: %w", err)
	}
	return nil
}
