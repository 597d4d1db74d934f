package watchlist

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"movienote/internal/types"
)

// State is the synchronizer lifecycle. Empty means nothing has been loaded
// for the current identity, Loading means a remote load is in flight, Ready
// means the cached entries mirror the store as of the last completed call.
type State string

const (
	StateEmpty   State = "empty"
	StateLoading State = "loading"
	StateReady   State = "ready"
)

const loadKey = "load"

// Synchronizer keeps one user's watchlist cached in memory and pushes every
// mutation through the store before updating the cache. Concurrent calls for
// the same movie are rejected while the first is still in flight; concurrent
// loads coalesce onto one remote fetch.
type Synchronizer struct {
	mu      sync.Mutex
	repo    RemoteRepository
	logger  *log.Logger
	userID  int
	state   State
	entries []types.WatchlistEntry
	pending map[string]struct{}
	loaders []chan error
	gen     uint64
}

func NewSynchronizer(repo RemoteRepository, userID int, logger *log.Logger) *Synchronizer {
	return &Synchronizer{
		repo:    repo,
		logger:  logger.With("component", "watchlist", "user_id", userID),
		userID:  userID,
		state:   StateEmpty,
		pending: make(map[string]struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Entries returns a snapshot of the cached list. The slice is a copy; callers
// can filter and sort it freely.
func (s *Synchronizer) Entries() []types.WatchlistEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.WatchlistEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Contains reports whether the cached list holds the movie.
func (s *Synchronizer) Contains(movieID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(movieID) >= 0
}

// Load fetches the user's entries from the store. Calls that arrive while a
// load is already in flight wait for that load instead of issuing a second
// fetch. A load that completes after Clear has advanced the generation is
// discarded: its results belong to the previous identity.
func (s *Synchronizer) Load(ctx context.Context) error {
	s.mu.Lock()
	if _, inFlight := s.pending[loadKey]; inFlight {
		done := make(chan error, 1)
		s.loaders = append(s.loaders, done)
		s.mu.Unlock()
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.pending[loadKey] = struct{}{}
	s.state = StateLoading
	gen := s.gen
	s.mu.Unlock()

	entries, err := s.repo.List(ctx, s.userID)

	s.mu.Lock()
	delete(s.pending, loadKey)
	waiters := s.loaders
	s.loaders = nil

	if s.gen != gen {
		// Identity changed while the fetch ran. The cache was already
		// reset; do not resurrect the old user's entries.
		s.mu.Unlock()
		for _, w := range waiters {
			w <- nil
		}
		return nil
	}

	if err != nil {
		// A failed load still settles the state machine: the list presents
		// as ready with whatever it had (usually nothing) and the failure
		// is logged and surfaced to the caller.
		s.state = StateReady
		s.mu.Unlock()
		s.logger.Warn("watchlist load failed", "err", err)
		err = fmt.Errorf("watchlist load failed: %w", err)
		for _, w := range waiters {
			w <- err
		}
		return err
	}

	s.entries = entries
	s.state = StateReady
	s.mu.Unlock()

	for _, w := range waiters {
		w <- nil
	}
	return nil
}

// Add pushes a new entry through the store and installs the stored row, with
// its store-assigned id and timestamp, at the head of the cache. A movie
// already present, or one whose add is still in flight, returns
// types.ErrAlreadyExists without touching the store.
func (s *Synchronizer) Add(ctx context.Context, movie types.Movie) (*types.WatchlistEntry, error) {
	key := fmt.Sprintf("add:%d", movie.ID)

	s.mu.Lock()
	if s.indexLocked(movie.ID) >= 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("movie %d: %w", movie.ID, types.ErrAlreadyExists)
	}
	if _, inFlight := s.pending[key]; inFlight {
		s.mu.Unlock()
		return nil, fmt.Errorf("movie %d add in flight: %w", movie.ID, types.ErrAlreadyExists)
	}
	s.pending[key] = struct{}{}
	gen := s.gen
	s.mu.Unlock()

	entry, err := s.repo.Add(ctx, s.userID, movie)

	s.mu.Lock()
	delete(s.pending, key)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("watchlist add failed: %w", err)
	}
	if s.gen != gen {
		s.mu.Unlock()
		return entry, nil
	}
	if s.indexLocked(movie.ID) < 0 {
		s.entries = append([]types.WatchlistEntry{*entry}, s.entries...)
	}
	s.mu.Unlock()

	return entry, nil
}

// Remove deletes an entry from the store and the cache. Removing a movie that
// is not present, or whose removal is already in flight, is a no-op: the
// desired end state already holds.
func (s *Synchronizer) Remove(ctx context.Context, movieID int) error {
	key := fmt.Sprintf("remove:%d", movieID)

	s.mu.Lock()
	if s.indexLocked(movieID) < 0 {
		s.mu.Unlock()
		return nil
	}
	if _, inFlight := s.pending[key]; inFlight {
		s.mu.Unlock()
		return nil
	}
	s.pending[key] = struct{}{}
	gen := s.gen
	s.mu.Unlock()

	err := s.repo.Remove(ctx, s.userID, movieID)

	s.mu.Lock()
	delete(s.pending, key)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("watchlist remove failed: %w", err)
	}
	if s.gen == gen {
		if i := s.indexLocked(movieID); i >= 0 {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
		}
	}
	s.mu.Unlock()

	return nil
}

// SetWatched flips the watched flag on a cached entry through the store.
func (s *Synchronizer) SetWatched(ctx context.Context, movieID int, watched bool) error {
	return s.update(ctx, movieID, func(ctx context.Context) error {
		return s.repo.SetWatched(ctx, s.userID, movieID, watched)
	}, func(e *types.WatchlistEntry) {
		e.Watched = watched
	})
}

// SetRating sets the personal rating on a cached entry through the store.
func (s *Synchronizer) SetRating(ctx context.Context, movieID int, rating *int) error {
	return s.update(ctx, movieID, func(ctx context.Context) error {
		return s.repo.SetRating(ctx, s.userID, movieID, rating)
	}, func(e *types.WatchlistEntry) {
		e.Rating = rating
	})
}

// SetNotes sets the personal notes on a cached entry through the store.
func (s *Synchronizer) SetNotes(ctx context.Context, movieID int, notes *string) error {
	return s.update(ctx, movieID, func(ctx context.Context) error {
		return s.repo.SetNotes(ctx, s.userID, movieID, notes)
	}, func(e *types.WatchlistEntry) {
		e.Notes = notes
	})
}

func (s *Synchronizer) update(ctx context.Context, movieID int, remote func(context.Context) error, apply func(*types.WatchlistEntry)) error {
	s.mu.Lock()
	if s.indexLocked(movieID) < 0 {
		s.mu.Unlock()
		return fmt.Errorf("movie %d: %w", movieID, types.ErrNotFound)
	}
	gen := s.gen
	s.mu.Unlock()

	if err := remote(ctx); err != nil {
		return fmt.Errorf("watchlist update failed: %w", err)
	}

	s.mu.Lock()
	if s.gen == gen {
		if i := s.indexLocked(movieID); i >= 0 {
			apply(&s.entries[i])
		}
	}
	s.mu.Unlock()

	return nil
}

// Clear drops the cache and returns the synchronizer to its initial state.
// Called on sign-out; advancing the generation makes any in-flight remote
// result land harmlessly instead of repopulating the cleared cache.
func (s *Synchronizer) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.entries = nil
	s.state = StateEmpty
}

func (s *Synchronizer) indexLocked(movieID int) int {
	for i := range s.entries {
		if s.entries[i].MovieID == movieID {
			return i
		}
	}
	return -1
}
