package watchlist

import (
	"sync"

	"github.com/charmbracelet/log"
)

// Registry hands out one synchronizer per user id, so all requests for a user
// share the same cache and in-flight tracking.
type Registry struct {
	mu     sync.Mutex
	repo   RemoteRepository
	logger *log.Logger
	byUser map[int]*Synchronizer
}

func NewRegistry(repo RemoteRepository, logger *log.Logger) *Registry {
	return &Registry{
		repo:   repo,
		logger: logger,
		byUser: make(map[int]*Synchronizer),
	}
}

// For returns the synchronizer for a user, creating one on first use.
func (r *Registry) For(userID int) *Synchronizer {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.byUser[userID]; ok {
		return s
	}
	s := NewSynchronizer(r.repo, userID, r.logger)
	r.byUser[userID] = s
	return s
}

// Drop clears and forgets a user's synchronizer. Called on sign-out so a
// later sign-in starts from an empty cache.
func (r *Registry) Drop(userID int) {
	r.mu.Lock()
	s, ok := r.byUser[userID]
	delete(r.byUser, userID)
	r.mu.Unlock()

	if ok {
		s.Clear()
	}
}
