package session

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// Registry maps active bearer tokens to their session managers, so each
// connected client keeps its own auth state and subscriptions across
// requests.
type Registry struct {
	mu       sync.Mutex
	client   AuthClient
	logger   *log.Logger
	managers map[string]*Manager
}

func NewRegistry(client AuthClient, logger *log.Logger) *Registry {
	return &Registry{
		client:   client,
		logger:   logger,
		managers: make(map[string]*Manager),
	}
}

// Attach returns the manager for a token, creating one on first use.
func (r *Registry) Attach(token string) *Manager {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.managers[token]; ok {
		return m
	}
	m := NewManager(r.client, r.logger)
	r.managers[token] = m
	return m
}

// SignIn creates a manager, signs it in against the auth service, and
// registers it under the new session's token.
func (r *Registry) SignIn(ctx context.Context, email, password string) (*Manager, error) {
	m := NewManager(r.client, r.logger)
	sess, err := m.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.managers[sess.Token] = m
	r.mu.Unlock()
	return m, nil
}

// Detach drops the manager for a token after sign-out.
func (r *Registry) Detach(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.managers, token)
}
