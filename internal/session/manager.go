// Package session tracks the current authenticated identity against the
// hosted auth service and notifies dependents when it changes.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"movienote/internal/types"
)

// EventType classifies auth-state notifications.
type EventType string

const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventTokenRefreshed EventType = "token_refreshed"
)

// Event is delivered to subscribers on every auth-state change. Session is
// nil for EventSignedOut.
type Event struct {
	Type    EventType
	Session *types.Session
}

// AuthClient is the slice of the hosted auth service the manager needs.
type AuthClient interface {
	// ValidateToken checks an existing token and returns the session it
	// represents.
	ValidateToken(ctx context.Context, token string) (*types.Session, error)
	// SignIn exchanges credentials for a new session.
	SignIn(ctx context.Context, email, password string) (*types.Session, error)
	// Revoke invalidates a token remotely.
	Revoke(ctx context.Context, token string) error
}

// DefaultInitTimeout bounds session initialization. Nothing else imposes a
// timeout on remote calls; startup must never hang on the auth service.
const DefaultInitTimeout = 5 * time.Second

// Manager owns the current session for one client of the application. It
// initializes from the auth service at startup and degrades to anonymous on
// any failure rather than blocking.
type Manager struct {
	mu          sync.Mutex
	client      AuthClient
	logger      *log.Logger
	initTimeout time.Duration
	current     *types.Session

	// subMu guards the subscriber set and is held (read) for the whole of a
	// delivery, so unsubscribing blocks until in-flight callbacks return.
	subMu       sync.RWMutex
	subscribers map[string]func(Event)
}

func NewManager(client AuthClient, logger *log.Logger) *Manager {
	return &Manager{
		client:      client,
		logger:      logger.With("component", "session"),
		initTimeout: DefaultInitTimeout,
		subscribers: make(map[string]func(Event)),
	}
}

// SetInitTimeout overrides the initialization bound. Zero restores the
// default.
func (m *Manager) SetInitTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d <= 0 {
		d = DefaultInitTimeout
	}
	m.initTimeout = d
}

// Initialize validates a previously stored token within a bounded time and
// installs the resulting session. A timeout, an error, or an empty token all
// degrade to anonymous: the caller gets nil and the application proceeds
// signed out.
func (m *Manager) Initialize(ctx context.Context, token string) *types.Session {
	if token == "" {
		return nil
	}

	m.mu.Lock()
	timeout := m.initTimeout
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sess, err := m.client.ValidateToken(ctx, token)
	if err != nil {
		m.logger.Warn("session initialization failed, continuing anonymous", "err", err)
		return nil
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	m.notify(Event{Type: EventSignedIn, Session: sess})
	return sess
}

// Subscribe registers for auth-state notifications and returns an
// unsubscribe function. After the returned function is called the callback
// will never fire again; an unsubscribe that races a delivery waits for that
// delivery to finish, so a torn-down consumer can unsubscribe safely.
func (m *Manager) Subscribe(fn func(Event)) func() {
	id := uuid.New().String()

	m.subMu.Lock()
	m.subscribers[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subscribers, id)
		m.subMu.Unlock()
	}
}

// SignIn delegates to the auth service and installs the returned session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*types.Session, error) {
	sess, err := m.client.SignIn(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("sign in failed: %w", err)
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	m.notify(Event{Type: EventSignedIn, Session: sess})
	return sess, nil
}

// SignOut clears the local session and notifies dependents immediately, then
// attempts the remote revocation. A failed remote sign-out is logged, not
// surfaced: local state correctness takes priority over remote confirmation.
func (m *Manager) SignOut(ctx context.Context) {
	m.mu.Lock()
	prev := m.current
	m.current = nil
	m.mu.Unlock()

	m.notify(Event{Type: EventSignedOut})

	if prev == nil || prev.Token == "" {
		return
	}
	if err := m.client.Revoke(ctx, prev.Token); err != nil {
		m.logger.Warn("remote sign-out failed, local session already cleared", "err", err)
	}
}

// Refresh swaps in a renewed session without a sign-in transition.
func (m *Manager) Refresh(sess *types.Session) {
	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()

	m.notify(Event{Type: EventTokenRefreshed, Session: sess})
}

// Current returns the session, or nil when anonymous. A session past its
// expiry is dropped here rather than served stale; the caller revalidates the
// token if it wants a fresh one.
func (m *Manager) Current() *types.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && !m.current.ExpiresAt.IsZero() && time.Now().After(m.current.ExpiresAt) {
		m.current = nil
	}
	return m.current
}

func (m *Manager) notify(event Event) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	for _, fn := range m.subscribers {
		fn(event)
	}
}
