package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movienote/internal/types"
)

// fakeAuth is an AuthClient with configurable latency and failures.
type fakeAuth struct {
	mu            sync.Mutex
	validateDelay time.Duration
	failValidate  bool
	failRevoke    bool
	revoked       []string
}

func (f *fakeAuth) ValidateToken(ctx context.Context, token string) (*types.Session, error) {
	if f.validateDelay > 0 {
		select {
		case <-time.After(f.validateDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.failValidate {
		return nil, fmt.Errorf("validate: %w", types.ErrUnauthenticated)
	}
	return &types.Session{Subject: "auth0|123", Email: "test@example.com", Name: "Test", Token: token}, nil
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (*types.Session, error) {
	if password != "correct" {
		return nil, fmt.Errorf("sign in: %w", types.ErrUnauthenticated)
	}
	return &types.Session{Subject: "auth0|123", Email: email, Token: "tok-1"}, nil
}

func (f *fakeAuth) Revoke(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRevoke {
		return fmt.Errorf("revoke: %w", types.ErrRemoteUnavailable)
	}
	f.revoked = append(f.revoked, token)
	return nil
}

func testLogger() *log.Logger {
	return log.New(os.Stderr)
}

func TestInitializeEmptyToken(t *testing.T) {
	m := NewManager(&fakeAuth{}, testLogger())
	assert.Nil(t, m.Initialize(context.Background(), ""))
	assert.Nil(t, m.Current())
}

func TestInitializeSuccess(t *testing.T) {
	m := NewManager(&fakeAuth{}, testLogger())

	var events []Event
	m.Subscribe(func(ev Event) { events = append(events, ev) })

	sess := m.Initialize(context.Background(), "tok-1")
	require.NotNil(t, sess)
	assert.Equal(t, "auth0|123", sess.Subject)
	assert.Equal(t, sess, m.Current())
	require.Len(t, events, 1)
	assert.Equal(t, EventSignedIn, events[0].Type)
}

func TestInitializeTimeoutDegradesToAnonymous(t *testing.T) {
	auth := &fakeAuth{validateDelay: time.Second}
	m := NewManager(auth, testLogger())
	m.SetInitTimeout(20 * time.Millisecond)

	start := time.Now()
	sess := m.Initialize(context.Background(), "tok-1")
	assert.Nil(t, sess, "a slow auth service must not block startup")
	assert.Nil(t, m.Current())
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestInitializeInvalidToken(t *testing.T) {
	m := NewManager(&fakeAuth{failValidate: true}, testLogger())
	assert.Nil(t, m.Initialize(context.Background(), "stale"))
	assert.Nil(t, m.Current())
}

func TestSignInAndOut(t *testing.T) {
	auth := &fakeAuth{}
	m := NewManager(auth, testLogger())

	_, err := m.SignIn(context.Background(), "test@example.com", "wrong")
	require.ErrorIs(t, err, types.ErrUnauthenticated)
	assert.Nil(t, m.Current())

	sess, err := m.SignIn(context.Background(), "test@example.com", "correct")
	require.NoError(t, err)
	assert.Equal(t, sess, m.Current())

	m.SignOut(context.Background())
	assert.Nil(t, m.Current())
	assert.Equal(t, []string{"tok-1"}, auth.revoked)
}

func TestSignOutClearsLocalBeforeRevoke(t *testing.T) {
	auth := &fakeAuth{}
	m := NewManager(auth, testLogger())
	_, err := m.SignIn(context.Background(), "test@example.com", "correct")
	require.NoError(t, err)

	// The signed-out event must arrive with local state already cleared and
	// before the remote revocation happened.
	m.Subscribe(func(ev Event) {
		if ev.Type != EventSignedOut {
			return
		}
		assert.Nil(t, m.Current())
		auth.mu.Lock()
		assert.Empty(t, auth.revoked, "notification must precede remote revoke")
		auth.mu.Unlock()
	})

	m.SignOut(context.Background())
}

func TestSignOutSurvivesRevokeFailure(t *testing.T) {
	auth := &fakeAuth{failRevoke: true}
	m := NewManager(auth, testLogger())
	_, err := m.SignIn(context.Background(), "test@example.com", "correct")
	require.NoError(t, err)

	m.SignOut(context.Background())
	assert.Nil(t, m.Current(), "local session clears even when the remote revoke fails")
}

func TestUnsubscribe(t *testing.T) {
	m := NewManager(&fakeAuth{}, testLogger())

	calls := 0
	unsubscribe := m.Subscribe(func(Event) { calls++ })

	_, err := m.SignIn(context.Background(), "test@example.com", "correct")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	unsubscribe()
	m.SignOut(context.Background())
	assert.Equal(t, 1, calls, "unsubscribed callback must never fire again")
}

func TestUnsubscribeWaitsForInFlightDelivery(t *testing.T) {
	m := NewManager(&fakeAuth{}, testLogger())

	entered := make(chan struct{})
	release := make(chan struct{})
	var fired atomic.Int32
	unsubscribe := m.Subscribe(func(Event) {
		fired.Add(1)
		close(entered)
		<-release
	})

	go m.Refresh(&types.Session{Subject: "auth0|123", Token: "tok-2"})
	<-entered

	// The callback is mid-delivery; unsubscribe must not return yet.
	done := make(chan struct{})
	go func() {
		unsubscribe()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("unsubscribe returned while a delivery was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-done

	m.Refresh(&types.Session{Subject: "auth0|123", Token: "tok-3"})
	assert.Equal(t, int32(1), fired.Load(), "unsubscribed callback must never fire again")
}

func TestCurrentDropsExpiredSession(t *testing.T) {
	m := NewManager(&fakeAuth{}, testLogger())

	m.Refresh(&types.Session{Subject: "auth0|123", Token: "tok-1", ExpiresAt: time.Now().Add(-time.Minute)})
	assert.Nil(t, m.Current(), "an expired session must not be served as live")

	m.Refresh(&types.Session{Subject: "auth0|123", Token: "tok-2", ExpiresAt: time.Now().Add(time.Hour)})
	assert.NotNil(t, m.Current())
}

func TestRefresh(t *testing.T) {
	m := NewManager(&fakeAuth{}, testLogger())

	var events []Event
	m.Subscribe(func(ev Event) { events = append(events, ev) })

	renewed := &types.Session{Subject: "auth0|123", Token: "tok-2"}
	m.Refresh(renewed)

	assert.Equal(t, renewed, m.Current())
	require.Len(t, events, 1)
	assert.Equal(t, EventTokenRefreshed, events[0].Type)
}
