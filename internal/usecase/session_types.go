package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"oadiscord/internal/domain"
	"oadiscord/internal/ports"
)

// Session is one connection together with its sub-state. The state decides how
// inbound items are routed.
type Session struct {
	ctx  context.Context
	conn ports.Connection

	clientID     string
	clientSecret string

	stateMu sync.Mutex
	state   domain.SessionState

	codeClaimed atomic.Bool
	closeOnce   sync.Once
}

func newSession(ctx context.Context, conn ports.Connection, settings domain.Settings) *Session {
	return &Session{
		ctx:          ctx,
		conn:         conn,
		clientID:     settings.ClientID,
		clientSecret: settings.ClientSecret,
		state:        domain.SessionConnecting,
	}
}

// State returns the current sub-state.
func (s *Session) State() domain.SessionState {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.state
}

// Ready reports whether voice commands may be sent.
func (s *Session) Ready() bool {
	return s.State() == domain.SessionReady
}

func (s *Session) setState(state domain.SessionState) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.state == domain.SessionClosed {
		return
	}
	s.state = state
}

// claimAuthorization reports true for the first authorization code only.
func (s *Session) claimAuthorization() bool {
	return s.codeClaimed.CompareAndSwap(false, true)
}

// Close detaches the inbound callback before closing, so an intentional
// teardown is never reported as a dropped channel.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.stateMu.Lock()
		s.state = domain.SessionClosed
		s.stateMu.Unlock()

		s.conn.RemoveHandler()
		err = s.conn.Close()
	})
	return err
}

// ConnectionHandle holds at most one live session.
type ConnectionHandle struct {
	mu      sync.RWMutex
	current *Session
}

func NewConnectionHandle() *ConnectionHandle {
	return &ConnectionHandle{}
}

// Replace installs session and closes the one it replaces.
func (h *ConnectionHandle) Replace(session *Session) {
	h.mu.Lock()
	previous := h.current
	h.current = session
	h.mu.Unlock()

	if previous != nil && previous != session {
		_ = previous.Close()
	}
}

// Clear empties the handle and closes the session it held.
func (h *ConnectionHandle) Clear() {
	h.Replace(nil)
}

// Current returns the held session or nil.
func (h *ConnectionHandle) Current() *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// WithShared runs fn under the read lock. Command senders may run concurrently.
func (h *ConnectionHandle) WithShared(fn func(current *Session) error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return fn(h.current)
}

// WithExclusive runs fn under the write lock.
func (h *ConnectionHandle) WithExclusive(fn func(current *Session) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn(h.current)
}
