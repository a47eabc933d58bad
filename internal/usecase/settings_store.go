package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"oadiscord/internal/domain"
	"oadiscord/internal/ports"
)

// SettingsStore holds the last-applied host settings. Every plugin-originated
// mutation is pushed to the host before the lock is released.
type SettingsStore struct {
	persist ports.SettingsPersister
	log     zerolog.Logger

	mu      sync.RWMutex
	current domain.Settings
}

func NewSettingsStore(persist ports.SettingsPersister, log zerolog.Logger) *SettingsStore {
	return &SettingsStore{
		persist: persist,
		log:     log.With().Str("component", "settings").Logger(),
	}
}

// Snapshot returns a copy of the current settings.
func (s *SettingsStore) Snapshot() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySettings(s.current)
}

// Apply stores settings received from the host and reports whether the
// connection should be rebuilt. Host values are not written back.
func (s *SettingsStore) Apply(next domain.Settings) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := !s.current.SameCredentials(next) || !s.current.Complete()
	if changed {
		s.current = copySettings(next)
	}
	return changed
}

// SetError records a user-visible error. Setting the same message twice persists once.
func (s *SettingsStore) SetError(ctx context.Context, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Error != nil && *s.current.Error == message {
		return
	}
	s.current.Error = &message
	s.save(ctx, "failed to save error to global settings")
}

// ClearError removes a previously recorded error.
func (s *SettingsStore) ClearError(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.Error == nil {
		return
	}
	s.current.Error = nil
	s.save(ctx, "failed to clear error")
}

// SetAccessToken stores a freshly exchanged access token.
func (s *SettingsStore) SetAccessToken(ctx context.Context, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.AccessToken = token
	s.save(ctx, "failed to save access token")
}

// ClearAccessToken drops an access token the remote process rejected.
func (s *SettingsStore) ClearAccessToken(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.AccessToken = ""
	s.save(ctx, "failed to clear access token in settings")
}

// save must be called with mu held. Persistence is best-effort.
func (s *SettingsStore) save(ctx context.Context, failure string) {
	if s.persist == nil {
		return
	}
	if err := s.persist.SetGlobalSettings(ctx, copySettings(s.current)); err != nil {
		s.log.Error().Err(err).Msg(failure)
	}
}

func copySettings(in domain.Settings) domain.Settings {
	out := in
	if in.Error != nil {
		text := *in.Error
		out.Error = &text
	}
	return out
}
