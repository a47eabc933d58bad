package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"oadiscord/internal/domain"
)

// DefaultReconnectInterval is the wait between failed connection attempts.
const DefaultReconnectInterval = 5 * time.Second

// BuildFunc produces a session from a settings snapshot.
type BuildFunc func(ctx context.Context, settings domain.Settings) (*Session, error)

// Reconnector runs at most one background retry loop at a time.
type Reconnector struct {
	build    BuildFunc
	store    *SettingsStore
	handle   *ConnectionHandle
	interval time.Duration
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	reconnecting atomic.Bool
}

func NewReconnector(
	build BuildFunc,
	store *SettingsStore,
	handle *ConnectionHandle,
	interval time.Duration,
	log zerolog.Logger,
) *Reconnector {
	if interval <= 0 {
		interval = DefaultReconnectInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Reconnector{
		build:    build,
		store:    store,
		handle:   handle,
		interval: interval,
		log:      log.With().Str("component", "reconnector").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Schedule starts the retry loop unless one is already running. It never blocks.
func (r *Reconnector) Schedule() {
	if !r.reconnecting.CompareAndSwap(false, true) {
		return
	}
	if r.ctx.Err() != nil {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.loop()
	}()
}

// Reconnecting reports whether a retry loop is active.
func (r *Reconnector) Reconnecting() bool {
	return r.reconnecting.Load()
}

// Stop cancels the loop for process shutdown and waits for it to exit.
// The flag stays set so no loop can start afterwards.
func (r *Reconnector) Stop() {
	r.reconnecting.Store(true)
	r.cancel()
	r.wg.Wait()
}

func (r *Reconnector) loop() {
	for attempt := 1; r.reconnecting.Load(); attempt++ {
		settings := r.store.Snapshot()

		session, err := r.build(r.ctx, settings)
		if err == nil {
			r.handle.Replace(session)
			r.reconnecting.Store(false)
			r.log.Info().Int("attempt", attempt).Str("state", string(session.State())).Msg("Discord client initialized")
			return
		}

		r.handle.Clear()
		if r.ctx.Err() != nil {
			return
		}
		r.log.Error().Err(err).Int("attempt", attempt).Msg("failed to reinitialize client")
		r.store.SetError(r.ctx, err.Error())

		timer := time.NewTimer(r.interval)
		select {
		case <-timer.C:
		case <-r.ctx.Done():
			timer.Stop()
			return
		}
	}
}
