package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"oadiscord/internal/domain"
	"oadiscord/internal/ports"
)

var ErrUnknownAction = errors.New("unknown action")

// Config controls connection lifecycle behavior.
type Config struct {
	ReconnectInterval time.Duration
	Toggles           []VoiceToggle
}

// Controller owns the shared state and wires the connection lifecycle to the
// control-surface actions.
type Controller struct {
	store       *SettingsStore
	handle      *ConnectionHandle
	reconnector *Reconnector
	router      *Router
	builder     *Builder
	updater     *VoiceUpdater
	toggles     map[string]VoiceToggle
	log         zerolog.Logger
}

func NewController(
	dialer ports.Dialer,
	exchanger ports.TokenExchanger,
	persist ports.SettingsPersister,
	surface ports.Surface,
	cfg Config,
	log zerolog.Logger,
) *Controller {
	if len(cfg.Toggles) == 0 {
		cfg.Toggles = DefaultToggles
	}

	c := &Controller{
		store:   NewSettingsStore(persist, log),
		handle:  NewConnectionHandle(),
		toggles: make(map[string]VoiceToggle, len(cfg.Toggles)),
		log:     log.With().Str("component", "controller").Logger(),
	}
	for _, toggle := range cfg.Toggles {
		c.toggles[toggle.Action] = toggle
	}

	c.reconnector = NewReconnector(
		func(ctx context.Context, settings domain.Settings) (*Session, error) {
			return c.builder.Build(ctx, settings)
		},
		c.store,
		c.handle,
		cfg.ReconnectInterval,
		log,
	)
	c.router = NewRouter(c.store, c.reconnector, NewVoiceSync(surface, log), log)
	c.builder = NewBuilder(dialer, exchanger, c.store, c.handle, c.router, log)
	c.updater = NewVoiceUpdater(c.handle, log)
	return c
}

// ApplySettings evaluates settings pushed by the host and reconnects when the
// credentials changed or are still incomplete.
func (c *Controller) ApplySettings(settings domain.Settings) bool {
	if !c.store.Apply(settings) {
		return false
	}
	c.log.Info().Msg("global settings changed, reinitializing Discord client")
	c.reconnector.Schedule()
	return true
}

// KeyDown dispatches a press on instance of action.
func (c *Controller) KeyDown(ctx context.Context, action string, instance ports.Instance) error {
	toggle, ok := c.toggles[action]
	if !ok {
		return ErrUnknownAction
	}
	return toggle.Press(ctx, c.updater, instance)
}

// KeyUp dispatches a release on instance of action.
func (c *Controller) KeyUp(ctx context.Context, action string, instance ports.Instance) error {
	toggle, ok := c.toggles[action]
	if !ok {
		return ErrUnknownAction
	}
	return toggle.Release(ctx, c.updater, instance)
}

// Actions lists the registered action identifiers.
func (c *Controller) Actions() []string {
	out := make([]string, 0, len(c.toggles))
	for action := range c.toggles {
		out = append(out, action)
	}
	return out
}

// Settings returns the current settings snapshot.
func (c *Controller) Settings() domain.Settings {
	return c.store.Snapshot()
}

// SessionState reports the sub-state of the held connection.
func (c *Controller) SessionState() domain.SessionState {
	current := c.handle.Current()
	if current == nil {
		return domain.SessionClosed
	}
	return current.State()
}

// Reconnecting reports whether a retry loop is active.
func (c *Controller) Reconnecting() bool {
	return c.reconnector.Reconnecting()
}

// Close stops reconnecting and tears the connection down.
func (c *Controller) Close() {
	c.reconnector.Stop()
	c.handle.Clear()
}
