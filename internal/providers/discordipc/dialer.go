package discordipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"oadiscord/internal/domain"
	"oadiscord/internal/ports"
)

const socketSlots = 10

// Config controls how the IPC channel is located and how long calls may take.
type Config struct {
	// Path pins a single socket or pipe. Empty means discovery.
	Path        string
	CallTimeout time.Duration
}

// Dialer implements ports.Dialer for the Discord desktop client.
type Dialer struct {
	cfg  Config
	dial func(ctx context.Context, path string) (net.Conn, error)
	log  zerolog.Logger
}

func NewDialer(cfg Config, log zerolog.Logger) *Dialer {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	return &Dialer{
		cfg:  cfg,
		dial: dialPipe,
		log:  log.With().Str("component", "discord_ipc").Logger(),
	}
}

// Dial connects to the first reachable IPC slot and completes the handshake.
func (d *Dialer) Dial(ctx context.Context, clientID string) (ports.Connection, domain.User, error) {
	paths := d.paths()

	var lastErr error
	for _, path := range paths {
		nc, err := d.dial(ctx, path)
		if err != nil {
			lastErr = err
			continue
		}

		conn, user, err := connect(ctx, nc, clientID, d.cfg.CallTimeout, d.log.With().Str("path", path).Logger())
		if err != nil {
			return nil, domain.User{}, fmt.Errorf("handshake on %s failed: %w", path, err)
		}
		d.log.Debug().Str("path", path).Msg("IPC handshake complete")
		return conn, user, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no candidate paths")
	}
	return nil, domain.User{}, fmt.Errorf("no Discord IPC socket found: %w", lastErr)
}

func (d *Dialer) paths() []string {
	if d.cfg.Path != "" {
		return []string{d.cfg.Path}
	}
	return candidatePaths()
}

func slotName(slot int) string {
	return fmt.Sprintf("discord-ipc-%d", slot)
}
