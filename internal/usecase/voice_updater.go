package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"oadiscord/internal/domain"
	"oadiscord/internal/ports"
)

var (
	ErrNotReady    = errors.New("voice connection not ready")
	ErrCommandSend = errors.New("failed to update voice state")
)

// VoiceUpdater is the single path that sends voice setting changes.
type VoiceUpdater struct {
	handle *ConnectionHandle
	log    zerolog.Logger
}

func NewVoiceUpdater(handle *ConnectionHandle, log zerolog.Logger) *VoiceUpdater {
	return &VoiceUpdater{
		handle: handle,
		log:    log.With().Str("component", "voice_updater").Logger(),
	}
}

// Update sends settings and, on success, moves instance to next. A missing or
// not yet authorized connection only raises an alert. The returned error is
// reserved for failures talking to the host.
func (u *VoiceUpdater) Update(ctx context.Context, instance ports.Instance, settings domain.VoiceSettings, next int) error {
	sendErr := u.handle.WithShared(func(current *Session) error {
		if current == nil || !current.Ready() {
			return ErrNotReady
		}
		if err := current.conn.SetVoiceSettings(ctx, settings); err != nil {
			return fmt.Errorf("%w: %v", ErrCommandSend, err)
		}
		return nil
	})

	switch {
	case sendErr == nil:
		return instance.SetState(ctx, next)
	case errors.Is(sendErr, ErrNotReady):
		u.log.Error().Str("context", instance.Context()).Msg(sendErr.Error())
	default:
		u.log.Error().Err(sendErr).Str("code", string(domain.ErrorCodeCommandSend)).Str("context", instance.Context()).Msg("voice update failed")
	}
	return instance.ShowAlert(ctx)
}
