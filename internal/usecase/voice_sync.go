package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"oadiscord/internal/domain"
	"oadiscord/internal/ports"
)

// VoiceSync mirrors the remote voice settings onto the toggle actions.
type VoiceSync struct {
	surface ports.Surface
	log     zerolog.Logger
}

func NewVoiceSync(surface ports.Surface, log zerolog.Logger) *VoiceSync {
	return &VoiceSync{
		surface: surface,
		log:     log.With().Str("component", "voice_sync").Logger(),
	}
}

// Apply sets every visible toggle mute and toggle deafen instance. Missing fields read as false.
func (v *VoiceSync) Apply(ctx context.Context, settings domain.VoiceSettings) {
	v.updateAction(ctx, domain.ActionToggleMute, settings.Muted())
	v.updateAction(ctx, domain.ActionToggleDeafen, settings.Deafened())
}

func (v *VoiceSync) updateAction(ctx context.Context, action string, active bool) {
	state := domain.StateInactive
	if active {
		state = domain.StateActive
	}
	for _, instance := range v.surface.VisibleInstances(action) {
		if err := instance.SetState(ctx, state); err != nil {
			v.log.Error().Err(err).Str("action", action).Str("context", instance.Context()).Msg("failed to update state")
		}
	}
}
