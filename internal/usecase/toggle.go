package usecase

import (
	"context"

	"oadiscord/internal/domain"
	"oadiscord/internal/ports"
)

// ToggleMode selects how presses drive a voice attribute.
type ToggleMode string

const (
	// ToggleLatch flips the attribute on every release.
	ToggleLatch ToggleMode = "latch"
	// ToggleHold holds the attribute while pressed and restores it on release.
	ToggleHold ToggleMode = "hold"
)

// VoiceToggle binds one action to one voice attribute.
type VoiceToggle struct {
	Action string
	Field  domain.VoiceField
	Mode   ToggleMode
	// Pressed is the value sent while a hold toggle is pressed.
	Pressed bool
}

// DefaultToggles are the four registered actions.
var DefaultToggles = []VoiceToggle{
	{Action: domain.ActionToggleMute, Field: domain.VoiceFieldMute, Mode: ToggleLatch},
	{Action: domain.ActionToggleDeafen, Field: domain.VoiceFieldDeaf, Mode: ToggleLatch},
	{Action: domain.ActionPushToMute, Field: domain.VoiceFieldMute, Mode: ToggleHold, Pressed: true},
	{Action: domain.ActionPushToTalk, Field: domain.VoiceFieldMute, Mode: ToggleHold, Pressed: false},
}

// voiceUpdate is the request a press or release produces.
type voiceUpdate struct {
	settings domain.VoiceSettings
	next     int
}

// onPress returns the update for a key press, if the mode reacts to presses.
func (t VoiceToggle) onPress() (voiceUpdate, bool) {
	if t.Mode != ToggleHold {
		return voiceUpdate{}, false
	}
	return voiceUpdate{
		settings: domain.VoiceSettings{}.With(t.Field, t.Pressed),
		next:     domain.StateActive,
	}, true
}

// onRelease returns the update for a key release given the current visual state.
func (t VoiceToggle) onRelease(state int) (voiceUpdate, bool) {
	switch t.Mode {
	case ToggleLatch:
		value := state == domain.StateInactive
		next := domain.StateInactive
		if value {
			next = domain.StateActive
		}
		return voiceUpdate{settings: domain.VoiceSettings{}.With(t.Field, value), next: next}, true
	case ToggleHold:
		return voiceUpdate{
			settings: domain.VoiceSettings{}.With(t.Field, !t.Pressed),
			next:     domain.StateInactive,
		}, true
	default:
		return voiceUpdate{}, false
	}
}

// Press handles a key down on instance.
func (t VoiceToggle) Press(ctx context.Context, updater *VoiceUpdater, instance ports.Instance) error {
	update, ok := t.onPress()
	if !ok {
		return nil
	}
	return updater.Update(ctx, instance, update.settings, update.next)
}

// Release handles a key up on instance.
func (t VoiceToggle) Release(ctx context.Context, updater *VoiceUpdater, instance ports.Instance) error {
	update, ok := t.onRelease(instance.State())
	if !ok {
		return nil
	}
	return updater.Update(ctx, instance, update.settings, update.next)
}
