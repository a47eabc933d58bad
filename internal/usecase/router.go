package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"oadiscord/internal/domain"
)

// reconnectScheduler triggers a background reconnect.
type reconnectScheduler interface {
	Schedule()
}

// Router classifies inbound items of an established connection.
type Router struct {
	store     *SettingsStore
	scheduler reconnectScheduler
	voice     *VoiceSync
	log       zerolog.Logger
}

func NewRouter(store *SettingsStore, scheduler reconnectScheduler, voice *VoiceSync, log zerolog.Logger) *Router {
	return &Router{
		store:     store,
		scheduler: scheduler,
		voice:     voice,
		log:       log.With().Str("component", "router").Logger(),
	}
}

// Route hands item off to its own goroutine so the inbound channel never stalls.
func (r *Router) Route(ctx context.Context, item domain.Item) {
	go r.Handle(ctx, item)
}

// Handle processes one item synchronously.
func (r *Router) Handle(ctx context.Context, item domain.Item) {
	switch item.Kind {
	case domain.ItemEvent:
		switch item.Event {
		case domain.EventError:
			r.handleRemoteError(ctx, item)
		case domain.EventVoiceSettingsUpdate:
			if item.Voice != nil {
				r.voice.Apply(ctx, *item.Voice)
			}
		}
	case domain.ItemCommand:
		if item.Command == domain.CommandGetVoiceSettings && item.Voice != nil {
			r.voice.Apply(ctx, *item.Voice)
		}
	case domain.ItemClosed:
		r.log.Warn().Msg("Discord closed; attempting to reconnect")
		r.scheduler.Schedule()
	}
}

func (r *Router) handleRemoteError(ctx context.Context, item domain.Item) {
	if item.Error == nil {
		return
	}
	r.log.Error().
		Str("code", string(domain.ErrorCodeRemoteProtocol)).
		Int("remote_code", item.Error.Code).
		Str("command", item.Command).
		Str("message", item.Error.Message).
		Msg("Discord RPC error")

	if item.Error.Code != domain.InvalidCredentialCode {
		return
	}
	r.store.ClearAccessToken(ctx)
	r.scheduler.Schedule()
}
