package main

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"oadiscord/internal/domain"
	"oadiscord/internal/openaction"
	"oadiscord/internal/ports"
	"oadiscord/internal/usecase"
)

type hostClient interface {
	SetGlobalSettings(ctx context.Context, settings any) error
	GetGlobalSettings(ctx context.Context) error
	VisibleInstances(action string) []*openaction.Instance
}

// App bridges the control-surface host to the voice controller.
type App struct {
	host       hostClient
	controller *usecase.Controller
	log        zerolog.Logger
}

func NewApp(host hostClient, log zerolog.Logger) *App {
	return &App{host: host, log: log.With().Str("component", "app").Logger()}
}

func (a *App) attach(controller *usecase.Controller) {
	a.controller = controller
}

// SetGlobalSettings persists settings through the host.
func (a *App) SetGlobalSettings(ctx context.Context, settings domain.Settings) error {
	return a.host.SetGlobalSettings(ctx, settings)
}

// VisibleInstances lists the host instances of action.
func (a *App) VisibleInstances(action string) []ports.Instance {
	visible := a.host.VisibleInstances(action)
	out := make([]ports.Instance, 0, len(visible))
	for _, instance := range visible {
		out = append(out, instance)
	}
	return out
}

// PluginReady requests the stored settings once registration completes.
func (a *App) PluginReady(ctx context.Context) error {
	return a.host.GetGlobalSettings(ctx)
}

func (a *App) GlobalSettingsChanged(_ context.Context, raw json.RawMessage) error {
	if a.controller == nil {
		return errors.New("controller not attached")
	}
	a.controller.ApplySettings(domain.ParseSettings(raw))
	return nil
}

func (a *App) KeyDown(ctx context.Context, action string, instance *openaction.Instance) error {
	if a.controller == nil {
		return errors.New("controller not attached")
	}
	return a.ignoreUnknown(action, a.controller.KeyDown(ctx, action, instance))
}

func (a *App) KeyUp(ctx context.Context, action string, instance *openaction.Instance) error {
	if a.controller == nil {
		return errors.New("controller not attached")
	}
	return a.ignoreUnknown(action, a.controller.KeyUp(ctx, action, instance))
}

func (a *App) ignoreUnknown(action string, err error) error {
	if errors.Is(err, usecase.ErrUnknownAction) {
		a.log.Warn().Str("action", action).Msg("key event for unregistered action")
		return nil
	}
	return err
}
