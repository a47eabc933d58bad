package bootstrap

import (
	"errors"

	"github.com/rs/zerolog"

	"oadiscord/internal/config"
	"oadiscord/internal/ports"
	"oadiscord/internal/providers/discordipc"
	"oadiscord/internal/providers/oauth"
	"oadiscord/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.Controller
	Config     config.Config
}

// Build wires all backend dependencies for the current runtime.
func Build(cfg config.Config, persist ports.SettingsPersister, surface ports.Surface, log zerolog.Logger) (Services, error) {
	if persist == nil {
		return Services{}, errors.New("settings persister is required")
	}
	if surface == nil {
		return Services{}, errors.New("control surface is required")
	}

	controller := usecase.NewController(
		discordipc.NewDialer(discordipc.Config{
			Path:        cfg.IPC.Path,
			CallTimeout: cfg.IPC.CallTimeout.ToDuration(),
		}, log),
		oauth.NewExchanger(oauth.Config{
			TokenURL: cfg.OAuth.TokenURL,
			Timeout:  cfg.OAuth.Timeout.ToDuration(),
		}, log),
		persist,
		surface,
		usecase.Config{
			ReconnectInterval: cfg.Reconnect.Interval.ToDuration(),
			Toggles:           usecase.DefaultToggles,
		},
		log,
	)

	return Services{Controller: controller, Config: cfg}, nil
}
