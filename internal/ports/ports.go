package ports

import (
	"context"

	"oadiscord/internal/domain"
)

// ItemHandler receives every inbound item of a connection.
type ItemHandler func(item domain.Item)

// Connection is one session to the remote voice-chat process.
type Connection interface {
	Authenticate(ctx context.Context, accessToken string) error
	Authorize(ctx context.Context, clientID string, scopes []string) error
	Subscribe(ctx context.Context, event string) error
	GetVoiceSettings(ctx context.Context) error
	SetVoiceSettings(ctx context.Context, settings domain.VoiceSettings) error
	SetHandler(handler ItemHandler)
	RemoveHandler()
	Close() error
}

// Dialer opens the local IPC channel and performs the handshake.
type Dialer interface {
	Dial(ctx context.Context, clientID string) (Connection, domain.User, error)
}

// TokenExchanger converts an authorization code into an access token.
type TokenExchanger interface {
	Exchange(ctx context.Context, code, clientID, clientSecret string) (string, error)
}

// SettingsPersister pushes the settings back to the host.
type SettingsPersister interface {
	SetGlobalSettings(ctx context.Context, settings domain.Settings) error
}

// Instance is one visible control bound to an action.
type Instance interface {
	Context() string
	State() int
	SetState(ctx context.Context, state int) error
	ShowAlert(ctx context.Context) error
}

// Surface enumerates the visible control instances for an action.
type Surface interface {
	VisibleInstances(action string) []Instance
}
