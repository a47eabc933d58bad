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
	ErrMissingCredentials     = errors.New("client ID or client secret not configured")
	ErrChannelUnavailable     = errors.New("failed to connect to Discord")
	ErrAuthenticationFailed   = errors.New("authentication failed")
	ErrAuthorizationHandshake = errors.New("authorization handshake failed")
)

// itemRouter receives every item a session does not consume itself.
type itemRouter interface {
	Route(ctx context.Context, item domain.Item)
}

// Builder opens sessions and runs the authorization handshake when no token is stored.
type Builder struct {
	dialer    ports.Dialer
	exchanger ports.TokenExchanger
	store     *SettingsStore
	handle    *ConnectionHandle
	router    itemRouter
	log       zerolog.Logger
}

func NewBuilder(
	dialer ports.Dialer,
	exchanger ports.TokenExchanger,
	store *SettingsStore,
	handle *ConnectionHandle,
	router itemRouter,
	log zerolog.Logger,
) *Builder {
	return &Builder{
		dialer:    dialer,
		exchanger: exchanger,
		store:     store,
		handle:    handle,
		router:    router,
		log:       log.With().Str("component", "builder").Logger(),
	}
}

// Build returns either a ready session, a session waiting for the user to
// authorize the application, or an error.
func (b *Builder) Build(ctx context.Context, settings domain.Settings) (*Session, error) {
	if settings.ClientID == "" || settings.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	conn, user, err := b.dialer.Dial(ctx, settings.ClientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}
	b.log.Info().Str("user", user.Username).Msg("connected to Discord")

	session := newSession(ctx, conn, settings)
	conn.SetHandler(func(item domain.Item) {
		b.dispatch(session, item)
	})

	if settings.AccessToken != "" {
		if err := b.setup(ctx, session, settings.AccessToken); err != nil {
			_ = session.Close()
			return nil, err
		}
		return session, nil
	}

	b.log.Info().Msg("starting OAuth authorization flow")
	session.setState(domain.SessionAuthorizing)
	if err := conn.Authorize(ctx, settings.ClientID, domain.AuthorizeScopes); err != nil {
		msg := fmt.Errorf("%w: failed to start authorization: %v", ErrAuthorizationHandshake, err).Error()
		b.log.Error().Str("code", string(domain.ErrorCodeAuthorization)).Msg(msg)
		b.store.SetError(ctx, msg)
		return session, nil
	}
	b.log.Info().Msg("sent authorization request to Discord")
	return session, nil
}

// setup authenticates the session, subscribes to voice updates and requests
// the current voice settings once.
func (b *Builder) setup(ctx context.Context, session *Session, accessToken string) error {
	if err := session.conn.Authenticate(ctx, accessToken); err != nil {
		return fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	if err := session.conn.Subscribe(ctx, domain.EventVoiceSettingsUpdate); err != nil {
		return fmt.Errorf("%w: failed to subscribe to voice updates: %v", ErrAuthenticationFailed, err)
	}
	if err := session.conn.GetVoiceSettings(ctx); err != nil {
		return fmt.Errorf("%w: failed to fetch initial voice settings: %v", ErrAuthenticationFailed, err)
	}

	session.setState(domain.SessionReady)
	b.store.ClearError(ctx)
	return nil
}

// dispatch is the single inbound callback of a session.
func (b *Builder) dispatch(session *Session, item domain.Item) {
	switch session.State() {
	case domain.SessionClosed:
		return
	case domain.SessionAuthorizing:
		if item.Kind == domain.ItemCommand && item.Command == domain.CommandAuthorize && item.Code != "" {
			if !session.claimAuthorization() {
				b.log.Debug().Msg("ignoring repeated authorization code")
				return
			}
			b.log.Info().Msg("received authorization code, exchanging for access token")
			go b.completeAuthorization(session, item.Code)
			return
		}
		if item.Kind == domain.ItemEvent && item.Event == domain.EventError &&
			item.Command == domain.CommandAuthorize && item.Error != nil {
			msg := fmt.Errorf("%w: %s", ErrAuthorizationHandshake, item.Error.Message).Error()
			b.log.Error().Int("remote_code", item.Error.Code).Msg(msg)
			go b.store.SetError(session.ctx, msg)
			return
		}
	}
	b.router.Route(session.ctx, item)
}

func (b *Builder) completeAuthorization(session *Session, code string) {
	ctx := session.ctx

	accessToken, err := b.exchanger.Exchange(ctx, code, session.clientID, session.clientSecret)
	if err != nil {
		msg := fmt.Errorf("%w: failed to exchange code for token: %v", ErrAuthorizationHandshake, err).Error()
		b.log.Error().Str("code", string(domain.ErrorCodeAuthorization)).Msg(msg)
		b.store.SetError(ctx, msg)
		return
	}
	b.log.Info().Msg("obtained access token")
	b.store.SetAccessToken(ctx, accessToken)

	err = b.handle.WithExclusive(func(current *Session) error {
		if current != session {
			return errors.New("session is no longer current")
		}
		if session.State() != domain.SessionAuthorizing {
			return fmt.Errorf("session is %s", session.State())
		}
		return b.setup(ctx, session, accessToken)
	})
	if err != nil {
		msg := fmt.Errorf("%w: failed to set up authenticated client: %v", ErrAuthorizationHandshake, err).Error()
		b.log.Error().Str("code", string(domain.ErrorCodeAuthorization)).Msg(msg)
		b.store.SetError(ctx, msg)
	}
}
