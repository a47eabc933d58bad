package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTokenURL = "https://discord.com/api/v10/oauth2/token"
	DefaultTimeout  = 15 * time.Second
)

var (
	ErrOAuth              = errors.New("OAuth error")
	ErrUnexpectedResponse = errors.New("unexpected response")
)

// Config controls the token endpoint.
type Config struct {
	TokenURL string
	Timeout  time.Duration
}

// Exchanger implements ports.TokenExchanger against the Discord token endpoint.
type Exchanger struct {
	cfg    Config
	client *http.Client
	group  singleflight.Group
	log    zerolog.Logger
}

func NewExchanger(cfg Config, log zerolog.Logger) *Exchanger {
	if strings.TrimSpace(cfg.TokenURL) == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Exchanger{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With().Str("component", "oauth").Logger(),
	}
}

// Exchange trades an authorization code for an access token. Concurrent
// calls for the same code share one request.
func (e *Exchanger) Exchange(ctx context.Context, code, clientID, clientSecret string) (string, error) {
	v, err, shared := e.group.Do(code, func() (any, error) {
		return e.exchange(ctx, code, clientID, clientSecret)
	})
	if shared {
		e.log.Debug().Msg("joined in-flight token exchange")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (e *Exchanger) exchange(ctx context.Context, code, clientID, clientSecret string) (string, error) {
	cfg := oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  e.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.client)
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return "", classify(err)
	}
	return token.AccessToken, nil
}

func classify(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		if retrieveErr.ErrorCode != "" {
			description := retrieveErr.ErrorDescription
			if description == "" {
				description = retrieveErr.ErrorCode
			}
			return fmt.Errorf("%w: %s", ErrOAuth, description)
		}
		return fmt.Errorf("%w: %s", ErrUnexpectedResponse, strings.TrimSpace(string(retrieveErr.Body)))
	}

	// Anything other than a failed round trip is a malformed token response.
	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	return fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
}
