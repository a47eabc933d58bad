package openaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var ErrClosed = errors.New("host connection closed")

// Handler receives the host events the plugin reacts to. Key events are
// delivered one at a time in arrival order.
type Handler interface {
	PluginReady(ctx context.Context) error
	GlobalSettingsChanged(ctx context.Context, settings json.RawMessage) error
	KeyDown(ctx context.Context, action string, instance *Instance) error
	KeyUp(ctx context.Context, action string, instance *Instance) error
}

// Client is the plugin side of the host websocket.
type Client struct {
	cfg  Config
	conn *websocket.Conn
	log  zerolog.Logger

	registry *registry

	outbound chan []byte
	actions  chan actionEvent
	done     chan struct{}

	wg sync.WaitGroup

	errMu sync.Mutex
	err   error

	closeOnce sync.Once
}

type actionEvent struct {
	kind     string
	action   string
	instance *Instance
}

// Dial connects to the host and registers the plugin.
func Dial(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to host websocket: %w", err)
	}

	register := outboundEvent{Event: cfg.RegisterEvent, UUID: cfg.PluginUUID}
	if err := conn.WriteJSON(register); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to register plugin: %w", err)
	}

	return &Client{
		cfg:      cfg,
		conn:     conn,
		log:      log.With().Str("component", "openaction").Logger(),
		registry: newRegistry(),
		outbound: make(chan []byte, 64),
		actions:  make(chan actionEvent, 64),
		done:     make(chan struct{}),
	}, nil
}

// Run pumps host events into handler until the connection ends or ctx is
// cancelled. A normal close by the host is not an error.
func (c *Client) Run(ctx context.Context, handler Handler) error {
	c.wg.Add(2)
	go c.writeLoop()
	go c.actionLoop(ctx, handler)

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-c.done:
		}
	}()

	if err := handler.PluginReady(ctx); err != nil {
		c.log.Error().Err(err).Msg("plugin ready handler failed")
	}

	c.readLoop(ctx, handler)
	_ = c.Close()
	c.wg.Wait()
	return c.waitErr()
}

// VisibleInstances lists the instances of action currently on the surface.
func (c *Client) VisibleInstances(action string) []*Instance {
	return c.registry.visible(action)
}

// SetGlobalSettings stores settings in the host's plugin-wide storage.
func (c *Client) SetGlobalSettings(ctx context.Context, settings any) error {
	return c.send(ctx, outboundEvent{Event: eventSetGlobalSettings, Context: c.cfg.PluginUUID, Payload: settings})
}

// GetGlobalSettings asks the host to push didReceiveGlobalSettings.
func (c *Client) GetGlobalSettings(ctx context.Context) error {
	return c.send(ctx, outboundEvent{Event: eventGetGlobalSettings, Context: c.cfg.PluginUUID})
}

// Close ends the session.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		_ = c.conn.Close()
	})
	return nil
}

func (c *Client) send(ctx context.Context, event outboundEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", event.Event, err)
	}

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.outbound <- payload:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) waitErr() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

func (c *Client) setErr(err error) {
	if err == nil {
		return
	}
	if isNormalClose(err) {
		return
	}
	select {
	case <-c.done:
		return
	default:
	}

	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.err == nil {
		c.err = err
	}
}

// isNormalClose reports whether err, possibly wrapped, is an orderly close by the host.
func isNormalClose(err error) bool {
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		return false
	}
	return websocket.IsCloseError(closeErr,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}

func (c *Client) writeLoop() {
	defer c.wg.Done()

	for {
		select {
		case payload := <-c.outbound:
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.setErr(fmt.Errorf("failed to send host event: %w", err))
				_ = c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) actionLoop(ctx context.Context, handler Handler) {
	defer c.wg.Done()

	for {
		select {
		case event := <-c.actions:
			var err error
			switch event.kind {
			case EventKeyDown:
				err = handler.KeyDown(ctx, event.action, event.instance)
			case EventKeyUp:
				err = handler.KeyUp(ctx, event.action, event.instance)
			}
			if err != nil {
				c.log.Error().Err(err).Str("event", event.kind).Str("action", event.action).Msg("action handler failed")
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) readLoop(ctx context.Context, handler Handler) {
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			c.setErr(fmt.Errorf("failed to read host event: %w", err))
			return
		}

		var event inboundEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			c.log.Debug().Err(err).Msg("dropping undecodable host event")
			continue
		}
		c.handle(ctx, handler, event)
	}
}

func (c *Client) handle(ctx context.Context, handler Handler, event inboundEvent) {
	switch event.Event {
	case EventWillAppear:
		c.track(event)
	case EventWillDisappear:
		c.registry.remove(event.Context)
	case EventKeyDown, EventKeyUp:
		instance := c.track(event)
		select {
		case c.actions <- actionEvent{kind: event.Event, action: event.Action, instance: instance}:
		case <-c.done:
		}
	case EventDidReceiveGlobalSettings:
		var payload globalSettingsPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			c.log.Warn().Err(err).Msg("invalid global settings payload")
			return
		}
		if err := handler.GlobalSettingsChanged(ctx, payload.Settings); err != nil {
			c.log.Error().Err(err).Msg("global settings handler failed")
		}
	default:
		c.log.Debug().Str("event", event.Event).Msg("ignoring host event")
	}
}

// track registers the instance of event and adopts the state the host reports.
func (c *Client) track(event inboundEvent) *Instance {
	instance := c.registry.upsert(c, event.Action, event.Context)
	if payload := decodeActionPayload(event.Payload); payload.State != nil {
		instance.setLocalState(*payload.State)
	}
	return instance
}
