package discordipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"oadiscord/internal/domain"
	"oadiscord/internal/ports"
)

// DefaultCallTimeout bounds commands that wait for a reply.
const DefaultCallTimeout = 10 * time.Second

var (
	ErrClosed  = errors.New("discord ipc connection closed")
	ErrTimeout = errors.New("discord ipc call timed out")
)

// Conn is one IPC session. It implements ports.Connection.
type Conn struct {
	nc          net.Conn
	callTimeout time.Duration
	log         zerolog.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan response
	handler ports.ItemHandler
	closing bool

	done     chan struct{}
	doneOnce sync.Once
	err      error
}

func newConn(nc net.Conn, callTimeout time.Duration, log zerolog.Logger) *Conn {
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Conn{
		nc:          nc,
		callTimeout: callTimeout,
		log:         log,
		pending:     make(map[string]chan response),
		done:        make(chan struct{}),
	}
}

// connect performs the version handshake on nc and starts the read loop.
func connect(ctx context.Context, nc net.Conn, clientID string, callTimeout time.Duration, log zerolog.Logger) (*Conn, domain.User, error) {
	c := newConn(nc, callTimeout, log)
	user, err := c.handshake(ctx, clientID)
	if err != nil {
		_ = nc.Close()
		return nil, domain.User{}, err
	}
	go c.readLoop()
	return c, user, nil
}

func (c *Conn) handshake(ctx context.Context, clientID string) (domain.User, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.callTimeout)
	}
	if err := c.nc.SetDeadline(deadline); err != nil {
		return domain.User{}, fmt.Errorf("failed to set handshake deadline: %w", err)
	}
	defer func() { _ = c.nc.SetDeadline(time.Time{}) }()

	payload, err := json.Marshal(handshake{Version: 1, ClientID: clientID})
	if err != nil {
		return domain.User{}, err
	}
	if err := writeFrame(c.nc, OpHandshake, payload); err != nil {
		return domain.User{}, fmt.Errorf("failed to send handshake: %w", err)
	}

	for {
		op, payload, err := readFrame(c.nc)
		if err != nil {
			return domain.User{}, fmt.Errorf("failed to read handshake reply: %w", err)
		}

		switch op {
		case OpClose:
			return domain.User{}, closeError(payload)
		case OpPing:
			if err := writeFrame(c.nc, OpPong, payload); err != nil {
				return domain.User{}, fmt.Errorf("failed to answer ping: %w", err)
			}
		case OpFrame:
			var resp response
			if err := json.Unmarshal(payload, &resp); err != nil {
				return domain.User{}, fmt.Errorf("invalid handshake reply: %w", err)
			}
			if resp.isError() {
				return domain.User{}, resp.remoteError()
			}
			if resp.Cmd != domain.CommandDispatch || resp.Evt != domain.EventReady {
				continue
			}
			var ready readyData
			if err := json.Unmarshal(resp.Data, &ready); err != nil {
				return domain.User{}, fmt.Errorf("invalid ready payload: %w", err)
			}
			return ready.User, nil
		}
	}
}

func (c *Conn) Authenticate(ctx context.Context, accessToken string) error {
	_, err := c.call(ctx, domain.CommandAuthenticate, map[string]any{"access_token": accessToken}, "", true)
	return err
}

func (c *Conn) Authorize(ctx context.Context, clientID string, scopes []string) error {
	_, err := c.call(ctx, domain.CommandAuthorize, map[string]any{
		"client_id": clientID,
		"scopes":    scopes,
	}, "", false)
	return err
}

func (c *Conn) Subscribe(ctx context.Context, event string) error {
	_, err := c.call(ctx, domain.CommandSubscribe, map[string]any{}, event, true)
	return err
}

func (c *Conn) GetVoiceSettings(ctx context.Context) error {
	_, err := c.call(ctx, domain.CommandGetVoiceSettings, map[string]any{}, "", false)
	return err
}

func (c *Conn) SetVoiceSettings(ctx context.Context, settings domain.VoiceSettings) error {
	_, err := c.call(ctx, domain.CommandSetVoiceSettings, settings, "", true)
	return err
}

// SetHandler installs the single inbound callback. It runs on the read loop.
func (c *Conn) SetHandler(handler ports.ItemHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

func (c *Conn) RemoveHandler() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = nil
}

// Close ends the session without emitting a closed item.
func (c *Conn) Close() error {
	c.mu.Lock()
	c.closing = true
	c.mu.Unlock()

	c.shutdown(ErrClosed)
	return nil
}

// Done is closed once the connection has ended.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err returns the reason the connection ended.
func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

func (c *Conn) call(ctx context.Context, cmd string, args any, evt string, wait bool) (response, error) {
	nonce := uuid.NewString()
	payload, err := json.Marshal(request{Cmd: cmd, Args: args, Evt: evt, Nonce: nonce})
	if err != nil {
		return response{}, fmt.Errorf("failed to encode %s: %w", cmd, err)
	}

	var reply chan response
	if wait {
		reply = make(chan response, 1)
		c.mu.Lock()
		c.pending[nonce] = reply
		c.mu.Unlock()
		defer c.forget(nonce)
	}

	if err := c.send(payload); err != nil {
		return response{}, fmt.Errorf("failed to send %s: %w", cmd, err)
	}
	if !wait {
		return response{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	select {
	case resp := <-reply:
		if resp.isError() {
			return resp, resp.remoteError()
		}
		return resp, nil
	case <-c.done:
		return response{}, fmt.Errorf("%s: %w", cmd, c.err)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return response{}, fmt.Errorf("%w: %s", ErrTimeout, cmd)
		}
		return response{}, ctx.Err()
	}
}

func (c *Conn) send(payload []byte) error {
	if c.isDone() {
		return c.err
	}
	return c.write(OpFrame, payload)
}

func (c *Conn) write(op Opcode, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return writeFrame(c.nc, op, payload)
}

func (c *Conn) forget(nonce string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, nonce)
}

func (c *Conn) readLoop() {
	for {
		op, payload, err := readFrame(c.nc)
		if err != nil {
			c.shutdown(fmt.Errorf("%w: %v", ErrClosed, err))
			return
		}

		switch op {
		case OpPing:
			if err := c.write(OpPong, payload); err != nil {
				c.shutdown(fmt.Errorf("%w: failed to answer ping: %v", ErrClosed, err))
				return
			}
		case OpClose:
			c.shutdown(closeError(payload))
			return
		case OpFrame:
			var resp response
			if err := json.Unmarshal(payload, &resp); err != nil {
				c.log.Debug().Err(err).Msg("dropping undecodable frame")
				continue
			}
			c.dispatch(resp)
		default:
			c.log.Debug().Str("opcode", op.String()).Msg("ignoring frame")
		}
	}
}

// dispatch hands the decoded item to the handler and then resolves the pending
// call for resp. Error replies reach both, the handler first.
func (c *Conn) dispatch(resp response) {
	c.mu.Lock()
	var reply chan response
	if resp.Nonce != "" {
		if pending, ok := c.pending[resp.Nonce]; ok {
			delete(c.pending, resp.Nonce)
			reply = pending
		}
	}
	handler := c.handler
	c.mu.Unlock()

	if handler != nil {
		handler(decodeItem(resp))
	}
	if reply != nil {
		reply <- resp
	}
}

func (c *Conn) shutdown(err error) {
	c.doneOnce.Do(func() {
		c.err = err
		close(c.done)
		_ = c.nc.Close()

		c.mu.Lock()
		handler := c.handler
		if c.closing {
			handler = nil
		}
		c.mu.Unlock()

		if handler != nil {
			c.log.Warn().Err(err).Msg("Discord IPC connection lost")
			handler(domain.Item{Kind: domain.ItemClosed})
		}
	})
}

func (c *Conn) isDone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func closeError(payload []byte) error {
	var data errorData
	if err := json.Unmarshal(payload, &data); err != nil || data.Message == "" {
		return ErrClosed
	}
	return fmt.Errorf("%w: %s (%d)", ErrClosed, data.Message, data.Code)
}
