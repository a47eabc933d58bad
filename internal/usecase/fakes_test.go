package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"oadiscord/internal/domain"
	"oadiscord/internal/ports"
)

type fakeConn struct {
	mu sync.Mutex

	handler ports.ItemHandler

	authErr      error
	authReply    *domain.Item
	authorizeErr error
	subscribeErr error
	getErr       error
	setErr       error

	tokens          []string
	authorizeScopes []string
	subscriptions   []string
	getCalls        int
	voiceSets       []domain.VoiceSettings
	removeCalls     int
	closeCalls      int
}

// Authenticate hands authReply to the handler before returning, the way the
// IPC connection delivers a reply to the inbound callback first.
func (f *fakeConn) Authenticate(_ context.Context, accessToken string) error {
	f.mu.Lock()
	f.tokens = append(f.tokens, accessToken)
	handler, reply, err := f.handler, f.authReply, f.authErr
	f.mu.Unlock()

	if handler != nil && reply != nil {
		handler(*reply)
	}
	return err
}

func (f *fakeConn) Authorize(_ context.Context, _ string, scopes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authorizeScopes = append([]string(nil), scopes...)
	return f.authorizeErr
}

func (f *fakeConn) Subscribe(_ context.Context, event string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscriptions = append(f.subscriptions, event)
	return f.subscribeErr
}

func (f *fakeConn) GetVoiceSettings(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	return f.getErr
}

func (f *fakeConn) SetVoiceSettings(_ context.Context, settings domain.VoiceSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.voiceSets = append(f.voiceSets, settings)
	return nil
}

func (f *fakeConn) SetHandler(handler ports.ItemHandler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handler
}

func (f *fakeConn) RemoveHandler() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = nil
	f.removeCalls++
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	return nil
}

func (f *fakeConn) deliver(item domain.Item) {
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	if handler != nil {
		handler(item)
	}
}

type connCalls struct {
	tokens          []string
	authorizeScopes []string
	subscriptions   []string
	getCalls        int
	voiceSets       []domain.VoiceSettings
	removeCalls     int
	closeCalls      int
}

func (f *fakeConn) snapshot() connCalls {
	f.mu.Lock()
	defer f.mu.Unlock()
	return connCalls{
		tokens:          append([]string(nil), f.tokens...),
		authorizeScopes: append([]string(nil), f.authorizeScopes...),
		subscriptions:   append([]string(nil), f.subscriptions...),
		getCalls:        f.getCalls,
		voiceSets:       append([]domain.VoiceSettings(nil), f.voiceSets...),
		removeCalls:     f.removeCalls,
		closeCalls:      f.closeCalls,
	}
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
	calls int
}

func (f *fakeDialer) Dial(_ context.Context, _ string) (ports.Connection, domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, domain.User{}, f.err
	}
	if len(f.conns) == 0 {
		return nil, domain.User{}, errors.New("no connection configured")
	}
	conn := f.conns[0]
	f.conns = f.conns[1:]
	return conn, domain.User{Username: "tester"}, nil
}

func (f *fakeDialer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeExchanger struct {
	mu    sync.Mutex
	token string
	err   error
	codes []string
}

func (f *fakeExchanger) Exchange(_ context.Context, code, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, code)
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

func (f *fakeExchanger) exchangedCodes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.codes...)
}

type fakePersister struct {
	mu    sync.Mutex
	saved []domain.Settings
	err   error
}

func (f *fakePersister) SetGlobalSettings(_ context.Context, settings domain.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, settings)
	return f.err
}

func (f *fakePersister) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func (f *fakePersister) last() domain.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saved) == 0 {
		return domain.Settings{}
	}
	return f.saved[len(f.saved)-1]
}

type fakeInstance struct {
	mu      sync.Mutex
	context string
	state   int
	states  []int
	alerts  int
	setErr  error
}

func (f *fakeInstance) Context() string { return f.context }

func (f *fakeInstance) State() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeInstance) SetState(_ context.Context, state int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.state = state
	f.states = append(f.states, state)
	return nil
}

func (f *fakeInstance) ShowAlert(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts++
	return nil
}

func (f *fakeInstance) snapshotStates() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.states...)
}

func (f *fakeInstance) alertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alerts
}

type fakeSurface struct {
	instances map[string][]*fakeInstance
}

func (f *fakeSurface) VisibleInstances(action string) []ports.Instance {
	out := make([]ports.Instance, 0, len(f.instances[action]))
	for _, instance := range f.instances[action] {
		out = append(out, instance)
	}
	return out
}

type fakeScheduler struct {
	mu     sync.Mutex
	calls  int
	onCall func()
}

func (f *fakeScheduler) Schedule() {
	f.mu.Lock()
	f.calls++
	hook := f.onCall
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (f *fakeScheduler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func readySession(conn *fakeConn) *Session {
	session := newSession(context.Background(), conn, domain.Settings{ClientID: "id", ClientSecret: "secret", AccessToken: "tok"})
	session.setState(domain.SessionReady)
	return session
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func boolPtr(v bool) *bool { return &v }
