package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"oadiscord/internal/domain"
)

func TestReconnectorSingleFlight(t *testing.T) {
	t.Parallel()

	var running, maxRunning, calls atomic.Int32
	release := make(chan struct{})

	handle := NewConnectionHandle()
	store := NewSettingsStore(&fakePersister{}, zerolog.Nop())
	r := NewReconnector(func(_ context.Context, _ domain.Settings) (*Session, error) {
		calls.Add(1)
		n := running.Add(1)
		for {
			current := maxRunning.Load()
			if n <= current || maxRunning.CompareAndSwap(current, n) {
				break
			}
		}
		<-release
		running.Add(-1)
		return readySession(&fakeConn{}), nil
	}, store, handle, time.Millisecond, zerolog.Nop())
	defer r.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Schedule()
		}()
	}
	wg.Wait()

	if !r.Reconnecting() {
		t.Fatalf("expected flag to be set while the loop runs")
	}
	close(release)

	waitFor(t, "reconnect loop to finish", func() bool { return !r.Reconnecting() })
	if calls.Load() != 1 {
		t.Fatalf("expected exactly one build, got %d", calls.Load())
	}
	if maxRunning.Load() != 1 {
		t.Fatalf("expected one concurrent build, got %d", maxRunning.Load())
	}
	if handle.Current() == nil {
		t.Fatalf("expected handle to hold the built session")
	}
}

func TestReconnectorRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	persist := &fakePersister{}
	store := NewSettingsStore(persist, zerolog.Nop())
	handle := NewConnectionHandle()
	stale := &fakeConn{}
	handle.Replace(readySession(stale))

	var attempts atomic.Int32
	var handleEmptyOnRetry atomic.Bool
	conn := &fakeConn{}
	r := NewReconnector(func(_ context.Context, _ domain.Settings) (*Session, error) {
		n := attempts.Add(1)
		if n == 2 && handle.Current() == nil {
			handleEmptyOnRetry.Store(true)
		}
		if n < 3 {
			return nil, errors.New("Discord is not running")
		}
		return readySession(conn), nil
	}, store, handle, time.Millisecond, zerolog.Nop())
	defer r.Stop()

	r.Schedule()
	waitFor(t, "reconnect loop to finish", func() bool { return !r.Reconnecting() })

	if attempts.Load() != 3 {
		t.Fatalf("expected three attempts, got %d", attempts.Load())
	}
	if !handleEmptyOnRetry.Load() {
		t.Fatalf("expected handle to be cleared after a failed attempt")
	}
	if stale.snapshot().closeCalls != 1 {
		t.Fatalf("expected stale connection to be closed")
	}
	if current := handle.Current(); current == nil || current.conn != conn {
		t.Fatalf("expected handle to hold the new session")
	}
	if got := store.Snapshot().ErrorText(); got != "Discord is not running" {
		t.Fatalf("unexpected recorded error: %q", got)
	}
	if persist.count() != 1 {
		t.Fatalf("expected repeated identical errors to persist once, got %d", persist.count())
	}
}

func TestReconnectorReadsLatestSettingsEachAttempt(t *testing.T) {
	t.Parallel()

	store := NewSettingsStore(&fakePersister{}, zerolog.Nop())
	store.Apply(domain.Settings{ClientID: "old", ClientSecret: "secret"})

	seen := make(chan string, 8)
	r := NewReconnector(func(_ context.Context, settings domain.Settings) (*Session, error) {
		seen <- settings.ClientID
		if settings.ClientID == "old" {
			store.Apply(domain.Settings{ClientID: "new", ClientSecret: "secret"})
			return nil, errors.New("bad client")
		}
		return readySession(&fakeConn{}), nil
	}, store, NewConnectionHandle(), time.Millisecond, zerolog.Nop())
	defer r.Stop()

	r.Schedule()
	waitFor(t, "reconnect loop to finish", func() bool { return !r.Reconnecting() })

	if first, second := <-seen, <-seen; first != "old" || second != "new" {
		t.Fatalf("unexpected attempt order: %q, %q", first, second)
	}
}

func TestReconnectorStopEndsLoop(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	r := NewReconnector(func(_ context.Context, _ domain.Settings) (*Session, error) {
		attempts.Add(1)
		return nil, ErrMissingCredentials
	}, NewSettingsStore(nil, zerolog.Nop()), NewConnectionHandle(), time.Hour, zerolog.Nop())

	r.Schedule()
	waitFor(t, "first attempt", func() bool { return attempts.Load() == 1 })
	r.Stop()

	r.Schedule()
	time.Sleep(20 * time.Millisecond)
	if attempts.Load() != 1 {
		t.Fatalf("expected no attempts after stop, got %d", attempts.Load())
	}
}

func TestReconnectorDefaultsInterval(t *testing.T) {
	t.Parallel()

	r := NewReconnector(nil, nil, nil, 0, zerolog.Nop())
	defer r.Stop()
	if r.interval != DefaultReconnectInterval {
		t.Fatalf("unexpected interval: %s", r.interval)
	}
}
