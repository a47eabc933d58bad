package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OADISCORD_LOG_LEVEL",
		"OADISCORD_LOG_FORMAT",
		"OADISCORD_LOG_FILE",
		"OADISCORD_IPC_PATH",
		"OADISCORD_CALL_TIMEOUT",
		"OADISCORD_TOKEN_URL",
		"OADISCORD_OAUTH_TIMEOUT",
		"OADISCORD_RECONNECT_INTERVAL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" || cfg.Log.File != "" {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
	if cfg.IPC.Path != "" || cfg.IPC.CallTimeout.ToDuration() != 10*time.Second {
		t.Fatalf("unexpected ipc config: %+v", cfg.IPC)
	}
	if cfg.OAuth.TokenURL != "https://discord.com/api/v10/oauth2/token" || cfg.OAuth.Timeout.ToDuration() != 15*time.Second {
		t.Fatalf("unexpected oauth config: %+v", cfg.OAuth)
	}
	if cfg.Reconnect.Interval.ToDuration() != 5*time.Second {
		t.Fatalf("unexpected reconnect interval: %s", cfg.Reconnect.Interval.ToDuration())
	}
}

func TestLoadReadsYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
log:
  level: info
  format: console
  file: /var/log/oadiscord.log
ipc:
  path: /run/user/1000/discord-ipc-1
  call_timeout: 3
oauth:
  token_url: http://localhost:9999/token
  timeout: 2s
reconnect:
  interval: "750ms"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Log.Level != "info" || cfg.Log.Format != "console" || cfg.Log.File != "/var/log/oadiscord.log" {
		t.Fatalf("unexpected log config: %+v", cfg.Log)
	}
	if cfg.IPC.Path != "/run/user/1000/discord-ipc-1" || cfg.IPC.CallTimeout.ToDuration() != 3*time.Second {
		t.Fatalf("unexpected ipc config: %+v", cfg.IPC)
	}
	if cfg.OAuth.TokenURL != "http://localhost:9999/token" || cfg.OAuth.Timeout.ToDuration() != 2*time.Second {
		t.Fatalf("unexpected oauth config: %+v", cfg.OAuth)
	}
	if cfg.Reconnect.Interval.ToDuration() != 750*time.Millisecond {
		t.Fatalf("unexpected reconnect interval: %s", cfg.Reconnect.Interval.ToDuration())
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: warn\nreconnect:\n  interval: 30s\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	t.Setenv("OADISCORD_LOG_LEVEL", "ERROR")
	t.Setenv("OADISCORD_IPC_PATH", `\\.\pipe\discord-ipc-2`)
	t.Setenv("OADISCORD_RECONNECT_INTERVAL", "10")
	t.Setenv("OADISCORD_CALL_TIMEOUT", "1500ms")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Log.Level != "error" {
		t.Fatalf("expected env level, got %q", cfg.Log.Level)
	}
	if cfg.IPC.Path != `\\.\pipe\discord-ipc-2` {
		t.Fatalf("unexpected ipc path: %q", cfg.IPC.Path)
	}
	if cfg.Reconnect.Interval.ToDuration() != 10*time.Second {
		t.Fatalf("expected env interval, got %s", cfg.Reconnect.Interval.ToDuration())
	}
	if cfg.IPC.CallTimeout.ToDuration() != 1500*time.Millisecond {
		t.Fatalf("expected env call timeout, got %s", cfg.IPC.CallTimeout.ToDuration())
	}
}

func TestLoadInvalidValuesFallback(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  format: xml\nreconnect:\n  interval: -5\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	t.Setenv("OADISCORD_OAUTH_TIMEOUT", "soon")
	t.Setenv("OADISCORD_CALL_TIMEOUT", "0")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Log.Format != "json" {
		t.Fatalf("expected json fallback, got %q", cfg.Log.Format)
	}
	if cfg.Reconnect.Interval.ToDuration() != 5*time.Second {
		t.Fatalf("expected default interval, got %s", cfg.Reconnect.Interval.ToDuration())
	}
	if cfg.OAuth.Timeout.ToDuration() != 15*time.Second {
		t.Fatalf("expected default oauth timeout, got %s", cfg.OAuth.Timeout.ToDuration())
	}
	if cfg.IPC.CallTimeout.ToDuration() != 10*time.Second {
		t.Fatalf("expected default call timeout, got %s", cfg.IPC.CallTimeout.ToDuration())
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ipc:\n  call_timeout: [1, 2]\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv("OADISCORD_CONFIG", "")
	if got := PathFromEnv(); got != DefaultPath {
		t.Fatalf("expected default path, got %q", got)
	}

	t.Setenv("OADISCORD_CONFIG", "/etc/oadiscord.yaml")
	if got := PathFromEnv(); got != "/etc/oadiscord.yaml" {
		t.Fatalf("unexpected path: %q", got)
	}
}
