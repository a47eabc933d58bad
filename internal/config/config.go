package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when OADISCORD_CONFIG is unset.
const DefaultPath = "config.yaml"

// Config stores operator configuration for the plugin process.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	IPC       IPCConfig       `yaml:"ipc"`
	OAuth     OAuthConfig     `yaml:"oauth"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type IPCConfig struct {
	Path        string   `yaml:"path"`
	CallTimeout Duration `yaml:"call_timeout"`
}

type OAuthConfig struct {
	TokenURL string   `yaml:"token_url"`
	Timeout  Duration `yaml:"timeout"`
}

type ReconnectConfig struct {
	Interval Duration `yaml:"interval"`
}

// Duration accepts "5s" style strings or integer seconds.
type Duration time.Duration

func (d Duration) ToDuration() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		*d = 0
		return nil
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a scalar")
	}
	parsed, err := parseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(i) * time.Second, nil
	}
	if dur, err := time.ParseDuration(raw); err == nil {
		return dur, nil
	}
	return 0, fmt.Errorf("invalid duration: %q", raw)
}

func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "debug",
			Format: "json",
		},
		IPC: IPCConfig{
			CallTimeout: Duration(10 * time.Second),
		},
		OAuth: OAuthConfig{
			TokenURL: "https://discord.com/api/v10/oauth2/token",
			Timeout:  Duration(15 * time.Second),
		},
		Reconnect: ReconnectConfig{
			Interval: Duration(5 * time.Second),
		},
	}
}

// PathFromEnv returns OADISCORD_CONFIG or DefaultPath.
func PathFromEnv() string {
	return envOrDefault("OADISCORD_CONFIG", DefaultPath)
}

// Load resolves configuration from defaults, an optional YAML file at path
// and environment variables, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	cfg.Log.Level = envOrDefault("OADISCORD_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envOrDefault("OADISCORD_LOG_FORMAT", cfg.Log.Format)
	cfg.Log.File = envOrDefault("OADISCORD_LOG_FILE", cfg.Log.File)
	cfg.IPC.Path = envOrDefault("OADISCORD_IPC_PATH", cfg.IPC.Path)
	cfg.IPC.CallTimeout = envOrDefaultDuration("OADISCORD_CALL_TIMEOUT", cfg.IPC.CallTimeout)
	cfg.OAuth.TokenURL = envOrDefault("OADISCORD_TOKEN_URL", cfg.OAuth.TokenURL)
	cfg.OAuth.Timeout = envOrDefaultDuration("OADISCORD_OAUTH_TIMEOUT", cfg.OAuth.Timeout)
	cfg.Reconnect.Interval = envOrDefaultDuration("OADISCORD_RECONNECT_INTERVAL", cfg.Reconnect.Interval)

	sanitize(&cfg)
	return cfg, nil
}

func sanitize(cfg *Config) {
	defaults := Default()

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Log.Format)) {
	case "console":
		cfg.Log.Format = "console"
	default:
		cfg.Log.Format = "json"
	}

	if cfg.IPC.CallTimeout.ToDuration() <= 0 {
		cfg.IPC.CallTimeout = defaults.IPC.CallTimeout
	}
	if strings.TrimSpace(cfg.OAuth.TokenURL) == "" {
		cfg.OAuth.TokenURL = defaults.OAuth.TokenURL
	}
	if cfg.OAuth.Timeout.ToDuration() <= 0 {
		cfg.OAuth.Timeout = defaults.OAuth.Timeout
	}
	if cfg.Reconnect.Interval.ToDuration() <= 0 {
		cfg.Reconnect.Interval = defaults.Reconnect.Interval
	}
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultDuration(key string, fallback Duration) Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := parseDuration(value)
	if err != nil {
		return fallback
	}
	return Duration(parsed)
}
