package openaction

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

// Config holds the launch arguments the host passes to the plugin binary.
type Config struct {
	Port          int
	PluginUUID    string
	RegisterEvent string
	Info          string
}

// ParseArgs reads the single-dash Stream Deck style launch arguments.
// Unknown arguments are rejected so a misconfigured host fails at startup.
func ParseArgs(args []string) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("oadiscord", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.IntVar(&cfg.Port, "port", 0, "host websocket port")
	fs.StringVar(&cfg.PluginUUID, "pluginUUID", "", "plugin registration id")
	fs.StringVar(&cfg.RegisterEvent, "registerEvent", "", "registration event name")
	fs.StringVar(&cfg.Info, "info", "", "host info JSON")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("invalid launch arguments: %w", err)
	}

	var problems []string
	if cfg.Port <= 0 || cfg.Port > 65535 {
		problems = append(problems, "-port must be a valid TCP port")
	}
	if strings.TrimSpace(cfg.PluginUUID) == "" {
		problems = append(problems, "-pluginUUID is required")
	}
	if strings.TrimSpace(cfg.RegisterEvent) == "" {
		problems = append(problems, "-registerEvent is required")
	}
	if len(problems) > 0 {
		return Config{}, errors.New(strings.Join(problems, "; "))
	}
	return cfg, nil
}

// URL is the host websocket endpoint.
func (c Config) URL() string {
	return fmt.Sprintf("ws://localhost:%d", c.Port)
}
