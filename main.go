package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"oadiscord/internal/bootstrap"
	"oadiscord/internal/config"
	"oadiscord/internal/openaction"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := newLogger(cfg.Log)

	launch, err := openaction.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("invalid launch arguments")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, launch, log); err != nil {
		log.Error().Err(err).Msg("plugin stopped")
		stop()
		os.Exit(1)
	}
	log.Info().Msg("plugin shut down")
}

func run(ctx context.Context, cfg config.Config, launch openaction.Config, log zerolog.Logger) error {
	client, err := openaction.Dial(ctx, launch, log)
	if err != nil {
		return fmt.Errorf("connect to host: %w", err)
	}
	defer client.Close()

	app := NewApp(client, log)
	services, err := bootstrap.Build(cfg, app, app, log)
	if err != nil {
		return err
	}
	app.attach(services.Controller)
	defer services.Controller.Close()

	log.Info().Int("port", launch.Port).Str("plugin", launch.PluginUUID).Msg("registered with host")
	return client.Run(ctx, app)
}
