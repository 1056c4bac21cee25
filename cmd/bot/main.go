// File: cmd/bot/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"telegram-horoscope-bot/internal/application"
	"telegram-horoscope-bot/internal/config"
	"telegram-horoscope-bot/internal/infra/adapters/telegram"
	"telegram-horoscope-bot/internal/infra/logging"
	"telegram-horoscope-bot/internal/infra/metrics"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode: console logs, no secret redaction")
	dryRun := flag.Bool("dry-run", false, "log outbound messages instead of talking to Telegram")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Bool("dev", cfg.Runtime.Dev).
		Str("bot_token", logging.Redact(cfg.Bot.Token, cfg.Runtime.Dev)).
		Msg("starting horoscope bot")

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opts application.Options
	if *dryRun {
		opts.Sender = telegram.NewNoopBotAdapter(logger)
	}
	app, err := application.Build(ctx, cfg, logger, opts)
	if err != nil {
		logger.Fatal().Err(err).Msg("startup failed")
	}

	runErr := app.Run(ctx)
	if err := app.Close(); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	if runErr != nil {
		logger.Fatal().Err(runErr).Msg("bot stopped")
	}
	logger.Info().Msg("shutdown complete")
}
