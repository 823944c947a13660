package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "taskboard/docs"
	"taskboard/internal/config"
	"taskboard/internal/logging"
	"taskboard/internal/server"
)

// @title           Taskboard API
// @version         1.0
// @description     Collaborative boards with ordered lists and tasks and live change events.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("info", "json")
		boot.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := server.Init(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("server initialization failed")
	}
	if err := s.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}
