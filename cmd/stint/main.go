package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stintlabs/stint/internal/api"
	"github.com/stintlabs/stint/internal/config"
	"github.com/stintlabs/stint/internal/db"
	"github.com/stintlabs/stint/internal/metrics"
	"github.com/stintlabs/stint/internal/services"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger().Level(parseLogLevel(cfg.LogLevel))

	location := mustLoadLocation(cfg.Timezone, logger)
	time.Local = location

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("database init failed")
	}

	metrics.Register()

	handler := api.NewHandler(database, api.Options{
		SecretKey:    cfg.SecretKey,
		Location:     location,
		CookieSecure: cfg.CookieSecure,
		OpsToken:     cfg.OpsToken,
		Logger:       logger,
	})

	app := fiber.New(fiber.Config{
		AppName:               "Stint",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	api.RegisterRoutes(app, handler)

	var sender services.ReminderSender
	if cfg.PushWebhookURL != "" {
		sender = services.NewWebhookSender(cfg.PushWebhookURL)
	}
	scanner := services.NewScanner(handler.Lifecycle(), handler.Reminders(), sender, cfg.ScanInterval, location, logger)

	scanCtx, cancelScan := context.WithCancel(context.Background())
	defer cancelScan()
	scanner.Start(scanCtx)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		cancelScan()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	logger.Info().
		Str("port", cfg.Port).
		Str("db", cfg.DBPath).
		Str("tz", location.String()).
		Msg("stint listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func mustLoadLocation(name string, logger zerolog.Logger) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn().Str("tz", name).Msg("invalid TZ, falling back to UTC")
		return time.UTC
	}
	return location
}

func parseLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
