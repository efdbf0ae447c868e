package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/classpilot-go/internal/config"
	"github.com/noah-isme/classpilot-go/internal/database"
	"github.com/noah-isme/classpilot-go/internal/server"
	"github.com/noah-isme/classpilot-go/internal/service"
)

func main() {
	seed := flag.Bool("seed", false, "create a demo teacher with sample students and classes")
	seedEmail := flag.String("seed-email", "demo@classpilot.local", "email of the demo teacher")
	seedPassword := flag.String("seed-password", "demo1234", "password of the demo teacher")
	accessLog := flag.Bool("access-log", false, "print an access log line per request")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "devserver").Logger()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	srv, err := server.New(cfg, db, logger, server.Options{AccessLog: *accessLog})
	if err != nil {
		log.Fatalf("failed to build server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *seed {
		seedDemo(ctx, srv, logger, service.SeedRequest{Name: "Demo Teacher", Email: *seedEmail, Password: *seedPassword})
	}

	go srv.PurgeRevokedTokens(ctx, time.Hour)

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("devserver listening")
		if err := srv.App.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(ctx, srv.App)
}

func seedDemo(ctx context.Context, srv *server.Server, logger zerolog.Logger, req service.SeedRequest) {
	result, err := srv.Seeds.SeedDemo(ctx, req)
	switch {
	case errors.Is(err, service.ErrSeedExists):
		logger.Info().Str("email", req.Email).Msg("demo data already present")
	case err != nil:
		log.Fatalf("failed to seed demo data: %v", err)
	default:
		logger.Info().
			Str("email", result.Teacher.Email).
			Int("students", result.Students).
			Int("classes", result.Classes).
			Msg("demo data seeded")
	}
}

func waitForShutdown(ctx context.Context, app *fiber.App) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
