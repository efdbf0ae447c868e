// Package server assembles the development backend.
package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/classpilot-go/internal/config"
	"github.com/noah-isme/classpilot-go/internal/database"
	"github.com/noah-isme/classpilot-go/internal/handler"
	"github.com/noah-isme/classpilot-go/internal/middleware"
	"github.com/noah-isme/classpilot-go/internal/repository"
	"github.com/noah-isme/classpilot-go/internal/router"
	"github.com/noah-isme/classpilot-go/internal/service"
	"github.com/noah-isme/classpilot-go/internal/utils"
	"github.com/noah-isme/classpilot-go/internal/validation"
)

const authAttemptsPerMinute = 30

// Options tunes the assembled server.
type Options struct {
	// HashCost overrides the bcrypt cost; zero keeps the default.
	HashCost int
	// AccessLog enables the fiber access log.
	AccessLog bool
}

// Server is the assembled development backend.
type Server struct {
	App   *fiber.App
	Seeds service.SeedService

	revoked repository.RevokedTokenRepository
	logger  zerolog.Logger
}

// New wires repositories, services and handlers into a fiber application.
func New(cfg config.Config, db *gorm.DB, logger zerolog.Logger, opts Options) (*Server, error) {
	secret, err := cfg.SigningSecret()
	if err != nil {
		return nil, err
	}
	tokens, err := service.NewTokenManager(secret, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}

	validate := validation.New()

	teacherRepo := repository.NewTeacherRepository(db)
	revokedRepo := repository.NewRevokedTokenRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	classRepo := repository.NewClassRepository(db)

	authService := service.NewAuthService(teacherRepo, revokedRepo, tokens, validate, opts.HashCost, logger)
	studentService := service.NewStudentService(studentRepo, validate, logger)
	classService := service.NewClassService(classRepo, validate, service.ClassServiceConfig{EnforceCapacity: cfg.EnforceCapacity}, logger)
	seedService := service.NewSeedService(authService, studentService, classService, !cfg.IsProduction(), logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ErrorHandler: utils.ErrorHandler(logger),
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AccessLog: opts.AccessLog})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:    handler.NewAuthHandler(authService, logger),
		StudentHandler: handler.NewStudentHandler(studentService, logger),
		ClassHandler:   handler.NewClassHandler(classService, logger),
		JWTMiddleware:  middleware.JWTProtected(authService),
		AuthRateLimit:  authAttemptsPerMinute,
		DatabasePing:   pingDatabase(db),
	})

	return &Server{
		App:     app,
		Seeds:   seedService,
		revoked: revokedRepo,
		logger:  logger.With().Str("component", "server").Logger(),
	}, nil
}

func pingDatabase(db *gorm.DB) handler.Pinger {
	return func(ctx context.Context) error {
		return database.Ping(ctx, db)
	}
}

// PurgeRevokedTokens drops revocation records every interval until ctx ends.
func (s *Server) PurgeRevokedTokens(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := s.revoked.PurgeExpired(ctx, now.UTC())
			if err != nil {
				s.logger.Warn().Err(err).Msg("failed to purge revoked tokens")
				continue
			}
			if removed > 0 {
				s.logger.Debug().Int64("removed", removed).Msg("purged revoked tokens")
			}
		}
	}
}
