package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/models"
	"github.com/noah-isme/classpilot-go/internal/repository"
	"github.com/noah-isme/classpilot-go/internal/validation"
)

var (
	// ErrEmailTaken indicates an account with the email already exists.
	ErrEmailTaken = errors.New("Email is already registered")
	// ErrInvalidCredentials indicates the email or password did not match.
	ErrInvalidCredentials = errors.New("Invalid email or password")
	// ErrInvalidToken indicates a missing, expired, revoked or malformed token.
	ErrInvalidToken = errors.New("Unauthorized: Invalid or missing token")
)

// AuthService manages teacher accounts and session tokens.
type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error)
	Me(ctx context.Context, teacherID string) (dto.User, error)
	Logout(ctx context.Context, claims TokenClaims) error
	Authenticate(ctx context.Context, token string) (TokenClaims, error)
}

type authService struct {
	teachers  repository.TeacherRepository
	revoked   repository.RevokedTokenRepository
	tokens    *TokenManager
	validator *validation.Validator
	sanitize  sanitizer
	hashCost  int
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewAuthService constructs the auth service. A hashCost of zero uses the
// bcrypt default.
func NewAuthService(teachers repository.TeacherRepository, revoked repository.RevokedTokenRepository, tokens *TokenManager, validator *validation.Validator, hashCost int, logger zerolog.Logger) AuthService {
	if hashCost == 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &authService{
		teachers:  teachers,
		revoked:   revoked,
		tokens:    tokens,
		validator: validator,
		sanitize:  newSanitizer(),
		hashCost:  hashCost,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/classpilot-go/internal/service/auth"),
	}
}

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error) {
	ctx, span := s.tracer.Start(ctx, "auth.register")
	defer span.End()

	req.Name = s.sanitize.text(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.AuthResponse{}, err
	}

	if _, err := s.teachers.GetByEmail(ctx, req.Email); err == nil {
		return dto.AuthResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		span.RecordError(err)
		return dto.AuthResponse{}, err
	}

	teacher := models.Teacher{Name: req.Name, Email: req.Email, PasswordHash: string(hash)}
	if err := s.teachers.Create(ctx, &teacher); err != nil {
		span.RecordError(err)
		return dto.AuthResponse{}, err
	}

	token, _, err := s.tokens.Issue(teacher.ID)
	if err != nil {
		span.RecordError(err)
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Str("teacher_id", teacher.ID).Msg("teacher registered")
	return dto.AuthResponse{User: toUserDTO(teacher), Token: token}, nil
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	ctx, span := s.tracer.Start(ctx, "auth.login")
	defer span.End()

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.AuthResponse{}, err
	}

	teacher, err := s.teachers.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		span.RecordError(err)
		return dto.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte(req.Password)); err != nil {
		span.SetStatus(codes.Error, "password mismatch")
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(teacher.ID)
	if err != nil {
		span.RecordError(err)
		return dto.AuthResponse{}, err
	}

	return dto.AuthResponse{User: toUserDTO(teacher), Token: token}, nil
}

func (s *authService) Me(ctx context.Context, teacherID string) (dto.User, error) {
	teacher, err := s.teachers.GetByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.User{}, ErrInvalidToken
		}
		return dto.User{}, err
	}
	return toUserDTO(teacher), nil
}

func (s *authService) Logout(ctx context.Context, claims TokenClaims) error {
	if claims.TokenID == "" {
		return ErrInvalidToken
	}
	if err := s.revoked.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return err
	}
	s.logger.Info().Str("teacher_id", claims.TeacherID).Msg("token revoked")
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (TokenClaims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return TokenClaims{}, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return TokenClaims{}, err
	}
	if revoked {
		return TokenClaims{}, ErrInvalidToken
	}

	return claims, nil
}
