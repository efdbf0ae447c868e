package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/gateway"
	"github.com/noah-isme/classpilot-go/internal/tokenstore"
)

// ConnectMessage is shown when login or register cannot reach the API.
const ConnectMessage = "Cannot connect to server. Please check your internet connection or try again later."

// ErrNoToken is returned by CheckStatus when no token is stored.
var ErrNoToken = errors.New("No token found")

// Session is a point-in-time copy of the session store.
type Session struct {
	UserID        dto.ID
	DisplayName   string
	Email         string
	Token         string
	Status        Status
	Err           error
	Authenticated bool
}

// User returns the signed-in identity.
func (s Session) User() dto.User {
	return dto.User{ID: s.UserID, Name: s.DisplayName, Email: s.Email}
}

// SessionStore tracks the authenticated teacher and persists the token.
type SessionStore struct {
	gateway   AuthGateway
	tokens    tokenstore.Store
	validator Validator
	logger    zerolog.Logger

	mu    sync.RWMutex
	epoch uint64
	state Session
}

// Session store actions.
type (
	sessionStarted     struct{}
	sessionEstablished struct {
		user  dto.User
		token string
	}
	sessionRejected struct {
		err       error
		keepToken bool
	}
	sessionCleared struct{}
)

// NewSessionStore builds the store, seeding the token from persistent storage.
func NewSessionStore(ctx context.Context, gw AuthGateway, tokens tokenstore.Store, validator Validator, logger zerolog.Logger) (*SessionStore, error) {
	token, err := tokens.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load persisted token: %w", err)
	}

	return &SessionStore{
		gateway:   gw,
		tokens:    tokens,
		validator: validator,
		logger:    logger.With().Str("component", "session_store").Logger(),
		state:     Session{Token: strings.TrimSpace(token), Status: StatusIdle},
	}, nil
}

// Snapshot returns a copy of the session.
func (s *SessionStore) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Token returns the current token, or "" when signed out.
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// CheckStatus resolves the stored token into a user. Without a token it
// fails immediately and makes no network call.
func (s *SessionStore) CheckStatus(ctx context.Context) (Session, error) {
	token := s.Token()
	epoch := s.begin()
	if token == "" {
		s.reject(ctx, epoch, ErrNoToken, true)
		return s.Snapshot(), ErrNoToken
	}

	resp, err := s.gateway.Me(ctx, token)
	if err != nil {
		s.reject(ctx, epoch, err, gateway.IsAuth(err))
		return s.Snapshot(), err
	}
	if !resp.User.ID.Valid() {
		err := errors.New("session check returned no user")
		s.reject(ctx, epoch, err, true)
		return s.Snapshot(), err
	}

	if resp.Token != "" {
		token = resp.Token
	}
	if err := s.establish(ctx, epoch, resp.User, token); err != nil {
		return s.Snapshot(), err
	}
	return s.Snapshot(), nil
}

// Login validates the credentials and authenticates.
func (s *SessionStore) Login(ctx context.Context, req dto.LoginRequest) (Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return s.Snapshot(), err
	}

	epoch := s.begin()
	resp, err := s.gateway.Login(ctx, req)
	if err != nil {
		err = connectFailure(err)
		s.reject(ctx, epoch, err, false)
		return s.Snapshot(), err
	}
	if err := s.establish(ctx, epoch, resp.User, resp.Token); err != nil {
		return s.Snapshot(), err
	}

	s.logger.Info().Str("user_id", resp.User.ID.String()).Msg("logged in")
	return s.Snapshot(), nil
}

// Register validates the input, creates the account and authenticates.
func (s *SessionStore) Register(ctx context.Context, req dto.RegisterRequest) (Session, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return s.Snapshot(), err
	}

	epoch := s.begin()
	resp, err := s.gateway.Register(ctx, req)
	if err != nil {
		err = connectFailure(err)
		s.reject(ctx, epoch, err, false)
		return s.Snapshot(), err
	}
	if err := s.establish(ctx, epoch, resp.User, resp.Token); err != nil {
		return s.Snapshot(), err
	}

	s.logger.Info().Str("user_id", resp.User.ID.String()).Msg("registered")
	return s.Snapshot(), nil
}

// Logout asks the API to invalidate the token, ignoring the outcome, then
// clears the session and the persisted token. The store ends idle and
// unauthenticated.
func (s *SessionStore) Logout(ctx context.Context) error {
	if token := s.Token(); token != "" {
		if err := s.gateway.Logout(ctx, token); err != nil {
			s.logger.Debug().Err(err).Msg("server logout failed, clearing local session anyway")
		}
	}

	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()
	s.dispatch(s.currentEpoch(), sessionCleared{})

	if err := s.tokens.Clear(ctx); err != nil {
		return fmt.Errorf("clear persisted token: %w", err)
	}
	s.logger.Info().Msg("logged out")
	return nil
}

func (s *SessionStore) establish(ctx context.Context, epoch uint64, user dto.User, token string) error {
	if strings.TrimSpace(token) == "" {
		err := errors.New("authentication returned no token")
		s.reject(ctx, epoch, err, false)
		return err
	}
	if !s.dispatch(epoch, sessionEstablished{user: user, token: token}) {
		return ErrStale
	}
	if err := s.tokens.Save(ctx, token); err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist token, session lasts for this process only")
	}
	return nil
}

// reject fails the pending action. A failed login or an unreachable API
// leaves the stored token in place; only a refused token is cleared.
func (s *SessionStore) reject(ctx context.Context, epoch uint64, err error, revoke bool) {
	if !s.dispatch(epoch, sessionRejected{err: err, keepToken: !revoke}) {
		return
	}
	if !revoke {
		return
	}
	if clearErr := s.tokens.Clear(ctx); clearErr != nil {
		s.logger.Warn().Err(clearErr).Msg("failed to clear persisted token")
	}
}

func (s *SessionStore) currentEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func (s *SessionStore) begin() uint64 {
	epoch := s.currentEpoch()
	s.dispatch(epoch, sessionStarted{})
	return epoch
}

// dispatch applies an action if no logout happened since epoch was taken.
func (s *SessionStore) dispatch(epoch uint64, action interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return false
	}

	switch a := action.(type) {
	case sessionStarted:
		s.state.Status = StatusLoading
		s.state.Err = nil
	case sessionEstablished:
		s.state = Session{
			UserID:        a.user.ID,
			DisplayName:   a.user.Name,
			Email:         a.user.Email,
			Token:         a.token,
			Status:        StatusSucceeded,
			Authenticated: true,
		}
	case sessionRejected:
		token := ""
		if a.keepToken {
			token = s.state.Token
		}
		s.state = Session{Token: token, Status: StatusFailed, Err: a.err}
	case sessionCleared:
		s.state = Session{Status: StatusIdle}
	default:
		return false
	}
	return true
}

// connectFailure replaces the message of a failure that never reached the
// API with the connection hint shown on the login and register forms.
func connectFailure(err error) error {
	gerr, ok := gateway.AsError(err)
	if !ok || gerr.Kind != gateway.KindTransport {
		return err
	}
	out := *gerr
	out.Message = ConnectMessage
	return &out
}
