// Package app ties the stores and the enrollment workflow into one client.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/reconcile"
	"github.com/noah-isme/classpilot-go/internal/store"
	"github.com/noah-isme/classpilot-go/internal/tokenstore"
	"github.com/noah-isme/classpilot-go/internal/validation"
)

// ErrAuthRequired is returned for protected views without a signed-in session.
var ErrAuthRequired = errors.New("please log in to continue")

// recentLimit is the number of entries shown per dashboard section.
const recentLimit = 3

// Gateway is the full API surface the client uses.
type Gateway interface {
	store.AuthGateway
	store.StudentGateway
	store.ClassGateway
}

// Deps are the collaborators of the client.
type Deps struct {
	Gateway   Gateway
	Tokens    tokenstore.Store
	Validator store.Validator
	Confirmer reconcile.Confirmer
	Logger    zerolog.Logger
}

// App owns the session, student and class stores and the enroller.
type App struct {
	Session  *store.SessionStore
	Students *store.StudentStore
	Classes  *store.ClassStore
	Enroller *reconcile.Enroller

	logger zerolog.Logger
}

// Dashboard summarises the teacher's data for the home view.
type Dashboard struct {
	User           dto.User
	StudentTotal   int
	ClassTotal     int
	EnrolledTotal  int
	RecentStudents []dto.Student
	RecentClasses  []dto.Class
}

// New builds the stores and loads the persisted token.
func New(ctx context.Context, deps Deps) (*App, error) {
	if deps.Gateway == nil {
		return nil, errors.New("app: gateway is required")
	}
	tokens := deps.Tokens
	if tokens == nil {
		tokens = tokenstore.NewMemoryStore("")
	}
	validator := deps.Validator
	if validator == nil {
		validator = validation.New()
	}

	session, err := store.NewSessionStore(ctx, deps.Gateway, tokens, validator, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	students := store.NewStudentStore(deps.Gateway, session, validator, deps.Logger)
	classes := store.NewClassStore(deps.Gateway, session, validator, deps.Logger)

	return &App{
		Session:  session,
		Students: students,
		Classes:  classes,
		Enroller: reconcile.NewEnroller(session, classes, students, deps.Confirmer, deps.Logger),
		logger:   deps.Logger.With().Str("component", "app").Logger(),
	}, nil
}

// Bootstrap restores a persisted session. Without a token it does nothing.
func (a *App) Bootstrap(ctx context.Context) (store.Session, error) {
	if a.Session.Token() == "" {
		return a.Session.Snapshot(), nil
	}
	return a.Session.CheckStatus(ctx)
}

// RequireAuth guards protected views.
func (a *App) RequireAuth() error {
	session := a.Session.Snapshot()
	if !session.Authenticated || session.Status == store.StatusLoading {
		return ErrAuthRequired
	}
	return nil
}

// Logout ends the session and discards all cached data. Late responses of
// requests started before the logout are dropped.
func (a *App) Logout(ctx context.Context) error {
	err := a.Session.Logout(ctx)
	a.Students.Reset()
	a.Classes.Reset()
	return err
}

// Dashboard loads students and classes concurrently.
func (a *App) Dashboard(ctx context.Context) (Dashboard, error) {
	if err := a.RequireAuth(); err != nil {
		return Dashboard{}, err
	}

	var (
		students []dto.Student
		classes  []dto.Class
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		students, err = a.Students.Fetch(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		classes, err = a.Classes.Fetch(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	enrolled := 0
	for _, class := range classes {
		enrolled += class.StudentCount()
	}

	return Dashboard{
		User:           a.Session.Snapshot().User(),
		StudentTotal:   len(students),
		ClassTotal:     len(classes),
		EnrolledTotal:  enrolled,
		RecentStudents: dto.RecentStudents(students, recentLimit),
		RecentClasses:  dto.RecentClasses(classes, recentLimit),
	}, nil
}
