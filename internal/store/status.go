// Package store mirrors server state for the current session. Each store is
// safe for concurrent use and changes only by dispatching action values;
// readers receive deep-copied snapshots.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/gateway"
)

// Status is the lifecycle of the most recent request a store dispatched.
type Status string

// Lifecycle values shared by all stores.
const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

var (
	// ErrStale is returned when the store was reset while a request was in
	// flight. The response is discarded.
	ErrStale = errors.New("store was reset while the request was in flight")
	// ErrInvalidID is returned for empty or placeholder identifiers.
	ErrInvalidID = errors.New("invalid identifier")
)

// Validator checks request values before they are sent.
type Validator interface {
	Struct(s interface{}) error
}

// TokenSource yields the current session token, or "" when signed out.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token returns f().
func (f TokenFunc) Token() string {
	return f()
}

// StudentGateway is the slice of the API used by the student store.
type StudentGateway interface {
	ListStudents(ctx context.Context, token string) ([]dto.Student, error)
	GetStudent(ctx context.Context, token string, id dto.ID) (dto.Student, error)
	CreateStudent(ctx context.Context, token string, req dto.StudentRequest) (dto.Student, error)
	UpdateStudent(ctx context.Context, token string, id dto.ID, req dto.StudentRequest) (dto.Student, error)
	DeleteStudent(ctx context.Context, token string, id dto.ID) error
}

// ClassGateway is the slice of the API used by the class store.
type ClassGateway interface {
	ListClasses(ctx context.Context, token string) ([]dto.Class, error)
	GetClass(ctx context.Context, token string, id dto.ID) (dto.Class, error)
	CreateClass(ctx context.Context, token string, req dto.ClassRequest) (dto.Class, error)
	UpdateClass(ctx context.Context, token string, id dto.ID, req dto.ClassRequest) (dto.Class, error)
	DeleteClass(ctx context.Context, token string, id dto.ID) error
	AddStudentsToClass(ctx context.Context, token string, classID dto.ID, studentIDs []dto.ID) (*dto.Class, error)
	RemoveStudentFromClass(ctx context.Context, token string, classID, studentID dto.ID) error
	ListClassStudents(ctx context.Context, token string, classID dto.ID) ([]dto.EnrolledStudent, error)
}

// AuthGateway is the slice of the API used by the session store.
type AuthGateway interface {
	Me(ctx context.Context, token string) (dto.MeResponse, error)
	Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error)
	Logout(ctx context.Context, token string) error
}

var (
	_ StudentGateway = (*gateway.Client)(nil)
	_ ClassGateway   = (*gateway.Client)(nil)
	_ AuthGateway    = (*gateway.Client)(nil)
)

// Lifecycle actions shared by the collection stores.
type (
	requestStarted struct{}
	requestFailed  struct{ err error }
)

func requireToken(tokens TokenSource, op string) (string, error) {
	if tokens == nil {
		return "", gateway.MissingToken(op)
	}
	token := strings.TrimSpace(tokens.Token())
	if token == "" {
		return "", gateway.MissingToken(op)
	}
	return token, nil
}

func requireID(raw dto.ID) (dto.ID, error) {
	id, ok := dto.NormalizeID(raw.String())
	if !ok {
		return "", ErrInvalidID
	}
	return id, nil
}

func cloneStudents(in []dto.Student) []dto.Student {
	out := make([]dto.Student, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}

func cloneClasses(in []dto.Class) []dto.Class {
	out := make([]dto.Class, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
