package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/service"
)

const testTeacher = "teacher-1"

type stubAuthService struct {
	resp       dto.AuthResponse
	user       dto.User
	err        error
	lastLogin  dto.LoginRequest
	loggedOut  []service.TokenClaims
	authResult service.TokenClaims
	authErr    error
}

func (s *stubAuthService) Register(_ context.Context, req dto.RegisterRequest) (dto.AuthResponse, error) {
	return s.resp, s.err
}

func (s *stubAuthService) Login(_ context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	s.lastLogin = req
	return s.resp, s.err
}

func (s *stubAuthService) Me(_ context.Context, teacherID string) (dto.User, error) {
	return s.user, s.err
}

func (s *stubAuthService) Logout(_ context.Context, claims service.TokenClaims) error {
	s.loggedOut = append(s.loggedOut, claims)
	return s.err
}

func (s *stubAuthService) Authenticate(_ context.Context, token string) (service.TokenClaims, error) {
	if s.authErr != nil {
		return service.TokenClaims{}, s.authErr
	}
	if s.authResult.TeacherID == "" {
		return service.TokenClaims{TeacherID: testTeacher, TokenID: "jti-" + token, ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
	return s.authResult, nil
}

var _ service.AuthService = (*stubAuthService)(nil)

type stubStudentService struct {
	students  []dto.Student
	err       error
	lastOwner string
	lastID    string
	lastReq   dto.StudentRequest
}

func (s *stubStudentService) List(_ context.Context, teacherID string) ([]dto.Student, error) {
	s.lastOwner = teacherID
	return s.students, s.err
}

func (s *stubStudentService) Get(_ context.Context, teacherID, id string) (dto.Student, error) {
	s.lastOwner, s.lastID = teacherID, id
	if s.err != nil {
		return dto.Student{}, s.err
	}
	return s.students[0], nil
}

func (s *stubStudentService) Create(_ context.Context, teacherID string, req dto.StudentRequest) (dto.Student, error) {
	s.lastOwner, s.lastReq = teacherID, req
	if s.err != nil {
		return dto.Student{}, s.err
	}
	return s.students[0], nil
}

func (s *stubStudentService) Update(_ context.Context, teacherID, id string, req dto.StudentRequest) (dto.Student, error) {
	s.lastOwner, s.lastID, s.lastReq = teacherID, id, req
	if s.err != nil {
		return dto.Student{}, s.err
	}
	return s.students[0], nil
}

func (s *stubStudentService) Delete(_ context.Context, teacherID, id string) error {
	s.lastOwner, s.lastID = teacherID, id
	return s.err
}

var _ service.StudentService = (*stubStudentService)(nil)

type stubClassService struct {
	class      dto.Class
	err        error
	lastOwner  string
	lastID     string
	lastReq    dto.ClassRequest
	lastBatch  []string
	lastRemove string
}

func (s *stubClassService) List(_ context.Context, teacherID string) ([]dto.Class, error) {
	s.lastOwner = teacherID
	if s.err != nil {
		return nil, s.err
	}
	return []dto.Class{s.class}, nil
}

func (s *stubClassService) Get(_ context.Context, teacherID, id string) (dto.Class, error) {
	s.lastOwner, s.lastID = teacherID, id
	return s.class, s.err
}

func (s *stubClassService) Create(_ context.Context, teacherID string, req dto.ClassRequest) (dto.Class, error) {
	s.lastOwner, s.lastReq = teacherID, req
	return s.class, s.err
}

func (s *stubClassService) Update(_ context.Context, teacherID, id string, req dto.ClassRequest) (dto.Class, error) {
	s.lastOwner, s.lastID, s.lastReq = teacherID, id, req
	return s.class, s.err
}

func (s *stubClassService) Delete(_ context.Context, teacherID, id string) error {
	s.lastOwner, s.lastID = teacherID, id
	return s.err
}

func (s *stubClassService) Enroll(_ context.Context, teacherID, classID string, studentIDs []string) (dto.Class, error) {
	s.lastOwner, s.lastID, s.lastBatch = teacherID, classID, studentIDs
	return s.class, s.err
}

func (s *stubClassService) Unenroll(_ context.Context, teacherID, classID, studentID string) error {
	s.lastOwner, s.lastID, s.lastRemove = teacherID, classID, studentID
	return s.err
}

func (s *stubClassService) Roster(_ context.Context, teacherID, classID string) ([]dto.EnrolledStudent, error) {
	s.lastOwner, s.lastID = teacherID, classID
	return s.class.Students, s.err
}

var _ service.ClassService = (*stubClassService)(nil)

func sampleStudent() dto.Student {
	return dto.Student{
		ID: "s-1", TeacherID: testTeacher, Name: "Ada", Email: "ada@example.com", Age: 15,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func sampleClass() dto.Class {
	grade := 9
	enrolled := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	return dto.Class{
		ID: "c-1", TeacherID: testTeacher, Name: "Biology", GradeLevel: &grade,
		Students:  []dto.EnrolledStudent{{ID: "s-1", TeacherID: testTeacher, Name: "Ada", EnrolledAt: &enrolled}},
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer tok")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
