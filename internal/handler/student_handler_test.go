package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/handler"
	"github.com/noah-isme/classpilot-go/internal/middleware"
	"github.com/noah-isme/classpilot-go/internal/service"
)

func studentApp(svc *stubStudentService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/students", middleware.JWTProtected(&stubAuthService{}))
	handler.NewStudentHandler(svc, zerolog.Nop()).Register(group)
	return app
}

func TestStudentHandlerListScopesToTeacher(t *testing.T) {
	svc := &stubStudentService{students: []dto.Student{sampleStudent()}}
	app := studentApp(svc)

	resp := doJSON(t, app, http.MethodGet, "/api/students", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body []dto.Student
	decodeBody(t, resp, &body)
	require.Len(t, body, 1)
	require.Equal(t, testTeacher, svc.lastOwner)
}

func TestStudentHandlerCreateAndUpdate(t *testing.T) {
	svc := &stubStudentService{students: []dto.Student{sampleStudent()}}
	app := studentApp(svc)

	resp := doJSON(t, app, http.MethodPost, "/api/students", `{"name":"Ada","age":15,"email":"ada@example.com"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, 15, svc.lastReq.Age)

	resp = doJSON(t, app, http.MethodPut, "/api/students/s-1", `{"name":"Ada L","age":16,"email":"ada@example.com"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "s-1", svc.lastID)
	require.Equal(t, "Ada L", svc.lastReq.Name)
}

func TestStudentHandlerErrors(t *testing.T) {
	svc := &stubStudentService{err: service.ErrStudentNotFound}
	app := studentApp(svc)

	resp := doJSON(t, app, http.MethodGet, "/api/students/missing", "")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	svc.err = errors.New("disk full")
	resp = doJSON(t, app, http.MethodDelete, "/api/students/s-1", "")
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	var body dto.ErrorResponse
	decodeBody(t, resp, &body)
	require.Equal(t, "failed to delete student", body.Error)

	resp = doJSON(t, app, http.MethodPost, "/api/students", `{"name":`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
