package handler_test

import (
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

func classApp(svc *stubClassService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/classes", middleware.JWTProtected(&stubAuthService{}))
	handler.NewClassHandler(svc, zerolog.Nop()).Register(group)
	return app
}

func TestClassHandlerAcceptsBothGradeLevelNames(t *testing.T) {
	svc := &stubClassService{class: sampleClass()}
	app := classApp(svc)

	resp := doJSON(t, app, http.MethodPost, "/api/classes", `{"name":"Biology","grade_level":9}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.NotNil(t, svc.lastReq.GradeLevel)
	require.Equal(t, 9, *svc.lastReq.GradeLevel)

	resp = doJSON(t, app, http.MethodPut, "/api/classes/c-1", `{"name":"Biology","gradeLevel":10}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 10, *svc.lastReq.GradeLevel)
}

func TestClassHandlerEnroll(t *testing.T) {
	svc := &stubClassService{class: sampleClass()}
	app := classApp(svc)

	resp := doJSON(t, app, http.MethodPost, "/api/classes/c-1/students", `{"student_ids":["s-1","s-2"]}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"s-1", "s-2"}, svc.lastBatch)
	require.Equal(t, "c-1", svc.lastID)

	var body dto.EnrollResponse
	decodeBody(t, resp, &body)
	require.NotNil(t, body.Class)
	require.Equal(t, 1, body.Class.StudentCount())
	require.Equal(t, "Students enrolled successfully", body.Message)
}

func TestClassHandlerEnrollErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{err: service.ErrEmptyBatch, status: fiber.StatusBadRequest},
		{err: service.ErrUnknownStudent, status: fiber.StatusBadRequest},
		{err: service.ErrAlreadyEnrolled, status: fiber.StatusConflict},
		{err: service.ErrCapacityExceeded, status: fiber.StatusConflict},
		{err: service.ErrClassNotFound, status: fiber.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			app := classApp(&stubClassService{err: tc.err})
			resp := doJSON(t, app, http.MethodPost, "/api/classes/c-1/students", `{"student_ids":["s-1"]}`)
			require.Equal(t, tc.status, resp.StatusCode)

			var body dto.ErrorResponse
			decodeBody(t, resp, &body)
			require.Equal(t, tc.err.Error(), body.Error)
		})
	}
}

func TestClassHandlerRosterAndUnenroll(t *testing.T) {
	svc := &stubClassService{class: sampleClass()}
	app := classApp(svc)

	resp := doJSON(t, app, http.MethodGet, "/api/classes/c-1/students", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var roster []dto.EnrolledStudent
	decodeBody(t, resp, &roster)
	require.Len(t, roster, 1)

	resp = doJSON(t, app, http.MethodDelete, "/api/classes/c-1/students/s-1", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "s-1", svc.lastRemove)

	svc.err = service.ErrNotEnrolled
	resp = doJSON(t, app, http.MethodDelete, "/api/classes/c-1/students/s-9", "")
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
