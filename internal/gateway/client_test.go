package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/gateway"
	"github.com/noah-isme/classpilot-go/internal/observability"
)

type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (r *recorder) add(req recordedRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
}

func (r *recorder) all() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]recordedRequest, len(r.requests))
	copy(out, r.requests)
	return out
}

type recordedRequest struct {
	method        string
	path          string
	authorization string
	correlation   string
	body          string
}

func newTestServer(t *testing.T, register func(app *fiber.App)) (*gateway.Client, *recorder) {
	t.Helper()

	requests := &recorder{}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		requests.add(recordedRequest{
			method:        strings.Clone(c.Method()),
			path:          strings.Clone(c.Path()),
			authorization: strings.Clone(c.Get("Authorization")),
			correlation:   strings.Clone(c.Get(observability.CorrelationHeader)),
			body:          string(c.Body()),
		})
		return c.Next()
	})
	register(app)

	server := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(server.Close)

	client, err := gateway.New(gateway.Config{BaseURL: server.URL + "/api", Timeout: 2 * time.Second, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return client, requests
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := gateway.New(gateway.Config{})
	require.Error(t, err)

	_, err = gateway.New(gateway.Config{BaseURL: "ftp://example.com"})
	require.Error(t, err)
}

func TestListStudentsAttachesBearerAndCorrelation(t *testing.T) {
	client, requests := newTestServer(t, func(app *fiber.App) {
		app.Get("/api/students", func(c *fiber.Ctx) error {
			return c.JSON([]fiber.Map{
				{"_id": "s2", "teacherId": "t1", "name": "Bashir", "email": "b@example.com", "age": 11},
				{"_id": 7, "teacherId": "t1", "name": "Amina", "email": "a@example.com", "age": 12},
			})
		})
	})

	ctx := observability.ContextWithCorrelation(context.Background(), "corr-1")
	students, err := client.ListStudents(ctx, "tok-1")
	require.NoError(t, err)
	require.Len(t, students, 2)
	require.Equal(t, dto.ID("s2"), students[0].ID)
	require.Equal(t, dto.ID("7"), students[1].ID)

	require.Len(t, requests.all(), 1)
	require.Equal(t, "Bearer tok-1", requests.all()[0].authorization)
	require.Equal(t, "corr-1", requests.all()[0].correlation)
}

func TestProtectedCallWithoutTokenMakesNoRequest(t *testing.T) {
	client, requests := newTestServer(t, func(app *fiber.App) {})

	_, err := client.ListClasses(context.Background(), "")
	require.Error(t, err)
	require.Equal(t, gateway.KindMissingToken, gateway.KindOf(err))
	require.True(t, gateway.IsAuth(err))
	require.Empty(t, requests.all())
}

func TestPathLikeIDsNeverLeaveTheirSegment(t *testing.T) {
	client, requests := newTestServer(t, func(app *fiber.App) {})
	ctx := context.Background()

	for _, id := range []dto.ID{"../students", "..", ".", "a/b", `a\b`} {
		_, err := client.GetClass(ctx, "tok", id)
		gerr, ok := gateway.AsError(err)
		require.True(t, ok, id)
		require.Equal(t, gateway.KindBusiness, gerr.Kind, id)
		require.Equal(t, "classes.get", gerr.Op)

		require.Error(t, client.RemoveStudentFromClass(ctx, "tok", "c1", id), id)
		require.Error(t, client.DeleteStudent(ctx, "tok", id), id)
	}
	require.Empty(t, requests.all())
}

func TestIDsAreEscapedInPaths(t *testing.T) {
	var rawURI string
	client, _ := newTestServer(t, func(app *fiber.App) {
		app.Get("/api/students/:id", func(c *fiber.Ctx) error {
			rawURI = strings.Clone(c.OriginalURL())
			return c.JSON(fiber.Map{"_id": "x", "teacherId": "t1", "name": "Ana", "email": "a@example.com", "age": 10})
		})
	})

	_, err := client.GetStudent(context.Background(), "tok", "a b?c")
	require.NoError(t, err)
	require.Equal(t, "/api/students/a%20b%3Fc", rawURI)
}

func TestErrorResponsesAreNormalised(t *testing.T) {
	client, _ := newTestServer(t, func(app *fiber.App) {
		app.Get("/api/students/:id", func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
		})
		app.Get("/api/auth/me", func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		})
	})

	_, err := client.GetStudent(context.Background(), "tok", "missing")
	gerr, ok := gateway.AsError(err)
	require.True(t, ok)
	require.Equal(t, gateway.KindNotFound, gerr.Kind)
	require.Equal(t, "Student not found", gerr.Message)
	require.Equal(t, "students.get", gerr.Op)

	_, err = client.Me(context.Background(), "expired")
	require.True(t, gateway.IsAuth(err))
}

func TestRequestDeadlineProducesTimeoutKind(t *testing.T) {
	app := fiber.New()
	app.Get("/api/classes", func(c *fiber.Ctx) error {
		time.Sleep(300 * time.Millisecond)
		return c.JSON([]fiber.Map{})
	})
	server := httptest.NewServer(adaptor.FiberApp(app))
	defer server.Close()

	client, err := gateway.New(gateway.Config{BaseURL: server.URL + "/api", Timeout: 50 * time.Millisecond, Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = client.ListClasses(context.Background(), "tok")
	require.Equal(t, gateway.KindTimeout, gateway.KindOf(err))
}

func TestCanceledContextProducesCanceledKind(t *testing.T) {
	client, _ := newTestServer(t, func(app *fiber.App) {
		app.Get("/api/classes", func(c *fiber.Ctx) error { return c.JSON([]fiber.Map{}) })
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.ListClasses(ctx, "tok")
	require.Equal(t, gateway.KindCanceled, gateway.KindOf(err))
}

func TestGetClassDerivesCountAndBustsCache(t *testing.T) {
	queries := make(chan string, 1)
	client, _ := newTestServer(t, func(app *fiber.App) {
		app.Get("/api/classes/:id", func(c *fiber.Ctx) error {
			queries <- strings.Clone(c.Query("_t"))
			return c.JSON(fiber.Map{
				"_id": c.Params("id"), "teacherId": "t1", "name": "Algebra", "grade_level": 8,
				"students": []interface{}{fiber.Map{"_id": "s1", "name": "Amina"}, "s2"},
			})
		})
	})

	cls, err := client.GetClass(context.Background(), "tok", "c1")
	require.NoError(t, err)
	require.NotEmpty(t, <-queries)
	require.Equal(t, 2, cls.StudentCount())
	require.False(t, cls.ReportsCount())
	require.Equal(t, 8, *cls.GradeLevel)
	require.Equal(t, dto.ID("s2"), cls.Students[1].ID)
}

func TestAddStudentsToClassSendsCanonicalBody(t *testing.T) {
	client, requests := newTestServer(t, func(app *fiber.App) {
		app.Post("/api/classes/bare/students", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"message": "ok"})
		})
		app.Post("/api/classes/:id/students", func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{
				"message": "Students enrolled",
				"class": fiber.Map{"_id": c.Params("id"), "teacherId": "t1", "name": "Algebra",
					"students": []fiber.Map{{"_id": "s1"}, {"_id": "s2"}}},
			})
		})
	})

	cls, err := client.AddStudentsToClass(context.Background(), "tok", "c1", []dto.ID{"s1", "s2"})
	require.NoError(t, err)
	require.NotNil(t, cls)
	require.Equal(t, 2, cls.StudentCount())
	require.JSONEq(t, `{"student_ids":["s1","s2"]}`, requests.all()[0].body)

	cls, err = client.AddStudentsToClass(context.Background(), "tok", "bare", []dto.ID{"s3"})
	require.NoError(t, err)
	require.Nil(t, cls)
}

func TestRemoveStudentFromClassUsesDelete(t *testing.T) {
	client, requests := newTestServer(t, func(app *fiber.App) {
		app.Delete("/api/classes/:id/students/:studentId", func(c *fiber.Ctx) error {
			return c.SendStatus(http.StatusNoContent)
		})
	})

	require.NoError(t, client.RemoveStudentFromClass(context.Background(), "tok", "c1", "s1"))
	require.Equal(t, http.MethodDelete, requests.all()[0].method)
	require.Equal(t, "/api/classes/c1/students/s1", requests.all()[0].path)

	err := client.RemoveStudentFromClass(context.Background(), "tok", "c1", "")
	require.Error(t, err)
	require.Len(t, requests.all(), 1)
}
