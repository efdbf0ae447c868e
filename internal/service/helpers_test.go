package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/classpilot-go/internal/database"
	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/repository"
	"github.com/noah-isme/classpilot-go/internal/validation"
)

type testEnv struct {
	auth     AuthService
	students StudentService
	classes  ClassService
	tokens   *TokenManager
}

func newTestEnv(t *testing.T, enforceCapacity bool) testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("file:svc_" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	tokens, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	v := validation.New()
	logger := zerolog.Nop()
	return testEnv{
		auth: NewAuthService(repository.NewTeacherRepository(db), repository.NewRevokedTokenRepository(db),
			tokens, v, bcrypt.MinCost, logger),
		students: NewStudentService(repository.NewStudentRepository(db), v, logger),
		classes:  NewClassService(repository.NewClassRepository(db), v, ClassServiceConfig{EnforceCapacity: enforceCapacity}, logger),
		tokens:   tokens,
	}
}

func (e testEnv) teacher(t *testing.T, email string) dto.AuthResponse {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), dto.RegisterRequest{Name: "Teacher", Email: email, Password: "secret123"})
	require.NoError(t, err)
	return resp
}

func (e testEnv) student(t *testing.T, teacherID dto.ID, name string) dto.Student {
	t.Helper()
	st, err := e.students.Create(context.Background(), teacherID.String(), dto.StudentRequest{
		Name: name, Age: 15, Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
	})
	require.NoError(t, err)
	return st
}

func intPtr(v int) *int { return &v }
