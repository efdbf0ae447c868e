package validation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/validation"
)

func TestStudentRequestRules(t *testing.T) {
	v := validation.New()

	err := v.Struct(dto.StudentRequest{Name: "A", Age: 4, Email: "not-an-email", ParentEmail: "bad"})
	require.Error(t, err)
	require.True(t, validation.IsValidationError(err))

	verr := err.(*validation.Error)
	fields := verr.Map()
	require.Contains(t, fields, "name")
	require.Contains(t, fields, "age")
	require.Contains(t, fields, "email")
	require.Contains(t, fields, "parentEmail")
	require.NotContains(t, fields, "gender")

	require.NoError(t, v.Struct(dto.StudentRequest{Name: "Amina Yusuf", Age: 12, Email: "amina@example.com"}))
}

func TestClassRequestRules(t *testing.T) {
	v := validation.New()
	zero := 0
	thirteen := 13

	err := v.Struct(dto.ClassRequest{Name: "", GradeLevel: &thirteen, Capacity: &zero})
	require.Error(t, err)
	verr := err.(*validation.Error)

	msg, ok := verr.Field("name")
	require.True(t, ok)
	require.Equal(t, "name is required", msg)
	require.Contains(t, verr.Map(), "grade_level")
	require.Contains(t, verr.Map(), "capacity")

	grade := 7
	require.NoError(t, v.Struct(dto.ClassRequest{Name: "Algebra", GradeLevel: &grade}))
}

func TestCredentialRules(t *testing.T) {
	v := validation.New()

	require.Error(t, v.Struct(dto.LoginRequest{Email: "teacher@example.com"}))
	require.Error(t, v.Struct(dto.RegisterRequest{Name: "T", Email: "teacher@example.com", Password: "123"}))
	require.NoError(t, v.Struct(dto.RegisterRequest{Name: "Teacher", Email: "teacher@example.com", Password: "secret1"}))
}
