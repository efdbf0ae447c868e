package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/service"
)

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("..", "..", "contracts", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)
	return schema
}

func validateBody(t *testing.T, schema *jsonschema.Schema, resp *http.Response) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

func TestStudentContract(t *testing.T) {
	schema := compileSchema(t, "student.schema.json")
	app := studentApp(&stubStudentService{students: []dto.Student{sampleStudent()}})

	resp := doJSON(t, app, http.MethodGet, "/api/students/s-1", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	validateBody(t, schema, resp)
}

func TestClassContract(t *testing.T) {
	schema := compileSchema(t, "class.schema.json")
	app := classApp(&stubClassService{class: sampleClass()})

	resp := doJSON(t, app, http.MethodGet, "/api/classes/c-1", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	validateBody(t, schema, resp)
}

func TestErrorContract(t *testing.T) {
	schema := compileSchema(t, "error.schema.json")
	app := classApp(&stubClassService{err: service.ErrCapacityExceeded})

	resp := doJSON(t, app, http.MethodPost, "/api/classes/c-1/students", `{"student_ids":["s-1"]}`)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	validateBody(t, schema, resp)
}
