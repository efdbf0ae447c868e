package gateway

import (
	"context"
	"net/http"

	"github.com/noah-isme/classpilot-go/internal/dto"
)

// ListStudents returns the caller's students in server order.
func (c *Client) ListStudents(ctx context.Context, token string) ([]dto.Student, error) {
	var out []dto.Student
	err := c.do(ctx, call{
		op:        "students.list",
		method:    http.MethodGet,
		segments:  []string{"students"},
		token:     token,
		protected: true,
		out:       &out,
	})
	if out == nil {
		out = []dto.Student{}
	}
	return out, err
}

// GetStudent returns one student.
func (c *Client) GetStudent(ctx context.Context, token string, id dto.ID) (dto.Student, error) {
	if err := requireID("students.get", id.String()); err != nil {
		return dto.Student{}, err
	}
	var out dto.Student
	err := c.do(ctx, call{
		op:        "students.get",
		method:    http.MethodGet,
		segments:  []string{"students", id.String()},
		token:     token,
		protected: true,
		out:       &out,
	})
	return out, err
}

// CreateStudent creates a student owned by the caller.
func (c *Client) CreateStudent(ctx context.Context, token string, req dto.StudentRequest) (dto.Student, error) {
	var out dto.Student
	err := c.do(ctx, call{
		op:        "students.create",
		method:    http.MethodPost,
		segments:  []string{"students"},
		token:     token,
		protected: true,
		body:      req,
		out:       &out,
	})
	return out, err
}

// UpdateStudent replaces the editable fields of a student.
func (c *Client) UpdateStudent(ctx context.Context, token string, id dto.ID, req dto.StudentRequest) (dto.Student, error) {
	if err := requireID("students.update", id.String()); err != nil {
		return dto.Student{}, err
	}
	var out dto.Student
	err := c.do(ctx, call{
		op:        "students.update",
		method:    http.MethodPut,
		segments:  []string{"students", id.String()},
		token:     token,
		protected: true,
		body:      req,
		out:       &out,
	})
	return out, err
}

// DeleteStudent deletes a student.
func (c *Client) DeleteStudent(ctx context.Context, token string, id dto.ID) error {
	if err := requireID("students.delete", id.String()); err != nil {
		return err
	}
	return c.do(ctx, call{
		op:        "students.delete",
		method:    http.MethodDelete,
		segments:  []string{"students", id.String()},
		token:     token,
		protected: true,
	})
}
