package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/noah-isme/classpilot-go/internal/dto"
)

// ListClasses returns the caller's classes in server order.
func (c *Client) ListClasses(ctx context.Context, token string) ([]dto.Class, error) {
	var out []dto.Class
	err := c.do(ctx, call{
		op:        "classes.list",
		method:    http.MethodGet,
		segments:  []string{"classes"},
		token:     token,
		protected: true,
		out:       &out,
	})
	if out == nil {
		out = []dto.Class{}
	}
	return out, err
}

// GetClass returns one class with its roster. A cache-busting parameter keeps
// intermediaries from serving a stale roster.
func (c *Client) GetClass(ctx context.Context, token string, id dto.ID) (dto.Class, error) {
	if err := requireID("classes.get", id.String()); err != nil {
		return dto.Class{}, err
	}
	var out dto.Class
	err := c.do(ctx, call{
		op:        "classes.get",
		method:    http.MethodGet,
		segments:  []string{"classes", id.String()},
		query:     url.Values{"_t": []string{strconv.FormatInt(c.now().UnixMilli(), 10)}},
		token:     token,
		protected: true,
		out:       &out,
	})
	return out, err
}

// CreateClass creates a class owned by the caller.
func (c *Client) CreateClass(ctx context.Context, token string, req dto.ClassRequest) (dto.Class, error) {
	var out dto.Class
	err := c.do(ctx, call{
		op:        "classes.create",
		method:    http.MethodPost,
		segments:  []string{"classes"},
		token:     token,
		protected: true,
		body:      req,
		out:       &out,
	})
	return out, err
}

// UpdateClass replaces the editable fields of a class.
func (c *Client) UpdateClass(ctx context.Context, token string, id dto.ID, req dto.ClassRequest) (dto.Class, error) {
	if err := requireID("classes.update", id.String()); err != nil {
		return dto.Class{}, err
	}
	var out dto.Class
	err := c.do(ctx, call{
		op:        "classes.update",
		method:    http.MethodPut,
		segments:  []string{"classes", id.String()},
		token:     token,
		protected: true,
		body:      req,
		out:       &out,
	})
	return out, err
}

// DeleteClass deletes a class.
func (c *Client) DeleteClass(ctx context.Context, token string, id dto.ID) error {
	if err := requireID("classes.delete", id.String()); err != nil {
		return err
	}
	return c.do(ctx, call{
		op:        "classes.delete",
		method:    http.MethodDelete,
		segments:  []string{"classes", id.String()},
		token:     token,
		protected: true,
	})
}

// AddStudentsToClass enrolls a batch of students. The returned class is nil
// when the API does not embed the updated class in its response.
func (c *Client) AddStudentsToClass(ctx context.Context, token string, classID dto.ID, studentIDs []dto.ID) (*dto.Class, error) {
	if err := requireID("classes.enroll", classID.String()); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(studentIDs))
	for _, id := range studentIDs {
		ids = append(ids, id.String())
	}

	var out dto.EnrollResponse
	err := c.do(ctx, call{
		op:        "classes.enroll",
		method:    http.MethodPost,
		segments:  []string{"classes", classID.String(), "students"},
		token:     token,
		protected: true,
		body:      dto.EnrollRequest{StudentIDs: ids},
		out:       &out,
	})
	if err != nil {
		return nil, err
	}
	return out.Class, nil
}

// RemoveStudentFromClass removes one enrollment.
func (c *Client) RemoveStudentFromClass(ctx context.Context, token string, classID, studentID dto.ID) error {
	if err := requireID("classes.unenroll", classID.String()); err != nil {
		return err
	}
	if err := requireID("classes.unenroll", studentID.String()); err != nil {
		return err
	}
	return c.do(ctx, call{
		op:        "classes.unenroll",
		method:    http.MethodDelete,
		segments:  []string{"classes", classID.String(), "students", studentID.String()},
		token:     token,
		protected: true,
	})
}

// ListClassStudents returns the roster of a class.
func (c *Client) ListClassStudents(ctx context.Context, token string, classID dto.ID) ([]dto.EnrolledStudent, error) {
	if err := requireID("classes.roster", classID.String()); err != nil {
		return nil, err
	}
	var out []dto.EnrolledStudent
	err := c.do(ctx, call{
		op:        "classes.roster",
		method:    http.MethodGet,
		segments:  []string{"classes", classID.String(), "students"},
		token:     token,
		protected: true,
		out:       &out,
	})
	if out == nil {
		out = []dto.EnrolledStudent{}
	}
	return out, err
}
