package dto

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// EnrolledStudent is one roster entry of a class. The API may send either a
// full object or a bare identifier.
type EnrolledStudent struct {
	ID         ID         `json:"_id"`
	TeacherID  ID         `json:"teacherId,omitempty"`
	Name       string     `json:"name,omitempty"`
	Email      string     `json:"email,omitempty"`
	EnrolledAt *time.Time `json:"enrolledAt,omitempty"`
}

// UnmarshalJSON accepts an object or a bare identifier.
func (e *EnrolledStudent) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] != '{' {
		var id ID
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return err
		}
		*e = EnrolledStudent{ID: id}
		return nil
	}

	type plain EnrolledStudent
	var decoded plain
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return err
	}
	*e = EnrolledStudent(decoded)
	return nil
}

// Class is a teacher-owned class with its roster. The enrollment count is a
// computed value: the server-reported count when present, otherwise the
// roster length.
type Class struct {
	ID          ID                `json:"_id"`
	TeacherID   ID                `json:"teacherId"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Subject     string            `json:"subject,omitempty"`
	GradeLevel  *int              `json:"gradeLevel,omitempty"`
	Schedule    string            `json:"schedule,omitempty"`
	Capacity    *int              `json:"capacity,omitempty"`
	Students    []EnrolledStudent `json:"students"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   *time.Time        `json:"updatedAt,omitempty"`

	reportedCount *int
}

type classWire struct {
	ID           ID                `json:"_id"`
	TeacherID    ID                `json:"teacherId"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	Subject      string            `json:"subject,omitempty"`
	GradeLevel   *int              `json:"gradeLevel,omitempty"`
	GradeLevelV1 *int              `json:"grade_level,omitempty"`
	Schedule     string            `json:"schedule,omitempty"`
	Capacity     *int              `json:"capacity,omitempty"`
	Students     []EnrolledStudent `json:"students"`
	StudentCount *int              `json:"studentCount,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    *time.Time        `json:"updatedAt,omitempty"`
}

// UnmarshalJSON decodes a class, keeping the server-reported count apart
// from the roster.
func (c *Class) UnmarshalJSON(data []byte) error {
	var wire classWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	grade := wire.GradeLevel
	if grade == nil {
		grade = wire.GradeLevelV1
	}
	students := wire.Students
	if students == nil {
		students = []EnrolledStudent{}
	}

	*c = Class{
		ID:            wire.ID,
		TeacherID:     wire.TeacherID,
		Name:          wire.Name,
		Description:   wire.Description,
		Subject:       wire.Subject,
		GradeLevel:    grade,
		Schedule:      wire.Schedule,
		Capacity:      wire.Capacity,
		Students:      students,
		CreatedAt:     wire.CreatedAt,
		UpdatedAt:     wire.UpdatedAt,
		reportedCount: wire.StudentCount,
	}
	return nil
}

// MarshalJSON always emits the computed count.
func (c Class) MarshalJSON() ([]byte, error) {
	count := c.StudentCount()
	students := c.Students
	if students == nil {
		students = []EnrolledStudent{}
	}
	return json.Marshal(classWire{
		ID:           c.ID,
		TeacherID:    c.TeacherID,
		Name:         c.Name,
		Description:  c.Description,
		Subject:      c.Subject,
		GradeLevel:   c.GradeLevel,
		Schedule:     c.Schedule,
		Capacity:     c.Capacity,
		Students:     students,
		StudentCount: &count,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	})
}

// StudentCount returns the server-reported count if one was sent, otherwise
// the number of roster entries.
func (c Class) StudentCount() int {
	if c.reportedCount != nil {
		return *c.reportedCount
	}
	return len(c.Students)
}

// ReportsCount reports whether the count came from the server.
func (c Class) ReportsCount() bool {
	return c.reportedCount != nil
}

// WithReportedCount returns a copy carrying an explicit server count. It is
// meant for decoders and test fixtures.
func (c Class) WithReportedCount(n int) Class {
	out := c.Clone()
	out.reportedCount = &n
	return out
}

// OwnedBy reports whether the class belongs to the given teacher.
func (c Class) OwnedBy(teacherID ID) bool {
	return teacherID != "" && c.TeacherID == teacherID
}

// RosterIDs returns the identifier set of the roster.
func (c Class) RosterIDs() IDSet {
	set := make(IDSet, len(c.Students))
	for _, s := range c.Students {
		set.Add(s.ID)
	}
	return set
}

// HasStudent reports whether id is on the roster.
func (c Class) HasStudent(id ID) bool {
	for _, s := range c.Students {
		if s.ID == id {
			return true
		}
	}
	return false
}

// AtCapacity reports whether the advisory capacity is reached.
func (c Class) AtCapacity() bool {
	return c.Capacity != nil && c.StudentCount() >= *c.Capacity
}

// WithoutStudent returns a copy whose roster excludes id. The server-reported
// count is dropped so the count follows the roster.
func (c Class) WithoutStudent(id ID) Class {
	out := c.Clone()
	filtered := make([]EnrolledStudent, 0, len(out.Students))
	for _, s := range out.Students {
		if s.ID != id {
			filtered = append(filtered, s)
		}
	}
	out.Students = filtered
	out.reportedCount = nil
	return out
}

// WithStudents returns a copy whose roster also lists ids. Ids already on the
// roster are skipped, and a server-reported count grows by the number added.
func (c Class) WithStudents(ids ...ID) Class {
	out := c.Clone()
	roster := out.RosterIDs()
	added := 0
	for _, id := range ids {
		if roster.Has(id) {
			continue
		}
		roster.Add(id)
		out.Students = append(out.Students, EnrolledStudent{ID: id})
		added++
	}
	if out.reportedCount != nil {
		*out.reportedCount += added
	}
	return out
}

// Merge overlays the fields of a fresher payload for the same class.
func (c Class) Merge(fresh Class) Class {
	out := fresh.Clone()
	if out.CreatedAt.IsZero() {
		out.CreatedAt = c.CreatedAt
	}
	return out
}

// Clone returns a deep copy that shares no mutable state with c.
func (c Class) Clone() Class {
	out := c
	out.GradeLevel = cloneInt(c.GradeLevel)
	out.Capacity = cloneInt(c.Capacity)
	out.reportedCount = cloneInt(c.reportedCount)
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		out.UpdatedAt = &t
	}
	out.Students = make([]EnrolledStudent, len(c.Students))
	for i, s := range c.Students {
		if s.EnrolledAt != nil {
			t := *s.EnrolledAt
			s.EnrolledAt = &t
		}
		out.Students[i] = s
	}
	return out
}

// Matches reports whether the query matches name, subject or description.
func (c Class) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), query) ||
		strings.Contains(strings.ToLower(c.Subject), query) ||
		strings.Contains(strings.ToLower(c.Description), query)
}

// ClassRequest is the create/update body for a class.
type ClassRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Subject     string `json:"subject,omitempty" validate:"omitempty,max=100"`
	GradeLevel  *int   `json:"grade_level,omitempty" validate:"omitempty,min=1,max=12"`
	Schedule    string `json:"schedule,omitempty" validate:"omitempty,max=255"`
	Capacity    *int   `json:"capacity,omitempty" validate:"omitempty,min=1"`
}

// ClassRequestFrom copies the editable fields of an existing class.
func ClassRequestFrom(c Class) ClassRequest {
	return ClassRequest{
		Name:        c.Name,
		Description: c.Description,
		Subject:     c.Subject,
		GradeLevel:  cloneInt(c.GradeLevel),
		Schedule:    c.Schedule,
		Capacity:    cloneInt(c.Capacity),
	}
}

// EnrollRequest is the body of the batch enrollment call.
type EnrollRequest struct {
	StudentIDs []string `json:"student_ids"`
}

// EnrollResponse is the body of a successful batch enrollment. The updated
// class is embedded under "class" or returned bare; it may also be absent.
type EnrollResponse struct {
	Message string `json:"message,omitempty"`
	Class   *Class `json:"class,omitempty"`
}

// UnmarshalJSON accepts the wrapped and the bare class shapes.
func (r *EnrollResponse) UnmarshalJSON(data []byte) error {
	var probe struct {
		Message string          `json:"message"`
		Class   json.RawMessage `json:"class"`
		ID      json.RawMessage `json:"_id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	r.Message = probe.Message
	r.Class = nil

	switch {
	case len(probe.Class) > 0 && !bytes.Equal(bytes.TrimSpace(probe.Class), []byte("null")):
		var cls Class
		if err := json.Unmarshal(probe.Class, &cls); err != nil {
			return err
		}
		r.Class = &cls
	case len(probe.ID) > 0:
		var cls Class
		if err := json.Unmarshal(data, &cls); err != nil {
			return err
		}
		r.Class = &cls
	}
	return nil
}

// RecentClasses returns up to n classes ordered by creation time, newest
// first. The input slice is not modified.
func RecentClasses(classes []Class, n int) []Class {
	sorted := make([]Class, len(classes))
	for i, c := range classes {
		sorted[i] = c.Clone()
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
