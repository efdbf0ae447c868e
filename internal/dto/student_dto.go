package dto

import (
	"sort"
	"strings"
	"time"
)

// Genders lists the values offered by the student form.
var Genders = []string{"Male", "Female", "Other", "Prefer not to say"}

// Student is a learner owned by exactly one teacher.
type Student struct {
	ID          ID         `json:"_id"`
	TeacherID   ID         `json:"teacherId"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Age         int        `json:"age"`
	Gender      string     `json:"gender,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	ParentEmail string     `json:"parentEmail,omitempty"`
	ParentPhone string     `json:"parentPhone,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// OwnedBy reports whether the student belongs to the given teacher.
func (s Student) OwnedBy(teacherID ID) bool {
	return teacherID != "" && s.TeacherID == teacherID
}

// Clone returns a copy that shares no mutable state with s.
func (s Student) Clone() Student {
	out := s
	if s.UpdatedAt != nil {
		t := *s.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// Matches reports whether the query matches the name or email, ignoring case.
func (s Student) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s.Name), query) ||
		strings.Contains(strings.ToLower(s.Email), query)
}

// StudentRequest is the create/update body for a student. Server-managed
// fields are never sent.
type StudentRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Age         int    `json:"age" validate:"required,min=5,max=25"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Gender      string `json:"gender,omitempty" validate:"omitempty,max=20"`
	Notes       string `json:"notes,omitempty" validate:"omitempty,max=1000"`
	ParentEmail string `json:"parentEmail,omitempty" validate:"omitempty,email,max=255"`
	ParentPhone string `json:"parentPhone,omitempty" validate:"omitempty,max=20"`
}

// StudentRequestFrom copies the editable fields of an existing student.
func StudentRequestFrom(s Student) StudentRequest {
	return StudentRequest{
		Name:        s.Name,
		Age:         s.Age,
		Email:       s.Email,
		Gender:      s.Gender,
		Notes:       s.Notes,
		ParentEmail: s.ParentEmail,
		ParentPhone: s.ParentPhone,
	}
}

// RecentStudents returns up to n students ordered by creation time, newest
// first. The input slice is not modified.
func RecentStudents(students []Student, n int) []Student {
	sorted := make([]Student, len(students))
	for i, s := range students {
		sorted[i] = s.Clone()
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
