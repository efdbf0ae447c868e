package service

import (
	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/models"
)

func toUserDTO(teacher models.Teacher) dto.User {
	return dto.User{ID: dto.ID(teacher.ID), Name: teacher.Name, Email: teacher.Email}
}

func toStudentDTO(student models.Student) dto.Student {
	updated := student.UpdatedAt
	out := dto.Student{
		ID:          dto.ID(student.ID),
		TeacherID:   dto.ID(student.TeacherID),
		Name:        student.Name,
		Email:       student.Email,
		Age:         student.Age,
		Gender:      student.Gender,
		Notes:       student.Notes,
		ParentEmail: student.ParentEmail,
		ParentPhone: student.ParentPhone,
		CreatedAt:   student.CreatedAt,
	}
	if !updated.IsZero() {
		out.UpdatedAt = &updated
	}
	return out
}

func toRosterDTO(enrollments []models.Enrollment) []dto.EnrolledStudent {
	roster := make([]dto.EnrolledStudent, 0, len(enrollments))
	for _, e := range enrollments {
		enrolledAt := e.EnrolledAt
		roster = append(roster, dto.EnrolledStudent{
			ID:         dto.ID(e.StudentID),
			TeacherID:  dto.ID(e.Student.TeacherID),
			Name:       e.Student.Name,
			Email:      e.Student.Email,
			EnrolledAt: &enrolledAt,
		})
	}
	return roster
}

func toClassDTO(class models.Class) dto.Class {
	updated := class.UpdatedAt
	out := dto.Class{
		ID:          dto.ID(class.ID),
		TeacherID:   dto.ID(class.TeacherID),
		Name:        class.Name,
		Description: class.Description,
		Subject:     class.Subject,
		GradeLevel:  class.GradeLevel,
		Schedule:    class.Schedule,
		Capacity:    class.Capacity,
		Students:    toRosterDTO(class.Enrollments),
		CreatedAt:   class.CreatedAt,
	}
	if !updated.IsZero() {
		out.UpdatedAt = &updated
	}
	return out
}
