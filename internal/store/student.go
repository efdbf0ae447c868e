package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/classpilot-go/internal/dto"
)

// StudentSnapshot is a point-in-time copy of the student store.
type StudentSnapshot struct {
	Students []dto.Student
	Selected *dto.Student
	Status   Status
	Err      error
}

// StudentStore holds the authenticated teacher's students.
type StudentStore struct {
	gateway   StudentGateway
	tokens    TokenSource
	validator Validator
	logger    zerolog.Logger

	mu       sync.RWMutex
	epoch    uint64
	students []dto.Student
	selected *dto.Student
	status   Status
	err      error
}

// Student store actions.
type (
	studentsLoaded  struct{ students []dto.Student }
	studentSelected struct{ student dto.Student }
	studentAdded    struct{ student dto.Student }
	studentUpdated  struct{ student dto.Student }
	studentRemoved  struct{ id dto.ID }
)

// NewStudentStore builds an empty student store.
func NewStudentStore(gw StudentGateway, tokens TokenSource, validator Validator, logger zerolog.Logger) *StudentStore {
	return &StudentStore{
		gateway:   gw,
		tokens:    tokens,
		validator: validator,
		logger:    logger.With().Str("component", "student_store").Logger(),
		students:  []dto.Student{},
		status:    StatusIdle,
	}
}

// Snapshot returns a deep copy of the store state.
func (s *StudentStore) Snapshot() StudentSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := StudentSnapshot{
		Students: cloneStudents(s.students),
		Status:   s.status,
		Err:      s.err,
	}
	if s.selected != nil {
		selected := s.selected.Clone()
		snap.Selected = &selected
	}
	return snap
}

// Fetch replaces the collection with the server list, preserving server order.
func (s *StudentStore) Fetch(ctx context.Context) ([]dto.Student, error) {
	token, err := requireToken(s.tokens, "students.list")
	if err != nil {
		return nil, err
	}

	epoch := s.begin()
	students, err := s.gateway.ListStudents(ctx, token)
	if err != nil {
		s.dispatch(epoch, requestFailed{err: err})
		return nil, err
	}
	if !s.dispatch(epoch, studentsLoaded{students: students}) {
		return nil, ErrStale
	}

	s.logger.Debug().Int("count", len(students)).Msg("students fetched")
	return cloneStudents(students), nil
}

// Get loads one student into the selected slot.
func (s *StudentStore) Get(ctx context.Context, id dto.ID) (dto.Student, error) {
	id, err := requireID(id)
	if err != nil {
		return dto.Student{}, err
	}
	token, err := requireToken(s.tokens, "students.get")
	if err != nil {
		return dto.Student{}, err
	}

	epoch := s.begin()
	student, err := s.gateway.GetStudent(ctx, token, id)
	if err != nil {
		s.dispatch(epoch, requestFailed{err: err})
		return dto.Student{}, err
	}
	if !s.dispatch(epoch, studentSelected{student: student}) {
		return dto.Student{}, ErrStale
	}
	return student.Clone(), nil
}

// Add validates req, creates the student and appends the created record.
func (s *StudentStore) Add(ctx context.Context, req dto.StudentRequest) (dto.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.Student{}, err
	}
	token, err := requireToken(s.tokens, "students.create")
	if err != nil {
		return dto.Student{}, err
	}

	epoch := s.begin()
	student, err := s.gateway.CreateStudent(ctx, token, req)
	if err != nil {
		s.dispatch(epoch, requestFailed{err: err})
		return dto.Student{}, err
	}
	if !s.dispatch(epoch, studentAdded{student: student}) {
		return dto.Student{}, ErrStale
	}

	s.logger.Info().Str("student_id", student.ID.String()).Msg("student created")
	return student.Clone(), nil
}

// Update validates req and replaces the stored record in place.
func (s *StudentStore) Update(ctx context.Context, id dto.ID, req dto.StudentRequest) (dto.Student, error) {
	id, err := requireID(id)
	if err != nil {
		return dto.Student{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return dto.Student{}, err
	}
	token, err := requireToken(s.tokens, "students.update")
	if err != nil {
		return dto.Student{}, err
	}

	epoch := s.begin()
	student, err := s.gateway.UpdateStudent(ctx, token, id, req)
	if err != nil {
		s.dispatch(epoch, requestFailed{err: err})
		return dto.Student{}, err
	}
	if student.ID == "" {
		student.ID = id
	}
	if !s.dispatch(epoch, studentUpdated{student: student}) {
		return dto.Student{}, ErrStale
	}
	return student.Clone(), nil
}

// Delete removes a student on the server and from the collection.
func (s *StudentStore) Delete(ctx context.Context, id dto.ID) error {
	id, err := requireID(id)
	if err != nil {
		return err
	}
	token, err := requireToken(s.tokens, "students.delete")
	if err != nil {
		return err
	}

	epoch := s.begin()
	if err := s.gateway.DeleteStudent(ctx, token, id); err != nil {
		s.dispatch(epoch, requestFailed{err: err})
		return err
	}
	if !s.dispatch(epoch, studentRemoved{id: id}) {
		return ErrStale
	}

	s.logger.Info().Str("student_id", id.String()).Msg("student deleted")
	return nil
}

// Recent returns up to n students, newest first.
func (s *StudentStore) Recent(n int) []dto.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return dto.RecentStudents(s.students, n)
}

// Search returns the students whose name or email contains query.
func (s *StudentStore) Search(query string) []dto.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]dto.Student, 0, len(s.students))
	for _, student := range s.students {
		if student.Matches(query) {
			out = append(out, student.Clone())
		}
	}
	return out
}

// Reset returns the store to its initial state and discards in-flight responses.
func (s *StudentStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.students = []dto.Student{}
	s.selected = nil
	s.status = StatusIdle
	s.err = nil
}

func (s *StudentStore) begin() uint64 {
	s.mu.RLock()
	epoch := s.epoch
	s.mu.RUnlock()

	s.dispatch(epoch, requestStarted{})
	return epoch
}

// dispatch applies an action if no reset happened since epoch was taken.
func (s *StudentStore) dispatch(epoch uint64, action interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		s.logger.Debug().Msg("discarding response for a reset store")
		return false
	}

	switch a := action.(type) {
	case requestStarted:
		s.status = StatusLoading
		s.err = nil
		return true
	case requestFailed:
		s.status = StatusFailed
		s.err = a.err
		return true
	case studentsLoaded:
		s.students = cloneStudents(a.students)
	case studentSelected:
		selected := a.student.Clone()
		s.selected = &selected
	case studentAdded:
		s.students = append(s.students, a.student.Clone())
	case studentUpdated:
		for i := range s.students {
			if s.students[i].ID == a.student.ID {
				s.students[i] = a.student.Clone()
			}
		}
		if s.selected != nil && s.selected.ID == a.student.ID {
			selected := a.student.Clone()
			s.selected = &selected
		}
	case studentRemoved:
		kept := s.students[:0:0]
		for _, student := range s.students {
			if student.ID != a.id {
				kept = append(kept, student)
			}
		}
		s.students = kept
		if s.selected != nil && s.selected.ID == a.id {
			s.selected = nil
		}
	default:
		return false
	}

	s.status = StatusSucceeded
	s.err = nil
	return true
}
