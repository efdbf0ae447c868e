package store

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/gateway"
)

const testToken = "tok-1"

var staticToken = TokenFunc(func() string { return testToken })

type stubStudentGateway struct {
	mu       sync.Mutex
	students []dto.Student
	calls    map[string]int
	err      error
	block    chan struct{}
	lastReq  dto.StudentRequest
}

var _ StudentGateway = (*stubStudentGateway)(nil)

func newStubStudentGateway(students ...dto.Student) *stubStudentGateway {
	return &stubStudentGateway{students: students, calls: map[string]int{}}
}

func (s *stubStudentGateway) record(op string) error {
	s.mu.Lock()
	s.calls[op]++
	block := s.block
	err := s.err
	s.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (s *stubStudentGateway) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *stubStudentGateway) ListStudents(_ context.Context, _ string) ([]dto.Student, error) {
	if err := s.record("list"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneStudents(s.students), nil
}

func (s *stubStudentGateway) GetStudent(_ context.Context, _ string, id dto.ID) (dto.Student, error) {
	if err := s.record("get"); err != nil {
		return dto.Student{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.students {
		if st.ID == id {
			return st, nil
		}
	}
	return dto.Student{}, &gateway.Error{Kind: gateway.KindNotFound, Status: 404, Message: "Student not found"}
}

func (s *stubStudentGateway) CreateStudent(_ context.Context, _ string, req dto.StudentRequest) (dto.Student, error) {
	if err := s.record("create"); err != nil {
		return dto.Student{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReq = req
	created := dto.Student{ID: dto.ID("new-" + req.Name), TeacherID: "t1", Name: req.Name, Email: req.Email, Age: req.Age}
	s.students = append(s.students, created)
	return created, nil
}

func (s *stubStudentGateway) UpdateStudent(_ context.Context, _ string, id dto.ID, req dto.StudentRequest) (dto.Student, error) {
	if err := s.record("update"); err != nil {
		return dto.Student{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReq = req
	return dto.Student{ID: id, TeacherID: "t1", Name: req.Name, Email: req.Email, Age: req.Age}, nil
}

func (s *stubStudentGateway) DeleteStudent(_ context.Context, _ string, _ dto.ID) error {
	return s.record("delete")
}

// stubClassGateway keeps a small server-side class table.
type stubClassGateway struct {
	mu         sync.Mutex
	classes    map[dto.ID]dto.Class
	order      []dto.ID
	calls      map[string]int
	enrolled   [][]dto.ID
	embed      bool
	err        error
	errOps     map[string]error
	getStarted chan dto.ID
	getRelease chan struct{}
}

var _ ClassGateway = (*stubClassGateway)(nil)

func newStubClassGateway(classes ...dto.Class) *stubClassGateway {
	stub := &stubClassGateway{classes: map[dto.ID]dto.Class{}, calls: map[string]int{}, errOps: map[string]error{}}
	for _, c := range classes {
		stub.classes[c.ID] = c.Clone()
		stub.order = append(stub.order, c.ID)
	}
	return stub
}

func (s *stubClassGateway) record(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	if err, ok := s.errOps[op]; ok {
		return err
	}
	return s.err
}

func (s *stubClassGateway) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *stubClassGateway) ListClasses(_ context.Context, _ string) ([]dto.Class, error) {
	if err := s.record("list"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dto.Class, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.classes[id].Clone())
	}
	return out, nil
}

func (s *stubClassGateway) GetClass(ctx context.Context, _ string, id dto.ID) (dto.Class, error) {
	if err := s.record("get"); err != nil {
		return dto.Class{}, err
	}
	if s.getStarted != nil {
		s.getStarted <- id
	}
	if s.getRelease != nil {
		select {
		case <-s.getRelease:
		case <-ctx.Done():
			return dto.Class{}, &gateway.Error{Kind: gateway.KindCanceled, Message: "Request canceled", Err: ctx.Err()}
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.classes[id]
	if !ok {
		return dto.Class{}, &gateway.Error{Kind: gateway.KindNotFound, Status: 404, Message: "Class not found"}
	}
	return c.Clone(), nil
}

func (s *stubClassGateway) CreateClass(_ context.Context, _ string, req dto.ClassRequest) (dto.Class, error) {
	if err := s.record("create"); err != nil {
		return dto.Class{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	created := dto.Class{ID: dto.ID("c-" + req.Name), TeacherID: "t1", Name: req.Name, Students: []dto.EnrolledStudent{}, CreatedAt: time.Now()}
	s.classes[created.ID] = created
	s.order = append(s.order, created.ID)
	return created.Clone(), nil
}

func (s *stubClassGateway) UpdateClass(_ context.Context, _ string, id dto.ID, req dto.ClassRequest) (dto.Class, error) {
	if err := s.record("update"); err != nil {
		return dto.Class{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.classes[id]
	c.Name = req.Name
	s.classes[id] = c
	return c.Clone(), nil
}

func (s *stubClassGateway) DeleteClass(_ context.Context, _ string, id dto.ID) error {
	if err := s.record("delete"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.classes, id)
	kept := s.order[:0]
	for _, existing := range s.order {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	s.order = kept
	return nil
}

func (s *stubClassGateway) AddStudentsToClass(_ context.Context, _ string, classID dto.ID, ids []dto.ID) (*dto.Class, error) {
	if err := s.record("enroll"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrolled = append(s.enrolled, append([]dto.ID(nil), ids...))
	c := s.classes[classID]
	for _, id := range ids {
		c.Students = append(c.Students, dto.EnrolledStudent{ID: id})
	}
	s.classes[classID] = c
	if s.embed {
		out := c.Clone()
		return &out, nil
	}
	return nil, nil
}

func (s *stubClassGateway) RemoveStudentFromClass(_ context.Context, _ string, classID, studentID dto.ID) error {
	if err := s.record("unenroll"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.classes[classID] = s.classes[classID].WithoutStudent(studentID)
	return nil
}

func (s *stubClassGateway) ListClassStudents(_ context.Context, _ string, classID dto.ID) ([]dto.EnrolledStudent, error) {
	if err := s.record("roster"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.classes[classID].Clone().Students, nil
}

type stubAuthGateway struct {
	mu        sync.Mutex
	user      dto.User
	meErr     error
	loginErr  error
	logoutErr error
	calls     map[string]int
}

var _ AuthGateway = (*stubAuthGateway)(nil)

func newStubAuthGateway() *stubAuthGateway {
	return &stubAuthGateway{user: dto.User{ID: "t1", Name: "Ada", Email: "ada@example.com"}, calls: map[string]int{}}
}

func (s *stubAuthGateway) record(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
}

func (s *stubAuthGateway) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *stubAuthGateway) Me(_ context.Context, _ string) (dto.MeResponse, error) {
	s.record("me")
	if s.meErr != nil {
		return dto.MeResponse{}, s.meErr
	}
	return dto.MeResponse{User: s.user}, nil
}

func (s *stubAuthGateway) Register(_ context.Context, req dto.RegisterRequest) (dto.AuthResponse, error) {
	s.record("register")
	if s.loginErr != nil {
		return dto.AuthResponse{}, s.loginErr
	}
	return dto.AuthResponse{User: dto.User{ID: "t2", Name: req.Name, Email: req.Email}, Token: "tok-register"}, nil
}

func (s *stubAuthGateway) Login(_ context.Context, _ dto.LoginRequest) (dto.AuthResponse, error) {
	s.record("login")
	if s.loginErr != nil {
		return dto.AuthResponse{}, s.loginErr
	}
	return dto.AuthResponse{User: s.user, Token: "tok-login"}, nil
}

func (s *stubAuthGateway) Logout(_ context.Context, _ string) error {
	s.record("logout")
	return s.logoutErr
}
