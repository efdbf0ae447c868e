package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/noah-isme/classpilot-go/internal/dto"
)

var (
	// ErrSeedDisabled indicates seeding is turned off, as it is in production.
	ErrSeedDisabled = errors.New("seeding is disabled")
	// ErrSeedExists indicates the demo account was already created.
	ErrSeedExists = errors.New("demo data already present")
)

// SeedRequest names the demo teacher account.
type SeedRequest struct {
	Name     string
	Email    string
	Password string
}

// SeedResult summarises the seeded demo data.
type SeedResult struct {
	Teacher  dto.User
	Students int
	Classes  int
}

// SeedService populates the development database with a demo teacher.
type SeedService interface {
	SeedDemo(ctx context.Context, req SeedRequest) (SeedResult, error)
}

type seedService struct {
	auth     AuthService
	students StudentService
	classes  ClassService
	enabled  bool
	logger   zerolog.Logger
}

// NewSeedService constructs a seeding service.
func NewSeedService(auth AuthService, students StudentService, classes ClassService, enabled bool, logger zerolog.Logger) SeedService {
	return &seedService{
		auth:     auth,
		students: students,
		classes:  classes,
		enabled:  enabled,
		logger:   logger.With().Str("component", "seed_service").Logger(),
	}
}

var demoStudents = []dto.StudentRequest{
	{Name: "Ada Lovelace", Age: 16, Email: "ada@example.com", Gender: "Female"},
	{Name: "Alan Turing", Age: 17, Email: "alan@example.com", Gender: "Male"},
	{Name: "Grace Hopper", Age: 15, Email: "grace@example.com", Gender: "Female"},
	{Name: "Edsger Dijkstra", Age: 16, Email: "edsger@example.com", Gender: "Male"},
	{Name: "Barbara Liskov", Age: 17, Email: "barbara@example.com", Gender: "Female"},
}

func demoClasses() []dto.ClassRequest {
	grade := func(v int) *int { return &v }
	return []dto.ClassRequest{
		{Name: "Algebra I", Subject: "Mathematics", GradeLevel: grade(9), Schedule: "Mon/Wed 09:00", Capacity: grade(3)},
		{Name: "Intro to Programming", Subject: "Computer Science", GradeLevel: grade(10), Schedule: "Tue/Thu 13:00", Capacity: grade(25)},
	}
}

func (s *seedService) SeedDemo(ctx context.Context, req SeedRequest) (SeedResult, error) {
	if !s.enabled {
		return SeedResult{}, ErrSeedDisabled
	}

	account, err := s.auth.Register(ctx, dto.RegisterRequest{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return SeedResult{}, ErrSeedExists
		}
		return SeedResult{}, err
	}
	teacherID := account.User.ID.String()

	ids := make([]string, 0, len(demoStudents))
	for _, student := range demoStudents {
		created, err := s.students.Create(ctx, teacherID, student)
		if err != nil {
			return SeedResult{}, err
		}
		ids = append(ids, created.ID.String())
	}

	classes := demoClasses()
	for i, class := range classes {
		created, err := s.classes.Create(ctx, teacherID, class)
		if err != nil {
			return SeedResult{}, err
		}
		batch := ids[:2]
		if i > 0 {
			batch = ids[1:]
		}
		if _, err := s.classes.Enroll(ctx, teacherID, created.ID.String(), batch); err != nil {
			return SeedResult{}, err
		}
	}

	s.logger.Info().
		Str("teacher_id", teacherID).
		Int("students", len(ids)).
		Int("classes", len(classes)).
		Msg("demo data seeded")
	return SeedResult{Teacher: account.User, Students: len(ids), Classes: len(classes)}, nil
}
