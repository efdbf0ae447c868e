package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/noah-isme/classpilot-go/internal/dto"
)

func (cli *commandLine) students(ctx context.Context, args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}
	if err := cli.authenticated(ctx); err != nil {
		return err
	}

	action, rest := args[0], args[1:]
	switch action {
	case "list":
		fs := newFlagSet("students list", cli.out)
		query := fs.String("q", "", "filter by name or email")
		recent := fs.Int("recent", 0, "show only the N newest students")
		if err := parseFlags(fs, rest); err != nil {
			return err
		}
		if _, err := cli.app.Students.Fetch(ctx); err != nil {
			return err
		}
		students := cli.app.Students.Search(*query)
		if *recent > 0 {
			students = dto.RecentStudents(students, *recent)
		}
		return renderStudents(cli.out, students)

	case "show":
		fs := newFlagSet("students show", cli.out)
		id := fs.String("id", "", "student id")
		if err := parseFlags(fs, rest); err != nil {
			return err
		}
		student, err := cli.app.Students.Get(ctx, dto.ID(*id))
		if err != nil {
			return err
		}
		return renderStudent(cli.out, student)

	case "add":
		fs := newFlagSet("students add", cli.out)
		req := dto.StudentRequest{}
		bindStudentFlags(fs, &req)
		if err := parseFlags(fs, rest); err != nil {
			return err
		}
		student, err := cli.app.Students.Add(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Student %s created (id %s).\n", student.Name, student.ID)
		return nil

	case "update":
		fs := newFlagSet("students update", cli.out)
		id := fs.String("id", "", "student id")
		changes := dto.StudentRequest{}
		bindStudentFlags(fs, &changes)
		if err := parseFlags(fs, rest); err != nil {
			return err
		}
		current, err := cli.app.Students.Get(ctx, dto.ID(*id))
		if err != nil {
			return err
		}
		req := mergeStudent(dto.StudentRequestFrom(current), changes, setFlags(fs))
		student, err := cli.app.Students.Update(ctx, current.ID, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Student %s updated.\n", student.Name)
		return nil

	case "delete":
		fs := newFlagSet("students delete", cli.out)
		id := fs.String("id", "", "student id")
		if err := parseFlags(fs, rest); err != nil {
			return err
		}
		if err := cli.app.Students.Delete(ctx, dto.ID(*id)); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "Student deleted.")
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) classes(ctx context.Context, args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}
	if err := cli.authenticated(ctx); err != nil {
		return err
	}

	action, rest := args[0], args[1:]
	switch action {
	case "list":
		fs := newFlagSet("classes list", cli.out)
		query := fs.String("q", "", "filter by name, subject or description")
		recent := fs.Int("recent", 0, "show only the N newest classes")
		if err := parseFlags(fs, rest); err != nil {
			return err
		}
		if _, err := cli.app.Classes.Fetch(ctx); err != nil {
			return err
		}
		classes := cli.app.Classes.Search(*query)
		if *recent > 0 {
			classes = dto.RecentClasses(classes, *recent)
		}
		return renderClasses(cli.out, classes)

	case "show", "roster":
		fs := newFlagSet("classes "+action, cli.out)
		id := fs.String("id", "", "class id")
		if err := parseFlags(fs, rest); err != nil {
			return err
		}
		view, err := cli.app.Classes.Open(ctx, dto.ID(*id))
		if err != nil {
			return err
		}
		defer view.Close()
		class, _ := view.Class()
		if action == "roster" {
			return renderRoster(cli.out, class.Students)
		}
		return renderClass(cli.out, class)

	case "create":
		fs := newFlagSet("classes create", cli.out)
		form := classForm{}
		form.bind(fs)
		if err := parseFlags(fs, rest); err != nil {
			return err
		}
		class, err := cli.app.Classes.Create(ctx, form.apply(dto.ClassRequest{}, setFlags(fs)))
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Class %s created (id %s).\n", class.Name, class.ID)
		return nil

	case "update":
		fs := newFlagSet("classes update", cli.out)
		id := fs.String("id", "", "class id")
		form := classForm{}
		form.bind(fs)
		if err := parseFlags(fs, rest); err != nil {
			return err
		}
		current, err := cli.app.Classes.Get(ctx, dto.ID(*id))
		if err != nil {
			return err
		}
		class, err := cli.app.Classes.Update(ctx, current.ID, form.apply(dto.ClassRequestFrom(current), setFlags(fs)))
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "Class %s updated.\n", class.Name)
		return nil

	case "delete":
		fs := newFlagSet("classes delete", cli.out)
		id := fs.String("id", "", "class id")
		if err := parseFlags(fs, rest); err != nil {
			return err
		}
		if err := cli.app.Classes.Delete(ctx, dto.ID(*id)); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "Class deleted.")
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func bindStudentFlags(fs *flag.FlagSet, req *dto.StudentRequest) {
	fs.StringVar(&req.Name, "name", "", "full name")
	fs.IntVar(&req.Age, "age", 0, "age in years")
	fs.StringVar(&req.Email, "email", "", "email address")
	fs.StringVar(&req.Gender, "gender", "", "gender")
	fs.StringVar(&req.Notes, "notes", "", "free-text notes")
	fs.StringVar(&req.ParentEmail, "parent-email", "", "parent email")
	fs.StringVar(&req.ParentPhone, "parent-phone", "", "parent phone")
}

func mergeStudent(base, changes dto.StudentRequest, set map[string]bool) dto.StudentRequest {
	if set["name"] {
		base.Name = changes.Name
	}
	if set["age"] {
		base.Age = changes.Age
	}
	if set["email"] {
		base.Email = changes.Email
	}
	if set["gender"] {
		base.Gender = changes.Gender
	}
	if set["notes"] {
		base.Notes = changes.Notes
	}
	if set["parent-email"] {
		base.ParentEmail = changes.ParentEmail
	}
	if set["parent-phone"] {
		base.ParentPhone = changes.ParentPhone
	}
	return base
}

// classForm holds class flags. Grade and capacity of zero clear the value.
type classForm struct {
	name, description, subject, schedule string
	grade, capacity                      int
}

func (f *classForm) bind(fs *flag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "class name")
	fs.StringVar(&f.description, "description", "", "description")
	fs.StringVar(&f.subject, "subject", "", "subject")
	fs.StringVar(&f.schedule, "schedule", "", "schedule")
	fs.IntVar(&f.grade, "grade", 0, "grade level (1-12)")
	fs.IntVar(&f.capacity, "capacity", 0, "maximum number of students")
}

func (f classForm) apply(base dto.ClassRequest, set map[string]bool) dto.ClassRequest {
	if set["name"] {
		base.Name = f.name
	}
	if set["description"] {
		base.Description = f.description
	}
	if set["subject"] {
		base.Subject = f.subject
	}
	if set["schedule"] {
		base.Schedule = f.schedule
	}
	if set["grade"] {
		base.GradeLevel = optionalInt(f.grade)
	}
	if set["capacity"] {
		base.Capacity = optionalInt(f.capacity)
	}
	return base
}

func optionalInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
