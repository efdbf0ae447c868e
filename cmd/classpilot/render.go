package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/noah-isme/classpilot-go/internal/app"
	"github.com/noah-isme/classpilot-go/internal/dto"
)

const dateLayout = "2006-01-02"

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

func renderStudents(out io.Writer, students []dto.Student) error {
	if len(students) == 0 {
		_, err := fmt.Fprintln(out, "No students found.")
		return err
	}
	w := newTable(out)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tAGE\tADDED")
	for _, s := range students {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.Name, s.Email, s.Age, s.CreatedAt.Format(dateLayout))
	}
	return w.Flush()
}

func renderStudent(out io.Writer, s dto.Student) error {
	w := newTable(out)
	fmt.Fprintf(w, "ID\t%s\n", s.ID)
	fmt.Fprintf(w, "Name\t%s\n", s.Name)
	fmt.Fprintf(w, "Email\t%s\n", s.Email)
	fmt.Fprintf(w, "Age\t%d\n", s.Age)
	if s.Gender != "" {
		fmt.Fprintf(w, "Gender\t%s\n", s.Gender)
	}
	if s.ParentEmail != "" || s.ParentPhone != "" {
		fmt.Fprintf(w, "Parent\t%s %s\n", s.ParentEmail, s.ParentPhone)
	}
	if s.Notes != "" {
		fmt.Fprintf(w, "Notes\t%s\n", s.Notes)
	}
	return w.Flush()
}

func renderClasses(out io.Writer, classes []dto.Class) error {
	if len(classes) == 0 {
		_, err := fmt.Fprintln(out, "No classes found.")
		return err
	}
	w := newTable(out)
	fmt.Fprintln(w, "ID\tNAME\tSUBJECT\tGRADE\tSTUDENTS")
	for _, c := range classes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Subject, optional(c.GradeLevel), enrollment(c))
	}
	return w.Flush()
}

func renderClass(out io.Writer, c dto.Class) error {
	w := newTable(out)
	fmt.Fprintf(w, "ID\t%s\n", c.ID)
	fmt.Fprintf(w, "Name\t%s\n", c.Name)
	if c.Subject != "" {
		fmt.Fprintf(w, "Subject\t%s\n", c.Subject)
	}
	fmt.Fprintf(w, "Grade\t%s\n", optional(c.GradeLevel))
	if c.Schedule != "" {
		fmt.Fprintf(w, "Schedule\t%s\n", c.Schedule)
	}
	if c.Description != "" {
		fmt.Fprintf(w, "Description\t%s\n", c.Description)
	}
	fmt.Fprintf(w, "Students\t%s\n", enrollment(c))
	if err := w.Flush(); err != nil {
		return err
	}
	return renderRoster(out, c.Students)
}

func renderRoster(out io.Writer, roster []dto.EnrolledStudent) error {
	if len(roster) == 0 {
		_, err := fmt.Fprintln(out, "No students enrolled.")
		return err
	}
	w := newTable(out)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL")
	for _, s := range roster {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Name, s.Email)
	}
	return w.Flush()
}

func renderDashboard(out io.Writer, board app.Dashboard) error {
	fmt.Fprintf(out, "Welcome back, %s.\n", board.User.Name)
	fmt.Fprintf(out, "Students: %d  Classes: %d  Enrollments: %d\n\n", board.StudentTotal, board.ClassTotal, board.EnrolledTotal)
	fmt.Fprintln(out, "Recent students")
	if err := renderStudents(out, board.RecentStudents); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nRecent classes")
	return renderClasses(out, board.RecentClasses)
}

func optional(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func enrollment(c dto.Class) string {
	if c.Capacity != nil {
		return fmt.Sprintf("%d/%d", c.StudentCount(), *c.Capacity)
	}
	return strconv.Itoa(c.StudentCount())
}
