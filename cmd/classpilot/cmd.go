package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/noah-isme/classpilot-go/internal/app"
	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/gateway"
	"github.com/noah-isme/classpilot-go/internal/reconcile"
	"github.com/noah-isme/classpilot-go/internal/validation"
)

var (
	readPasswordFunc = func() (string, error) { // mockable
		pwd, err := term.ReadPassword(int(os.Stdin.Fd()))
		return string(pwd), err
	}

	errHelp = errors.New("help provided")
)

type commandLine struct {
	app          *app.App
	in           *bufio.Reader
	out          io.Writer
	readPassword func() (string, error)
	assumeYes    bool
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  register -name NAME -email EMAIL      - create a teacher account")
	fmt.Fprintln(cli.out, "  login -email EMAIL                    - sign in (the password is prompted)")
	fmt.Fprintln(cli.out, "  logout                                - sign out and forget the token")
	fmt.Fprintln(cli.out, "  whoami                                - show the signed-in teacher")
	fmt.Fprintln(cli.out, "  dashboard                             - totals and recent students and classes")
	fmt.Fprintln(cli.out, "  students list|show|add|update|delete  - manage students")
	fmt.Fprintln(cli.out, "  classes list|show|create|update|delete|roster - manage classes")
	fmt.Fprintln(cli.out, "  enroll -class ID -students ID,ID [-yes] - enroll students into a class")
	fmt.Fprintln(cli.out, "  unenroll -class ID -student ID        - remove a student from a class")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	rest := args[2:]
	switch args[1] {
	case "register":
		return cli.register(ctx, rest)
	case "login":
		return cli.login(ctx, rest)
	case "logout":
		return cli.logout(ctx)
	case "whoami":
		return cli.whoami(ctx)
	case "dashboard":
		return cli.dashboard(ctx)
	case "students":
		return cli.students(ctx, rest)
	case "classes":
		return cli.classes(ctx, rest)
	case "enroll":
		return cli.enroll(ctx, rest)
	case "unenroll":
		return cli.unenroll(ctx, rest)
	case "help", "-h", "--help":
		cli.printUsage()
		return errHelp
	default:
		cli.printUsage()
		return errHelp
	}
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}

// setFlags reports the flags given on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func (cli *commandLine) password(given string) (string, error) {
	if given != "" {
		return given, nil
	}
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := cli.readPassword()
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return pwd, nil
}

// authenticated restores the persisted session and guards protected commands.
func (cli *commandLine) authenticated(ctx context.Context) error {
	if _, err := cli.app.Bootstrap(ctx); err != nil {
		return err
	}
	return cli.app.RequireAuth()
}

func (cli *commandLine) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register", cli.out)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	pwd := fs.String("password", "", "password (prompted when omitted)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	password, err := cli.password(*pwd)
	if err != nil {
		return err
	}
	session, err := cli.app.Session.Register(ctx, dto.RegisterRequest{Name: *name, Email: *email, Password: password})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Welcome, %s! You are signed in as %s.\n", session.DisplayName, session.Email)
	return nil
}

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login", cli.out)
	email := fs.String("email", "", "email address")
	pwd := fs.String("password", "", "password (prompted when omitted)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	password, err := cli.password(*pwd)
	if err != nil {
		return err
	}
	session, err := cli.app.Session.Login(ctx, dto.LoginRequest{Email: *email, Password: password})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Signed in as %s (%s).\n", session.DisplayName, session.Email)
	return nil
}

func (cli *commandLine) logout(ctx context.Context) error {
	if err := cli.app.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Signed out.")
	return nil
}

func (cli *commandLine) whoami(ctx context.Context) error {
	if err := cli.authenticated(ctx); err != nil {
		return err
	}
	session := cli.app.Session.Snapshot()
	fmt.Fprintf(cli.out, "%s <%s> id=%s\n", session.DisplayName, session.Email, session.UserID)
	return nil
}

func (cli *commandLine) dashboard(ctx context.Context) error {
	if err := cli.authenticated(ctx); err != nil {
		return err
	}
	board, err := cli.app.Dashboard(ctx)
	if err != nil {
		return err
	}
	return renderDashboard(cli.out, board)
}

func (cli *commandLine) enroll(ctx context.Context, args []string) error {
	fs := newFlagSet("enroll", cli.out)
	classID := fs.String("class", "", "class id")
	students := fs.String("students", "", "comma separated student ids")
	yes := fs.Bool("yes", false, "submit reduced batches without asking")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *classID == "" {
		fs.Usage()
		return errHelp
	}
	cli.assumeYes = *yes

	if err := cli.authenticated(ctx); err != nil {
		return err
	}
	if _, err := cli.app.Classes.Fetch(ctx); err != nil {
		return err
	}

	outcome, err := cli.app.Enroller.Enroll(ctx, dto.ID(strings.TrimSpace(*classID)), splitIDs(*students))
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "Enrolled %d student(s) into %s. Roster size is now %d.\n",
		len(outcome.Enrolled), outcome.Class.Name, outcome.Class.StudentCount())
	for _, skipped := range outcome.Skipped {
		fmt.Fprintf(cli.out, "  skipped %s: %s\n", skipped.ID, reasonText(skipped.Reason))
	}
	return nil
}

func (cli *commandLine) unenroll(ctx context.Context, args []string) error {
	fs := newFlagSet("unenroll", cli.out)
	classID := fs.String("class", "", "class id")
	studentID := fs.String("student", "", "student id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *classID == "" || *studentID == "" {
		fs.Usage()
		return errHelp
	}

	if err := cli.authenticated(ctx); err != nil {
		return err
	}
	if _, err := cli.app.Classes.Fetch(ctx); err != nil {
		return err
	}

	if err := cli.app.Enroller.Remove(ctx, dto.ID(*classID), dto.ID(*studentID)); err != nil {
		return err
	}
	fmt.Fprintln(cli.out, "Student removed from class.")
	return nil
}

// confirmer asks on the terminal before submitting a reduced batch.
func (cli *commandLine) confirmer() reconcile.Confirmer {
	return reconcile.ConfirmFunc(func(_ context.Context, prompt reconcile.Prompt) (bool, error) {
		fmt.Fprintf(cli.out, "%d of %d selected student(s) cannot be enrolled in %s:\n",
			len(prompt.Rejected), prompt.Requested, prompt.ClassName)
		for _, r := range prompt.Rejected {
			fmt.Fprintf(cli.out, "  %s: %s\n", r.ID, reasonText(r.Reason))
		}
		if cli.assumeYes {
			return true, nil
		}

		fmt.Fprintf(cli.out, "Enroll the remaining %d student(s)? [y/N] ", len(prompt.Accepted))
		line, err := cli.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	})
}

func splitIDs(raw string) []dto.ID {
	parts := strings.Split(raw, ",")
	ids := make([]dto.ID, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, dto.ID(trimmed))
		}
	}
	return ids
}

func reasonText(reason reconcile.Reason) string {
	switch reason {
	case reconcile.ReasonInvalidID:
		return "invalid id"
	case reconcile.ReasonDuplicate:
		return "listed more than once"
	case reconcile.ReasonUnknownStudent:
		return "not one of your students"
	case reconcile.ReasonNotOwned:
		return "owned by another teacher"
	case reconcile.ReasonAlreadyEnrolled:
		return "already enrolled"
	default:
		return string(reason)
	}
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		lines := make([]string, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			lines = append(lines, f.Message)
		}
		return strings.Join(lines, "; ")
	case errors.Is(err, app.ErrAuthRequired), gateway.IsAuth(err):
		return err.Error() + " (run: classpilot login -email EMAIL)"
	default:
		return err.Error()
	}
}
