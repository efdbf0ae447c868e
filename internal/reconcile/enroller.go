package reconcile

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/observability"
	"github.com/noah-isme/classpilot-go/internal/store"
)

// SessionSource exposes the signed-in session.
type SessionSource interface {
	Snapshot() store.Session
}

// ClassStore is the slice of the class store used while enrolling.
type ClassStore interface {
	Lookup(id dto.ID) (dto.Class, bool)
	Get(ctx context.Context, id dto.ID) (dto.Class, error)
	Fetch(ctx context.Context) ([]dto.Class, error)
	Enroll(ctx context.Context, classID dto.ID, studentIDs []dto.ID) (dto.Class, error)
	RemoveStudent(ctx context.Context, classID, studentID dto.ID) error
}

// StudentStore is the slice of the student store used while enrolling.
type StudentStore interface {
	Fetch(ctx context.Context) ([]dto.Student, error)
}

var (
	_ ClassStore   = (*store.ClassStore)(nil)
	_ StudentStore = (*store.StudentStore)(nil)
)

// Prompt describes a batch that shrank during reconciliation.
type Prompt struct {
	ClassID   dto.ID
	ClassName string
	Requested int
	Accepted  []dto.ID
	Rejected  []Rejection
}

// Confirmer decides whether a reduced batch should still be submitted.
type Confirmer interface {
	Confirm(ctx context.Context, prompt Prompt) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt Prompt) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt Prompt) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm accepts every reduced batch.
var AlwaysConfirm = ConfirmFunc(func(context.Context, Prompt) (bool, error) { return true, nil })

// Outcome reports a committed enrollment.
type Outcome struct {
	Class    dto.Class
	Enrolled []dto.ID
	Skipped  []Rejection
}

// Enroller runs the guarded enrollment workflow.
type Enroller struct {
	session   SessionSource
	classes   ClassStore
	students  StudentStore
	confirmer Confirmer
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewEnroller wires the workflow to the stores. A nil confirmer accepts
// reduced batches.
func NewEnroller(session SessionSource, classes ClassStore, students StudentStore, confirmer Confirmer, logger zerolog.Logger) *Enroller {
	if confirmer == nil {
		confirmer = AlwaysConfirm
	}
	return &Enroller{
		session:   session,
		classes:   classes,
		students:  students,
		confirmer: confirmer,
		tracer:    otel.Tracer("github.com/noah-isme/classpilot-go/internal/reconcile"),
		logger:    logger.With().Str("component", "enroller").Logger(),
	}
}

// Enroll adds the candidates to a class. The batch is checked locally, then
// against freshly fetched class and student data, and only the surviving ids
// are submitted in one request.
func (e *Enroller) Enroll(ctx context.Context, classID dto.ID, candidates []dto.ID) (outcome Outcome, err error) {
	ctx, span := e.tracer.Start(ctx, "reconcile.Enroll", trace.WithAttributes(
		attribute.String("class_id", classID.String()),
		attribute.Int("candidates", len(candidates)),
	))
	defer span.End()
	defer func() {
		observability.EnrollmentOutcomes().WithLabelValues(outcomeLabel(err)).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	session, class, err := e.guard(classID, candidates)
	if err != nil {
		return Outcome{}, err
	}
	classID = class.ID
	logger := e.logger.With().Str("class_id", classID.String()).Logger()

	if len(pending(candidates, class.Students)) == 0 {
		logger.Debug().Msg("every candidate is already enrolled")
		return Outcome{}, ErrNothingLeftToEnroll
	}

	fresh, students, err := e.refresh(ctx, classID)
	if err != nil {
		return Outcome{}, wrapFailure("enroll", classID, err)
	}

	result := Reconcile(candidates, fresh.Students, students, session.UserID)
	span.SetAttributes(attribute.Int("accepted", len(result.Accepted)), attribute.Int("rejected", len(result.Rejected)))
	if result.Empty() {
		return Outcome{}, ErrNothingLeftToEnroll
	}

	if result.Reduced() {
		ok, err := e.confirmer.Confirm(ctx, Prompt{
			ClassID:   classID,
			ClassName: fresh.Name,
			Requested: len(candidates),
			Accepted:  append([]dto.ID(nil), result.Accepted...),
			Rejected:  append([]Rejection(nil), result.Rejected...),
		})
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			return Outcome{}, ErrAborted
		}
	}

	if fresh.ID != classID {
		return Outcome{}, ErrClassUnavailable
	}
	if !fresh.OwnedBy(session.UserID) {
		return Outcome{}, ErrNotClassOwner
	}
	if fresh.Capacity != nil && fresh.StudentCount()+len(result.Accepted) > *fresh.Capacity {
		logger.Warn().
			Int("capacity", *fresh.Capacity).
			Int("student_count", fresh.StudentCount()).
			Int("submitting", len(result.Accepted)).
			Msg("batch exceeds class capacity, server decides")
	}

	updated, err := e.classes.Enroll(ctx, classID, result.Accepted)
	if err != nil {
		if _, getErr := e.classes.Get(ctx, classID); getErr != nil {
			logger.Debug().Err(getErr).Msg("class refresh after failed enrollment failed")
		}
		return Outcome{}, wrapFailure("enroll", classID, err)
	}

	logger.Info().Int("enrolled", len(result.Accepted)).Int("skipped", len(result.Rejected)).Msg("enrollment committed")
	return Outcome{Class: updated, Enrolled: result.Accepted, Skipped: result.Rejected}, nil
}

// Remove takes one student off a class roster and refreshes the class list.
func (e *Enroller) Remove(ctx context.Context, classID, studentID dto.ID) (err error) {
	ctx, span := e.tracer.Start(ctx, "reconcile.Remove", trace.WithAttributes(
		attribute.String("class_id", classID.String()),
		attribute.String("student_id", studentID.String()),
	))
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	session := e.session.Snapshot()
	if !session.Authenticated {
		return ErrNotAuthenticated
	}
	id, ok := dto.NormalizeID(classID.String())
	if !ok {
		return ErrClassUnavailable
	}
	class, ok := e.classes.Lookup(id)
	if !ok {
		return ErrClassUnavailable
	}
	if !class.OwnedBy(session.UserID) {
		return ErrNotClassOwner
	}
	sid, ok := dto.NormalizeID(studentID.String())
	if !ok || !class.HasStudent(sid) {
		return ErrNotEnrolled
	}

	if err := e.classes.RemoveStudent(ctx, id, sid); err != nil {
		return wrapFailure("remove", id, err)
	}
	if _, err := e.classes.Fetch(ctx); err != nil {
		e.logger.Warn().Err(err).Str("class_id", id.String()).Msg("class list refresh after removal failed")
	}
	return nil
}

func (e *Enroller) guard(classID dto.ID, candidates []dto.ID) (store.Session, dto.Class, error) {
	if len(candidates) == 0 {
		return store.Session{}, dto.Class{}, ErrNoCandidates
	}
	session := e.session.Snapshot()
	if !session.Authenticated || !session.UserID.Valid() {
		return store.Session{}, dto.Class{}, ErrNotAuthenticated
	}
	id, ok := dto.NormalizeID(classID.String())
	if !ok {
		return store.Session{}, dto.Class{}, ErrClassUnavailable
	}
	class, ok := e.classes.Lookup(id)
	if !ok {
		return store.Session{}, dto.Class{}, ErrClassUnavailable
	}
	if !class.OwnedBy(session.UserID) {
		return store.Session{}, dto.Class{}, ErrNotClassOwner
	}
	return session, class, nil
}

// refresh fetches the class and the student list concurrently.
func (e *Enroller) refresh(ctx context.Context, classID dto.ID) (dto.Class, []dto.Student, error) {
	var (
		class    dto.Class
		students []dto.Student
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		class, err = e.classes.Get(gctx, classID)
		return err
	})
	g.Go(func() error {
		var err error
		students, err = e.students.Fetch(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return dto.Class{}, nil, err
	}
	return class, students, nil
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "enrolled"
	case errors.Is(err, ErrNothingLeftToEnroll):
		return "nothing_left"
	case errors.Is(err, ErrAborted):
		return "aborted"
	case errors.Is(err, ErrNoCandidates), errors.Is(err, ErrNotAuthenticated),
		errors.Is(err, ErrClassUnavailable), errors.Is(err, ErrNotClassOwner):
		return "rejected"
	default:
		return "failed"
	}
}
