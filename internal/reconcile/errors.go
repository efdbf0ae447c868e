package reconcile

import (
	"errors"

	"github.com/noah-isme/classpilot-go/internal/dto"
	"github.com/noah-isme/classpilot-go/internal/gateway"
)

var (
	// ErrNoCandidates is returned when the batch is empty.
	ErrNoCandidates = errors.New("select at least one student to enroll")
	// ErrNotAuthenticated is returned when no user is signed in.
	ErrNotAuthenticated = errors.New("you must be logged in to manage enrollments")
	// ErrClassUnavailable is returned when the target class is not loaded.
	ErrClassUnavailable = errors.New("class is not available")
	// ErrNotClassOwner is returned when the class belongs to another teacher.
	ErrNotClassOwner = errors.New("you can only manage enrollments for your own classes")
	// ErrNothingLeftToEnroll is returned when every candidate was filtered out.
	ErrNothingLeftToEnroll = errors.New("nothing left to enroll")
	// ErrAborted is returned when the user declines a reduced batch.
	ErrAborted = errors.New("enrollment cancelled")
	// ErrNotEnrolled is returned when removing a student that is not on the roster.
	ErrNotEnrolled = errors.New("student is not enrolled in this class")
)

// EnrollError wraps a failed request made while enrolling or removing
// students. Its message is the user-facing text extracted from the server
// response.
type EnrollError struct {
	Op      string
	ClassID dto.ID
	Message string
	Err     error
}

func (e *EnrollError) Error() string {
	return e.Message
}

func (e *EnrollError) Unwrap() error {
	return e.Err
}

func wrapFailure(op string, classID dto.ID, err error) error {
	if err == nil {
		return nil
	}
	return &EnrollError{
		Op:      op,
		ClassID: classID,
		Message: gateway.FriendlyMessage(err.Error()),
		Err:     err,
	}
}
