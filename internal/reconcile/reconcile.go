// Package reconcile validates a batch of enrollment candidates against
// fresh server state before it is submitted.
package reconcile

import (
	"github.com/noah-isme/classpilot-go/internal/dto"
)

// Reason explains why a candidate was left out of a batch.
type Reason string

// Rejection reasons, in the order they are checked.
const (
	ReasonInvalidID       Reason = "invalid_id"
	ReasonDuplicate       Reason = "duplicate"
	ReasonUnknownStudent  Reason = "unknown_student"
	ReasonNotOwned        Reason = "not_owned"
	ReasonAlreadyEnrolled Reason = "already_enrolled"
)

// Rejection is a candidate that will not be submitted.
type Rejection struct {
	ID     string
	Reason Reason
}

// Result splits a candidate batch into the ids to submit and the rest.
type Result struct {
	Accepted []dto.ID
	Rejected []Rejection
}

// Empty reports whether nothing is left to submit.
func (r Result) Empty() bool {
	return len(r.Accepted) == 0
}

// Reduced reports whether any candidate was dropped.
func (r Result) Reduced() bool {
	return len(r.Rejected) > 0
}

// Count returns the number of rejections with the given reason.
func (r Result) Count(reason Reason) int {
	n := 0
	for _, rej := range r.Rejected {
		if rej.Reason == reason {
			n++
		}
	}
	return n
}

// Reconcile keeps the candidates that name a known student owned by ownerID,
// are not on the roster and appear for the first time in the batch. The
// accepted ids are canonical and keep their input order.
func Reconcile(candidates []dto.ID, roster []dto.EnrolledStudent, students []dto.Student, ownerID dto.ID) Result {
	known := make(map[dto.ID]dto.Student, len(students))
	for _, s := range students {
		known[s.ID] = s
	}
	enrolled := make(dto.IDSet, len(roster))
	for _, entry := range roster {
		enrolled.Add(entry.ID)
	}

	result := Result{Accepted: make([]dto.ID, 0, len(candidates))}
	seen := make(dto.IDSet, len(candidates))
	for _, raw := range candidates {
		id, ok := dto.NormalizeID(raw.String())
		if !ok {
			result.Rejected = append(result.Rejected, Rejection{ID: raw.String(), Reason: ReasonInvalidID})
			continue
		}
		if seen.Has(id) {
			result.Rejected = append(result.Rejected, Rejection{ID: id.String(), Reason: ReasonDuplicate})
			continue
		}
		seen.Add(id)

		student, ok := known[id]
		switch {
		case !ok:
			result.Rejected = append(result.Rejected, Rejection{ID: id.String(), Reason: ReasonUnknownStudent})
		case !student.OwnedBy(ownerID):
			result.Rejected = append(result.Rejected, Rejection{ID: id.String(), Reason: ReasonNotOwned})
		case enrolled.Has(id):
			result.Rejected = append(result.Rejected, Rejection{ID: id.String(), Reason: ReasonAlreadyEnrolled})
		default:
			result.Accepted = append(result.Accepted, id)
		}
	}
	return result
}

// pending returns the valid candidates not on the roster, without consulting
// the student list.
func pending(candidates []dto.ID, roster []dto.EnrolledStudent) []dto.ID {
	enrolled := make(dto.IDSet, len(roster))
	for _, entry := range roster {
		enrolled.Add(entry.ID)
	}
	out := make([]dto.ID, 0, len(candidates))
	for _, raw := range candidates {
		if id, ok := dto.NormalizeID(raw.String()); ok && !enrolled.Has(id) {
			out = append(out, id)
		}
	}
	return out
}
