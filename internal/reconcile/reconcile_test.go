package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classpilot-go/internal/dto"
)

func TestReconcileFiltersCandidates(t *testing.T) {
	students := []dto.Student{
		{ID: "s1", TeacherID: "t1"},
		{ID: "s2", TeacherID: "t1"},
		{ID: "s3", TeacherID: "t2"},
		{ID: "42", TeacherID: "t1"},
	}
	roster := []dto.EnrolledStudent{{ID: "s2"}}

	result := Reconcile(
		[]dto.ID{"s1", " s1 ", "undefined", "", "s2", "s3", "ghost", "42"},
		roster, students, "t1",
	)

	require.Equal(t, []dto.ID{"s1", "42"}, result.Accepted)
	require.Equal(t, []Rejection{
		{ID: "s1", Reason: ReasonDuplicate},
		{ID: "undefined", Reason: ReasonInvalidID},
		{ID: "", Reason: ReasonInvalidID},
		{ID: "s2", Reason: ReasonAlreadyEnrolled},
		{ID: "s3", Reason: ReasonNotOwned},
		{ID: "ghost", Reason: ReasonUnknownStudent},
	}, result.Rejected)
	require.True(t, result.Reduced())
	require.False(t, result.Empty())
	require.Equal(t, 2, result.Count(ReasonInvalidID))
}

func TestReconcileUnchangedStateIsIdempotent(t *testing.T) {
	students := []dto.Student{{ID: "s1", TeacherID: "t1"}, {ID: "s2", TeacherID: "t1"}}

	first := Reconcile([]dto.ID{"s1", "s2"}, nil, students, "t1")
	require.Equal(t, []dto.ID{"s1", "s2"}, first.Accepted)

	roster := []dto.EnrolledStudent{{ID: "s1"}, {ID: "s2"}}
	second := Reconcile([]dto.ID{"s1", "s2"}, roster, students, "t1")
	require.True(t, second.Empty())
	require.Equal(t, 2, second.Count(ReasonAlreadyEnrolled))
}

func TestReconcileRequiresOwner(t *testing.T) {
	students := []dto.Student{{ID: "s1", TeacherID: "t1"}}
	result := Reconcile([]dto.ID{"s1"}, nil, students, "")
	require.True(t, result.Empty())
	require.Equal(t, 1, result.Count(ReasonNotOwned))
}
