package resolver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"attendance-service/internal/calendar"
	"attendance-service/internal/models"
)

func date(s string) time.Time {
	t, err := time.Parse(calendar.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

func strPtr(s string) *string { return &s }

func TestResolve_DefaultPresent(t *testing.T) {
	ix := NewIndex(nil, nil)

	d := ix.Resolve(7, date("2025-06-02"))

	assert.Equal(t, models.StatusPresent, d.Status)
	assert.Empty(t, d.LeaveTypeName)
	assert.Empty(t, d.LeaveStatus)
	assert.Equal(t, "virtual-7-1748822400000", d.SourceID)
}

func TestResolve_OverrideAdopted(t *testing.T) {
	ix := NewIndex([]*models.AttendanceRecord{
		{
			ID:        41,
			StudentID: 7,
			Date:      date("2025-06-02"),
			Status:    models.StatusLate,
			Note:      strPtr("overslept"),
		},
	}, nil)

	d := ix.Resolve(7, date("2025-06-02"))

	assert.Equal(t, models.StatusLate, d.Status)
	assert.Equal(t, "overslept", d.Note)
	assert.Equal(t, "att-41", d.SourceID)

	// Other students and other days are unaffected.
	assert.Equal(t, models.StatusPresent, ix.Resolve(8, date("2025-06-02")).Status)
	assert.Equal(t, models.StatusPresent, ix.Resolve(7, date("2025-06-03")).Status)
}

func TestResolve_OnLeaveOverrideCarriesLeaveType(t *testing.T) {
	ix := NewIndex([]*models.AttendanceRecord{
		{
			ID:            42,
			StudentID:     7,
			Date:          date("2025-06-02"),
			Status:        models.StatusOnLeave,
			LeaveTypeName: strPtr("Sick"),
		},
	}, nil)

	d := ix.Resolve(7, date("2025-06-02"))

	assert.Equal(t, models.StatusOnLeave, d.Status)
	assert.Equal(t, "Sick", d.LeaveTypeName)
	// No backing request, so the leave status stays empty.
	assert.Empty(t, d.LeaveStatus)
}

func TestResolve_LeaveRequestWinsOverOverride(t *testing.T) {
	ix := NewIndex(
		[]*models.AttendanceRecord{
			{ID: 41, StudentID: 7, Date: date("2025-06-02"), Status: models.StatusAbsent},
		},
		[]*models.LeaveRequest{
			{
				ID:            5,
				StudentID:     7,
				LeaveTypeName: "Sick",
				StartDate:     date("2025-06-01"),
				EndDate:       date("2025-06-03"),
				Status:        models.LeaveApproved,
				CreatedAt:     date("2025-05-30"),
			},
		},
	)

	d := ix.Resolve(7, date("2025-06-02"))

	assert.Equal(t, models.StatusOnLeave, d.Status)
	assert.Equal(t, "Sick", d.LeaveTypeName)
	assert.Equal(t, models.LeaveApproved, d.LeaveStatus)
	assert.Equal(t, "leave-5", d.SourceID)
}

func TestResolve_PendingLeaveCounts(t *testing.T) {
	ix := NewIndex(nil, []*models.LeaveRequest{
		{
			ID:            6,
			StudentID:     7,
			LeaveTypeName: "Personal",
			StartDate:     date("2025-06-02"),
			EndDate:       date("2025-06-02"),
			Status:        models.LeavePending,
			CreatedAt:     date("2025-06-01"),
		},
	})

	d := ix.Resolve(7, date("2025-06-02"))

	assert.Equal(t, models.StatusOnLeave, d.Status)
	assert.Equal(t, models.LeavePending, d.LeaveStatus)
}

func TestResolve_RejectedLeaveIgnored(t *testing.T) {
	ix := NewIndex(nil, []*models.LeaveRequest{
		{
			ID:            6,
			StudentID:     7,
			LeaveTypeName: "Personal",
			StartDate:     date("2025-06-02"),
			EndDate:       date("2025-06-02"),
			Status:        models.LeaveRejected,
			CreatedAt:     date("2025-06-01"),
		},
	})

	assert.Equal(t, models.StatusPresent, ix.Resolve(7, date("2025-06-02")).Status)
}

func TestResolve_OutsideLeaveRangeIgnored(t *testing.T) {
	ix := NewIndex(nil, []*models.LeaveRequest{
		{
			ID:            6,
			StudentID:     7,
			LeaveTypeName: "Personal",
			StartDate:     date("2025-06-02"),
			EndDate:       date("2025-06-04"),
			Status:        models.LeaveApproved,
			CreatedAt:     date("2025-06-01"),
		},
	})

	assert.Equal(t, models.StatusPresent, ix.Resolve(7, date("2025-06-05")).Status)
	assert.Equal(t, models.StatusPresent, ix.Resolve(7, date("2025-06-01")).Status)
	assert.Equal(t, models.StatusOnLeave, ix.Resolve(7, date("2025-06-04")).Status)
}

func TestResolve_OverlappingLeaves_NewestCreatedWins(t *testing.T) {
	older := &models.LeaveRequest{
		ID:            10,
		StudentID:     7,
		LeaveTypeName: "Sick",
		StartDate:     date("2025-06-01"),
		EndDate:       date("2025-06-05"),
		Status:        models.LeaveApproved,
		CreatedAt:     time.Date(2025, 5, 28, 9, 0, 0, 0, time.UTC),
	}
	newer := &models.LeaveRequest{
		ID:            11,
		StudentID:     7,
		LeaveTypeName: "Personal",
		StartDate:     date("2025-06-02"),
		EndDate:       date("2025-06-03"),
		Status:        models.LeavePending,
		CreatedAt:     time.Date(2025, 5, 29, 9, 0, 0, 0, time.UTC),
	}

	// Insertion order must not matter.
	for _, leaves := range [][]*models.LeaveRequest{
		{older, newer},
		{newer, older},
	} {
		ix := NewIndex(nil, leaves)

		// Stable across repeated evaluation.
		for i := 0; i < 3; i++ {
			d := ix.Resolve(7, date("2025-06-02"))
			assert.Equal(t, "leave-11", d.SourceID)
			assert.Equal(t, "Personal", d.LeaveTypeName)
			assert.Equal(t, models.LeavePending, d.LeaveStatus)
		}

		// Outside the newer request only the older one covers the date.
		d := ix.Resolve(7, date("2025-06-04"))
		assert.Equal(t, "leave-10", d.SourceID)
	}
}
