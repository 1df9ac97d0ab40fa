package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-service/api"
	"attendance-service/internal/models"
)

func TestAttendanceReport_ApprovedLeaveOverWeekend(t *testing.T) {
	// 2025-06-01 is a Sunday. The report emits all three days as on_leave;
	// the ledger (tested separately) excludes the weekend.
	store := &fakeStore{
		students: []*models.Student{testStudent(7, "Alice")},
		leaves: []*models.LeaveRequest{
			{
				ID:            5,
				StudentID:     7,
				LeaveTypeName: "Sick",
				StartDate:     date("2025-06-01"),
				EndDate:       date("2025-06-03"),
				Span:          models.FullDay{},
				Status:        models.LeaveApproved,
				CreatedAt:     date("2025-05-30"),
			},
		},
	}

	rows, err := newTestService(store).AttendanceReport(context.Background(), &api.ReportQuery{
		StartDate: "2025-06-01",
		EndDate:   "2025-06-03",
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	for _, row := range rows {
		assert.Equal(t, "on_leave", row.Status)
		require.NotNil(t, row.LeaveTypeName)
		assert.Equal(t, "Sick", *row.LeaveTypeName)
		require.NotNil(t, row.LeaveStatus)
		assert.Equal(t, "approved", *row.LeaveStatus)
		assert.Equal(t, "leave-5", row.ID)
		assert.Equal(t, "Alice", row.StudentName)
		assert.Equal(t, "1A", row.ClassName)
		assert.Equal(t, "One", row.Grade)
	}

	// Sorted descending by date.
	assert.Equal(t, "2025-06-03", rows[0].Date)
	assert.Equal(t, "2025-06-01", rows[2].Date)
}

func TestAttendanceReport_HolidayStillEmitsPresentRow(t *testing.T) {
	store := &fakeStore{
		students: []*models.Student{testStudent(7, "Alice")},
		holidays: []*models.Holiday{{Date: date("2025-06-02"), SeasonID: 1}},
	}

	rows, err := newTestService(store).AttendanceReport(context.Background(), &api.ReportQuery{
		StartDate: "2025-06-02",
		EndDate:   "2025-06-02",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "present", rows[0].Status)
	assert.Nil(t, rows[0].LeaveTypeName)
	assert.Nil(t, rows[0].LeaveStatus)
}

func TestAttendanceReport_StableVirtualIDs(t *testing.T) {
	store := &fakeStore{students: []*models.Student{testStudent(7, "Alice")}}
	service := newTestService(store)

	q := &api.ReportQuery{StartDate: "2025-06-02", EndDate: "2025-06-02"}

	first, err := service.AttendanceReport(context.Background(), q)
	require.NoError(t, err)
	second, err := service.AttendanceReport(context.Background(), q)
	require.NoError(t, err)

	require.Len(t, first, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Contains(t, first[0].ID, "virtual-7-")
}

func TestAttendanceReport_OverrideRow(t *testing.T) {
	store := &fakeStore{
		students: []*models.Student{testStudent(7, "Alice")},
		records: []*models.AttendanceRecord{
			{
				ID:        41,
				StudentID: 7,
				Date:      date("2025-06-02"),
				Status:    models.StatusLate,
				Note:      strPtr("bus delay"),
			},
		},
	}

	rows, err := newTestService(store).AttendanceReport(context.Background(), &api.ReportQuery{
		StartDate: "2025-06-02",
		EndDate:   "2025-06-02",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "att-41", rows[0].ID)
	assert.Equal(t, "late", rows[0].Status)
	require.NotNil(t, rows[0].Note)
	assert.Equal(t, "bus delay", *rows[0].Note)
}

func TestAttendanceReport_StatusFilter(t *testing.T) {
	store := &fakeStore{
		students: []*models.Student{testStudent(7, "Alice"), testStudent(8, "Bob")},
		records: []*models.AttendanceRecord{
			{ID: 41, StudentID: 7, Date: date("2025-06-02"), Status: models.StatusAbsent},
		},
	}

	rows, err := newTestService(store).AttendanceReport(context.Background(), &api.ReportQuery{
		StartDate: "2025-06-02",
		EndDate:   "2025-06-03",
		Statuses:  []string{"absent"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "absent", rows[0].Status)
	assert.Equal(t, "Alice", rows[0].StudentName)
}

func TestAttendanceReport_MissingEnrollmentSkipsStudent(t *testing.T) {
	// Bob's only enrollment is for 2024, so 2025 dates have no row for him.
	bob := &models.Student{
		ID:   8,
		Name: "Bob",
		Enrollments: []models.Enrollment{
			{StudentID: 8, ClassID: 2, ClassName: "2B", GradeID: 2, GradeName: "Two", SchoolYear: 2024},
		},
	}
	store := &fakeStore{students: []*models.Student{testStudent(7, "Alice"), bob}}

	rows, err := newTestService(store).AttendanceReport(context.Background(), &api.ReportQuery{
		StartDate: "2025-06-02",
		EndDate:   "2025-06-02",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice", rows[0].StudentName)
}

func TestAttendanceReport_ClassFilterWinsOverGrades(t *testing.T) {
	// Class and grade scoping are alternatives: with class ids present, the
	// grade list is ignored rather than intersected.
	store := &fakeStore{students: []*models.Student{testStudent(7, "Alice")}}

	rows, err := newTestService(store).AttendanceReport(context.Background(), &api.ReportQuery{
		StartDate: "2025-06-02",
		EndDate:   "2025-06-02",
		ClassIDs:  []int64{1},
		Grades:    []int64{99},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alice", rows[0].StudentName)
}

func TestAttendanceReport_InvertedWindow(t *testing.T) {
	store := &fakeStore{students: []*models.Student{testStudent(7, "Alice")}}

	rows, err := newTestService(store).AttendanceReport(context.Background(), &api.ReportQuery{
		StartDate: "2025-06-05",
		EndDate:   "2025-06-02",
	})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAttendanceReport_BadDate(t *testing.T) {
	store := &fakeStore{students: []*models.Student{testStudent(7, "Alice")}}

	_, err := newTestService(store).AttendanceReport(context.Background(), &api.ReportQuery{
		StartDate: "06/02/2025",
		EndDate:   "2025-06-02",
	})
	assert.Error(t, err)
}

func TestPendingLeavesReport_AgeFilter(t *testing.T) {
	now := today()
	reason := "family trip"

	store := &fakeStore{
		students: []*models.Student{testStudent(7, "Alice")},
		leaves: []*models.LeaveRequest{
			{
				ID: 1, StudentID: 7, StudentName: "Alice", LeaveTypeName: "Personal",
				StartDate: date("2025-06-02"), EndDate: date("2025-06-03"),
				Span: models.FullDay{}, Status: models.LeavePending,
				Reason: &reason, CreatedAt: now.AddDate(0, 0, -1),
			},
			{
				ID: 2, StudentID: 7, StudentName: "Alice", LeaveTypeName: "Sick",
				StartDate: date("2025-06-04"), EndDate: date("2025-06-04"),
				Span: models.FullDay{}, Status: models.LeavePending,
				CreatedAt: now.AddDate(0, 0, -10),
			},
			{
				ID: 3, StudentID: 7, StudentName: "Alice", LeaveTypeName: "Sick",
				StartDate: date("2025-06-05"), EndDate: date("2025-06-05"),
				Span: models.FullDay{}, Status: models.LeaveApproved,
				CreatedAt: now,
			},
		},
	}
	service := newTestService(store)

	all, err := service.PendingLeavesReport(context.Background(), &api.PendingLeavesQuery{})
	require.NoError(t, err)
	require.Len(t, all, 2) // approved request excluded

	recent, err := service.PendingLeavesReport(context.Background(), &api.PendingLeavesQuery{AgeFilter: "within_3_days"})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, int64(1), recent[0].ID)
	assert.True(t, recent[0].IsFullDay)

	stale, err := service.PendingLeavesReport(context.Background(), &api.PendingLeavesQuery{AgeFilter: "over_3_days"})
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, int64(2), stale[0].ID)
}

func TestUnresolvedAbsencesReport(t *testing.T) {
	store := &fakeStore{
		students: []*models.Student{testStudent(7, "Alice")},
		records: []*models.AttendanceRecord{
			{ID: 1, StudentID: 7, StudentName: "Alice", ClassID: 1, ClassName: "1A",
				Date: date("2025-06-03"), Status: models.StatusAbsent, Note: strPtr("no call")},
			{ID: 2, StudentID: 7, StudentName: "Alice", ClassID: 1, ClassName: "1A",
				Date: date("2025-06-02"), Status: models.StatusAbsent},
			{ID: 3, StudentID: 7, StudentName: "Alice", ClassID: 1, ClassName: "1A",
				Date: date("2025-06-04"), Status: models.StatusLate},
		},
	}

	rows, err := newTestService(store).UnresolvedAbsencesReport(context.Background(), &api.UnresolvedAbsencesQuery{
		StartDate: "2025-06-01",
		EndDate:   "2025-06-30",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Newest first; the late record is not an absence.
	assert.Equal(t, "2025-06-03", rows[0].Date)
	assert.Equal(t, "2025-06-02", rows[1].Date)
	require.NotNil(t, rows[0].Note)
	assert.Equal(t, "no call", *rows[0].Note)
}

func TestUnresolvedAbsencesReport_CoveredAbsenceExcluded(t *testing.T) {
	// The first absence sits inside an approved request, the second inside a
	// rejected one. Either way an explanation is on file, so only the third,
	// uncovered absence is unresolved.
	store := &fakeStore{
		students: []*models.Student{testStudent(7, "Alice")},
		records: []*models.AttendanceRecord{
			{ID: 1, StudentID: 7, StudentName: "Alice", ClassID: 1, ClassName: "1A",
				Date: date("2025-06-03"), Status: models.StatusAbsent},
			{ID: 2, StudentID: 7, StudentName: "Alice", ClassID: 1, ClassName: "1A",
				Date: date("2025-06-10"), Status: models.StatusAbsent},
			{ID: 3, StudentID: 7, StudentName: "Alice", ClassID: 1, ClassName: "1A",
				Date: date("2025-06-12"), Status: models.StatusAbsent},
		},
		leaves: []*models.LeaveRequest{
			{
				ID: 5, StudentID: 7, LeaveTypeName: "Sick",
				StartDate: date("2025-06-02"), EndDate: date("2025-06-04"),
				Span: models.FullDay{}, Status: models.LeaveApproved,
				CreatedAt: date("2025-06-01"),
			},
			{
				ID: 6, StudentID: 7, LeaveTypeName: "Personal",
				StartDate: date("2025-06-10"), EndDate: date("2025-06-10"),
				Span: models.FullDay{}, Status: models.LeaveRejected,
				CreatedAt: date("2025-06-09"),
			},
		},
	}

	rows, err := newTestService(store).UnresolvedAbsencesReport(context.Background(), &api.UnresolvedAbsencesQuery{
		StartDate: "2025-06-01",
		EndDate:   "2025-06-30",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0].ID)
	assert.Equal(t, "2025-06-12", rows[0].Date)
}

func TestClassRollCall(t *testing.T) {
	store := &fakeStore{
		students: []*models.Student{testStudent(7, "Alice"), testStudent(8, "Bob"), testStudent(9, "Cara")},
		records: []*models.AttendanceRecord{
			{ID: 1, StudentID: 8, Date: date("2025-06-02"), Status: models.StatusLate},
		},
		leaves: []*models.LeaveRequest{
			{
				ID: 5, StudentID: 9, LeaveTypeName: "Sick",
				StartDate: date("2025-06-01"), EndDate: date("2025-06-03"),
				Span: models.FullDay{}, Status: models.LeavePending,
				CreatedAt: date("2025-05-30"),
			},
		},
	}

	rows, err := newTestService(store).ClassRollCall(context.Background(), 1, "2025-06-02")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	byStudent := make(map[int64]string)
	for _, row := range rows {
		byStudent[row.StudentID] = row.Status
	}

	assert.Equal(t, "present", byStudent[7])
	assert.Equal(t, "late", byStudent[8])
	assert.Equal(t, "on_leave", byStudent[9])
}
