package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"attendance-service/internal/calendar"
	"attendance-service/internal/models"
)

// fakeStore serves pre-loaded snapshots, applying the same filters the real
// storage would.
type fakeStore struct {
	students []*models.Student
	records  []*models.AttendanceRecord
	leaves   []*models.LeaveRequest
	holidays []*models.Holiday
}

func (f *fakeStore) ListStudents(_ context.Context, filter StudentFilter) ([]*models.Student, error) {
	var out []*models.Student
	for _, st := range f.students {
		if filter.StudentID != nil && st.ID != *filter.StudentID {
			continue
		}
		if len(filter.ClassIDs) > 0 && !enrolledIn(st, filter.ClassIDs, func(e models.Enrollment) int64 { return e.ClassID }) {
			continue
		}
		if len(filter.GradeIDs) > 0 && !enrolledIn(st, filter.GradeIDs, func(e models.Enrollment) int64 { return e.GradeID }) {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}

func enrolledIn(st *models.Student, ids []int64, key func(models.Enrollment) int64) bool {
	for _, enr := range st.Enrollments {
		for _, id := range ids {
			if key(enr) == id {
				return true
			}
		}
	}
	return false
}

func (f *fakeStore) ListAttendanceRecords(_ context.Context, studentIDs []int64, from, to time.Time) ([]*models.AttendanceRecord, error) {
	idSet := toSet(studentIDs)
	var out []*models.AttendanceRecord
	for _, rec := range f.records {
		if _, ok := idSet[rec.StudentID]; !ok {
			continue
		}
		d := calendar.Normalize(rec.Date)
		if d.Before(calendar.Normalize(from)) || d.After(calendar.Normalize(to)) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeStore) ListLeaveRequests(_ context.Context, studentIDs []int64, from, to *time.Time, statuses []models.LeaveRequestStatus) ([]*models.LeaveRequest, error) {
	idSet := toSet(studentIDs)
	var out []*models.LeaveRequest
	for _, lr := range f.leaves {
		if len(studentIDs) > 0 {
			if _, ok := idSet[lr.StudentID]; !ok {
				continue
			}
		}
		if from != nil && to != nil {
			if lr.StartDate.After(*to) || lr.EndDate.Before(*from) {
				continue
			}
		}
		if len(statuses) > 0 && !statusIn(lr.Status, statuses) {
			continue
		}
		out = append(out, lr)
	}
	return out, nil
}

func statusIn(status models.LeaveRequestStatus, statuses []models.LeaveRequestStatus) bool {
	for _, st := range statuses {
		if st == status {
			return true
		}
	}
	return false
}

func (f *fakeStore) ListHolidays(_ context.Context, from, to time.Time) ([]*models.Holiday, error) {
	var out []*models.Holiday
	for _, h := range f.holidays {
		d := calendar.Normalize(h.Date)
		if d.Before(calendar.Normalize(from)) || d.After(calendar.Normalize(to)) {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func newTestService(store Store) *Service {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewService(log, store, nil, 0)
}

func date(s string) time.Time {
	t, err := time.Parse(calendar.DateFormat, s)
	if err != nil {
		panic(err)
	}
	return t
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

// testStudent builds a student enrolled in class 1 ("1A", grade "One") for
// the 2025 school year.
func testStudent(id int64, name string) *models.Student {
	return &models.Student{
		ID:   id,
		Name: name,
		Enrollments: []models.Enrollment{
			{StudentID: id, ClassID: 1, ClassName: "1A", GradeID: 1, GradeName: "One", SchoolYear: 2025},
		},
	}
}
