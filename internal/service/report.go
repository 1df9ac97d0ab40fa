package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"attendance-service/api"
	"attendance-service/internal/calendar"
	"attendance-service/internal/models"
	"attendance-service/internal/resolver"
)

// AttendanceReport emits one row per (student, day) over the window. Every
// calendar date is included; weekends and holidays are ordinary rows here,
// unlike the statistics denominators. An empty window defaults to today.
func (s *Service) AttendanceReport(ctx context.Context, q *api.ReportQuery) ([]api.ReportRow, error) {
	const op = "service.AttendanceReport"

	start, end, err := parseWindow(q.StartDate, q.EndDate, today(), today())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if end.Before(start) {
		return []api.ReportRow{}, nil
	}

	cacheKey := fmt.Sprintf("reports:attendance:%s:%s:%v:%v:%v",
		start.Format(calendar.DateFormat), end.Format(calendar.DateFormat),
		q.ClassIDs, q.Grades, q.Statuses)

	var cached []api.ReportRow
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	// The resolver only honors approved and pending requests, so rejected
	// ones are not even fetched here.
	snap, err := s.loadSnapshot(ctx,
		scopeFilter(q.ClassIDs, q.Grades),
		start, end,
		[]models.LeaveRequestStatus{models.LeaveApproved, models.LeavePending},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows := make([]api.ReportRow, 0)

	forEachDisposition(snap, start, end, func(st *models.Student, enr *models.Enrollment, date time.Time, d resolver.Disposition) {
		rows = append(rows, api.ReportRow{
			ID:            d.SourceID,
			Date:          date.Format(calendar.DateFormat),
			Grade:         enr.GradeName,
			ClassName:     enr.ClassName,
			StudentName:   st.Name,
			Status:        string(d.Status),
			LeaveTypeName: optional(d.LeaveTypeName),
			LeaveStatus:   optional(string(d.LeaveStatus)),
			Note:          optional(d.Note),
		})
	})

	if len(q.Statuses) > 0 {
		want := make(map[string]struct{}, len(q.Statuses))
		for _, st := range q.Statuses {
			want[st] = struct{}{}
		}

		filtered := rows[:0]
		for _, row := range rows {
			if _, ok := want[row.Status]; ok {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date > rows[j].Date
	})

	s.cacheSet(ctx, cacheKey, rows)

	return rows, nil
}

// PendingLeavesReport lists unprocessed leave requests, oldest first,
// optionally split by how long they have been waiting.
func (s *Service) PendingLeavesReport(ctx context.Context, q *api.PendingLeavesQuery) ([]api.PendingLeaveRow, error) {
	const op = "service.PendingLeavesReport"

	var studentIDs []int64
	if len(q.ClassIDs) > 0 || len(q.Grades) > 0 {
		students, err := s.store.ListStudents(ctx, scopeFilter(q.ClassIDs, q.Grades))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if len(students) == 0 {
			return []api.PendingLeaveRow{}, nil
		}
		for _, st := range students {
			studentIDs = append(studentIDs, st.ID)
		}
	}

	leaves, err := s.store.ListLeaveRequests(ctx, studentIDs, nil, nil,
		[]models.LeaveRequestStatus{models.LeavePending})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cutoff := today().AddDate(0, 0, -3)

	rows := make([]api.PendingLeaveRow, 0, len(leaves))
	for _, lr := range leaves {
		switch q.AgeFilter {
		case "within_3_days":
			if lr.CreatedAt.Before(cutoff) {
				continue
			}
		case "over_3_days":
			if !lr.CreatedAt.Before(cutoff) {
				continue
			}
		}

		_, isFullDay := lr.Span.(models.FullDay)

		rows = append(rows, api.PendingLeaveRow{
			ID:            lr.ID,
			StudentID:     lr.StudentID,
			StudentName:   lr.StudentName,
			LeaveTypeName: lr.LeaveTypeName,
			StartDate:     calendar.Normalize(lr.StartDate).Format(calendar.DateFormat),
			EndDate:       calendar.Normalize(lr.EndDate).Format(calendar.DateFormat),
			IsFullDay:     isFullDay,
			Reason:        lr.Reason,
			CreatedAt:     lr.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	// Store returns requests ordered by creation time ascending already.
	return rows, nil
}

// UnresolvedAbsencesReport lists absent overrides awaiting follow-up. An
// absence covered by a leave request of any status already has an explanation
// on file and is excluded. An empty window defaults to the current month.
func (s *Service) UnresolvedAbsencesReport(ctx context.Context, q *api.UnresolvedAbsencesQuery) ([]api.UnresolvedAbsenceRow, error) {
	const op = "service.UnresolvedAbsencesReport"

	defStart, defEnd := currentMonth()
	start, end, err := parseWindow(q.StartDate, q.EndDate, defStart, defEnd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if end.Before(start) {
		return []api.UnresolvedAbsenceRow{}, nil
	}

	students, err := s.store.ListStudents(ctx, scopeFilter(q.ClassIDs, q.Grades))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(students) == 0 {
		return []api.UnresolvedAbsenceRow{}, nil
	}

	ids := make([]int64, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}

	records, err := s.store.ListAttendanceRecords(ctx, ids, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	leaves, err := s.store.ListLeaveRequests(ctx, ids, &start, &end, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	leavesByStudent := make(map[int64][]*models.LeaveRequest)
	for _, lr := range leaves {
		leavesByStudent[lr.StudentID] = append(leavesByStudent[lr.StudentID], lr)
	}

	rows := make([]api.UnresolvedAbsenceRow, 0)
	for _, rec := range records {
		if rec.Status != models.StatusAbsent {
			continue
		}

		if leaveCovers(leavesByStudent[rec.StudentID], calendar.Normalize(rec.Date)) {
			continue
		}

		rows = append(rows, api.UnresolvedAbsenceRow{
			ID:          rec.ID,
			Date:        calendar.Normalize(rec.Date).Format(calendar.DateFormat),
			StudentID:   rec.StudentID,
			StudentName: rec.StudentName,
			ClassID:     rec.ClassID,
			ClassName:   rec.ClassName,
			Note:        rec.Note,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date > rows[j].Date
		}
		return rows[i].StudentID < rows[j].StudentID
	})

	return rows, nil
}

// leaveCovers reports whether any request spans the date, regardless of the
// request's status.
func leaveCovers(leaves []*models.LeaveRequest, date time.Time) bool {
	for _, lr := range leaves {
		if !date.Before(calendar.Normalize(lr.StartDate)) && !date.After(calendar.Normalize(lr.EndDate)) {
			return true
		}
	}
	return false
}
