package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"attendance-service/api"
	"attendance-service/internal/calendar"
	"attendance-service/internal/ledger"
	"attendance-service/internal/models"
	"attendance-service/internal/resolver"
)

// statusTally counts resolved dispositions by status.
type statusTally struct {
	present    int
	absent     int
	late       int
	leaveEarly int
	onLeave    int
}

func (t *statusTally) add(status models.AttendanceStatus) {
	switch status {
	case models.StatusPresent:
		t.present++
	case models.StatusAbsent:
		t.absent++
	case models.StatusLate:
		t.late++
	case models.StatusLeaveEarly:
		t.leaveEarly++
	case models.StatusOnLeave:
		t.onLeave++
	}
}

func (t *statusTally) total() int {
	return t.present + t.absent + t.late + t.leaveEarly + t.onLeave
}

func (t *statusTally) toStats() api.AttendanceStatistics {
	total := t.total()

	rate := 0.0
	if total > 0 {
		rate = round2(float64(t.present) / float64(total) * 100)
	}

	return api.AttendanceStatistics{
		TotalDays:      total,
		PresentDays:    t.present,
		AbsentDays:     t.absent,
		LateDays:       t.late,
		LeaveEarlyDays: t.leaveEarly,
		OnLeaveDays:    t.onLeave,
		AttendanceRate: rate,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LeaveStatisticsReport builds the per-student leave ledger rows over the
// window. Leave requests of every status contribute; raw late/early/absent
// counters and the TotalDays denominator are school-day based.
func (s *Service) LeaveStatisticsReport(ctx context.Context, q *api.StatisticsReportQuery) ([]api.StatisticsReportRow, error) {
	const op = "service.LeaveStatisticsReport"

	defStart, defEnd := currentMonth()
	start, end, err := parseWindow(q.StartDate, q.EndDate, defStart, defEnd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if end.Before(start) {
		return []api.StatisticsReportRow{}, nil
	}

	studentKey := "all"
	if q.StudentID != nil {
		studentKey = fmt.Sprintf("%d", *q.StudentID)
	}

	cacheKey := fmt.Sprintf("statistics:report:%s:%s:%s:%v",
		start.Format(calendar.DateFormat), end.Format(calendar.DateFormat),
		studentKey, q.Grades)

	var cached []api.StatisticsReportRow
	if s.cacheGet(ctx, cacheKey, &cached) {
		return cached, nil
	}

	// Every status matters for the ledger, so no status restriction here.
	snap, err := s.loadSnapshot(ctx,
		StudentFilter{StudentID: q.StudentID, GradeIDs: q.Grades},
		start, end, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows := make([]api.StatisticsReportRow, 0, len(snap.students))

	for _, st := range snap.students {
		enr := enrollmentForYear(st, start.Year())
		if enr == nil && len(st.Enrollments) > 0 {
			enr = &st.Enrollments[0]
		}
		if enr == nil {
			continue
		}

		totals := ledger.Aggregate(start, end, snap.leaves[st.ID], snap.overrides[st.ID], snap.holidays)

		leaveDayEquiv := 0.0
		counts := make(map[string]api.LeaveStatusBuckets, len(totals.ByLeaveType))
		for name, sb := range totals.ByLeaveType {
			leaveDayEquiv += float64(sb.Total.Days) + sb.Total.Hours/ledger.StandardDayHours
			counts[name] = api.LeaveStatusBuckets{
				Approved: api.LeaveBucket{Days: sb.Approved.Days, Hours: sb.Approved.Hours},
				Pending:  api.LeaveBucket{Days: sb.Pending.Days, Hours: sb.Pending.Hours},
				Rejected: api.LeaveBucket{Days: sb.Rejected.Days, Hours: sb.Rejected.Hours},
				Total:    api.LeaveBucket{Days: sb.Total.Days, Hours: sb.Total.Hours},
			}
		}

		rate := 0.0
		if totals.TotalDays > 0 {
			rate = (float64(totals.TotalDays-totals.AbsentDays) - leaveDayEquiv) / float64(totals.TotalDays)
			if rate < 0 {
				rate = 0
			}
		}

		rows = append(rows, api.StatisticsReportRow{
			StudentID:       st.ID,
			StudentName:     st.Name,
			Grade:           enr.GradeName,
			ClassName:       enr.ClassName,
			LeaveTypeCounts: counts,
			LateDays:        totals.LateDays,
			LeaveEarlyDays:  totals.LeaveEarlyDays,
			AbsentDays:      totals.AbsentDays,
			TotalDays:       totals.TotalDays,
			AttendanceRate:  round2(rate * 100),
		})
	}

	s.cacheSet(ctx, cacheKey, rows)

	return rows, nil
}

// AttendanceStatistics tallies resolved dispositions over the window for the
// filtered student subset. An empty window defaults to the current month.
func (s *Service) AttendanceStatistics(ctx context.Context, q *api.AttendanceStatsQuery) (*api.AttendanceStatistics, error) {
	const op = "service.AttendanceStatistics"

	snap, start, end, err := s.statsSnapshot(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var tally statusTally
	if !end.Before(start) {
		forEachDisposition(snap, start, end, func(_ *models.Student, _ *models.Enrollment, _ time.Time, d resolver.Disposition) {
			tally.add(d.Status)
		})
	}

	stats := tally.toStats()

	return &stats, nil
}

// AttendanceStatisticsByClass groups the window's dispositions by class.
func (s *Service) AttendanceStatisticsByClass(ctx context.Context, q *api.AttendanceStatsQuery) ([]api.ClassAttendanceStatistics, error) {
	const op = "service.AttendanceStatisticsByClass"

	snap, start, end, err := s.statsSnapshot(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tallies := make(map[int64]*statusTally)
	info := make(map[int64]*models.Enrollment)

	if !end.Before(start) {
		forEachDisposition(snap, start, end, func(_ *models.Student, enr *models.Enrollment, _ time.Time, d resolver.Disposition) {
			t, ok := tallies[enr.ClassID]
			if !ok {
				t = &statusTally{}
				tallies[enr.ClassID] = t
				info[enr.ClassID] = enr
			}
			t.add(d.Status)
		})
	}

	rows := make([]api.ClassAttendanceStatistics, 0, len(tallies))
	for classID, t := range tallies {
		enr := info[classID]
		rows = append(rows, api.ClassAttendanceStatistics{
			AttendanceStatistics: t.toStats(),
			ClassID:              classID,
			ClassName:            enr.ClassName,
			GradeID:              enr.GradeID,
			GradeName:            enr.GradeName,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].ClassID < rows[j].ClassID })

	return rows, nil
}

// AttendanceStatisticsByStudent groups the window's dispositions by student.
func (s *Service) AttendanceStatisticsByStudent(ctx context.Context, q *api.AttendanceStatsQuery) ([]api.StudentAttendanceStatistics, error) {
	const op = "service.AttendanceStatisticsByStudent"

	snap, start, end, err := s.statsSnapshot(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tallies := make(map[int64]*statusTally)
	names := make(map[int64]string)
	info := make(map[int64]*models.Enrollment)

	if !end.Before(start) {
		forEachDisposition(snap, start, end, func(st *models.Student, enr *models.Enrollment, _ time.Time, d resolver.Disposition) {
			t, ok := tallies[st.ID]
			if !ok {
				t = &statusTally{}
				tallies[st.ID] = t
				names[st.ID] = st.Name
				info[st.ID] = enr
			}
			t.add(d.Status)
		})
	}

	rows := make([]api.StudentAttendanceStatistics, 0, len(tallies))
	for studentID, t := range tallies {
		enr := info[studentID]
		rows = append(rows, api.StudentAttendanceStatistics{
			AttendanceStatistics: t.toStats(),
			StudentID:            studentID,
			StudentName:          names[studentID],
			ClassID:              enr.ClassID,
			ClassName:            enr.ClassName,
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].StudentID < rows[j].StudentID })

	return rows, nil
}

// AttendanceStatisticsByDate emits one row per calendar date of the window,
// including dates with no in-scope students.
func (s *Service) AttendanceStatisticsByDate(ctx context.Context, q *api.AttendanceStatsQuery) ([]api.DateAttendanceStatistics, error) {
	const op = "service.AttendanceStatisticsByDate"

	snap, start, end, err := s.statsSnapshot(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if end.Before(start) {
		return []api.DateAttendanceStatistics{}, nil
	}

	tallies := make(map[string]*statusTally)
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(calendar.DateFormat)
		dates = append(dates, key)
		tallies[key] = &statusTally{}
	}

	forEachDisposition(snap, start, end, func(_ *models.Student, _ *models.Enrollment, date time.Time, d resolver.Disposition) {
		tallies[date.Format(calendar.DateFormat)].add(d.Status)
	})

	rows := make([]api.DateAttendanceStatistics, 0, len(dates))
	for _, key := range dates {
		t := tallies[key]
		total := t.total()

		rate := 0.0
		if total > 0 {
			rate = round2(float64(t.present) / float64(total) * 100)
		}

		rows = append(rows, api.DateAttendanceStatistics{
			Date:            key,
			TotalStudents:   total,
			PresentCount:    t.present,
			AbsentCount:     t.absent,
			LateCount:       t.late,
			LeaveEarlyCount: t.leaveEarly,
			OnLeaveCount:    t.onLeave,
			AttendanceRate:  rate,
		})
	}

	return rows, nil
}

// statsSnapshot parses the statistics window and loads the shared snapshot
// for the disposition-based variants.
func (s *Service) statsSnapshot(ctx context.Context, q *api.AttendanceStatsQuery) (*snapshot, time.Time, time.Time, error) {
	defStart, defEnd := currentMonth()
	start, end, err := parseWindow(q.StartDate, q.EndDate, defStart, defEnd)
	if err != nil {
		return nil, start, end, err
	}

	var classIDs []int64
	if q.ClassID != nil {
		classIDs = []int64{*q.ClassID}
	}

	if end.Before(start) {
		// Nothing to fetch for an inverted window.
		return &snapshot{
			ix:        resolver.NewIndex(nil, nil),
			leaves:    map[int64][]*models.LeaveRequest{},
			overrides: map[int64][]*models.AttendanceRecord{},
			holidays:  calendar.HolidaySet{},
		}, start, end, nil
	}

	snap, err := s.loadSnapshot(ctx,
		StudentFilter{StudentID: q.StudentID, ClassIDs: classIDs},
		start, end,
		[]models.LeaveRequestStatus{models.LeaveApproved, models.LeavePending},
	)
	if err != nil {
		return nil, start, end, err
	}

	return snap, start, end, nil
}
