package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"attendance-service/internal/calendar"
	"attendance-service/internal/models"
	"attendance-service/internal/resolver"
	"attendance-service/pkg/response"
	"attendance-service/pkg/sl"
)

type Service struct {
	log      *slog.Logger
	store    Store
	cache    Cache
	cacheTTL time.Duration
}

func NewService(log *slog.Logger, store Store, cache Cache, cacheTTL time.Duration) *Service {
	return &Service{log: log, store: store, cache: cache, cacheTTL: cacheTTL}
}

// Store is the read-only persistence boundary. Every method is a batched
// fetch; the service never queries from inside a per-day or per-student loop.
type Store interface {
	ListStudents(ctx context.Context, filter StudentFilter) ([]*models.Student, error)
	ListAttendanceRecords(ctx context.Context, studentIDs []int64, from, to time.Time) ([]*models.AttendanceRecord, error)
	ListLeaveRequests(ctx context.Context, studentIDs []int64, from, to *time.Time, statuses []models.LeaveRequestStatus) ([]*models.LeaveRequest, error)
	ListHolidays(ctx context.Context, from, to time.Time) ([]*models.Holiday, error)
}

// Cache memoizes computed payloads for a short TTL. A nil Cache disables
// memoization; cache failures are logged and never fail a request.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type StudentFilter struct {
	StudentID *int64
	ClassIDs  []int64
	GradeIDs  []int64
}

// scopeFilter builds the class/grade scoping filter. The two parameters are
// alternatives, not a conjunction: class ids take precedence and grades apply
// only when no class ids are given.
func scopeFilter(classIDs, gradeIDs []int64) StudentFilter {
	if len(classIDs) > 0 {
		return StudentFilter{ClassIDs: classIDs}
	}
	return StudentFilter{GradeIDs: gradeIDs}
}

// snapshot bundles the pre-fetched, indexed inputs for one computation.
// Everything downstream operates on these in-memory structures only.
type snapshot struct {
	students  []*models.Student
	ix        *resolver.Index
	leaves    map[int64][]*models.LeaveRequest
	overrides map[int64][]*models.AttendanceRecord
	holidays  calendar.HolidaySet
}

// loadSnapshot performs all persistence reads for a window up front:
// students with enrollments, attendance overrides, leave requests (optionally
// restricted by status) and holidays.
func (s *Service) loadSnapshot(ctx context.Context, filter StudentFilter, start, end time.Time, leaveStatuses []models.LeaveRequestStatus) (*snapshot, error) {
	const op = "service.loadSnapshot"

	students, err := s.store.ListStudents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	snap := &snapshot{
		students:  students,
		ix:        resolver.NewIndex(nil, nil),
		leaves:    make(map[int64][]*models.LeaveRequest),
		overrides: make(map[int64][]*models.AttendanceRecord),
		holidays:  calendar.HolidaySet{},
	}

	if len(students) == 0 {
		return snap, nil
	}

	ids := make([]int64, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}

	records, err := s.store.ListAttendanceRecords(ctx, ids, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	leaves, err := s.store.ListLeaveRequests(ctx, ids, &start, &end, leaveStatuses)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	holidays, err := s.store.ListHolidays(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	snap.ix = resolver.NewIndex(records, leaves)
	snap.holidays = calendar.NewHolidaySet(holidays)

	for _, rec := range records {
		snap.overrides[rec.StudentID] = append(snap.overrides[rec.StudentID], rec)
	}
	for _, lr := range leaves {
		snap.leaves[lr.StudentID] = append(snap.leaves[lr.StudentID], lr)
	}

	return snap, nil
}

// forEachDisposition walks every date of the inclusive window and every
// student holding an enrollment for that date's calendar year, resolving each
// pair exactly once. Students without a matching enrollment are silently
// skipped for that date.
func forEachDisposition(snap *snapshot, start, end time.Time, fn func(st *models.Student, enr *models.Enrollment, date time.Time, d resolver.Disposition)) {
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		year := date.Year()
		for _, st := range snap.students {
			enr := enrollmentForYear(st, year)
			if enr == nil {
				continue
			}
			fn(st, enr, date, snap.ix.Resolve(st.ID, date))
		}
	}
}

func enrollmentForYear(st *models.Student, year int) *models.Enrollment {
	for i := range st.Enrollments {
		if st.Enrollments[i].SchoolYear == year {
			return &st.Enrollments[i]
		}
	}
	return nil
}

// parseWindow parses an inclusive date window, substituting defaults for
// empty bounds. Malformed dates are reported as bad requests; an inverted
// window is valid input and handled by the callers as an empty result.
func parseWindow(startStr, endStr string, defStart, defEnd time.Time) (time.Time, time.Time, error) {
	start := calendar.Normalize(defStart)
	end := calendar.Normalize(defEnd)

	if startStr != "" {
		parsed, err := time.Parse(calendar.DateFormat, startStr)
		if err != nil {
			return start, end, fmt.Errorf("invalid start_date: %w", response.ErrBadRequest)
		}
		start = parsed
	}

	if endStr != "" {
		parsed, err := time.Parse(calendar.DateFormat, endStr)
		if err != nil {
			return start, end, fmt.Errorf("invalid end_date: %w", response.ErrBadRequest)
		}
		end = parsed
	}

	return start, end, nil
}

func today() time.Time {
	return calendar.Normalize(time.Now().UTC())
}

func currentMonth() (time.Time, time.Time) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

func (s *Service) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}

	ok, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.log.Warn("Cache read failed", slog.String("key", key), sl.Err(err))
		return false
	}

	return ok
}

func (s *Service) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.log.Warn("Cache write failed", slog.String("key", key), sl.Err(err))
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
