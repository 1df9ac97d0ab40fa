package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"attendance-service/internal/models"
	"attendance-service/internal/service"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// ListStudents returns students matching the filter together with all of
// their enrollments. Two batched queries, no per-student round trips.
func (s *Storage) ListStudents(ctx context.Context, filter service.StudentFilter) ([]*models.Student, error) {
	const op = "storage.postgres.ListStudents"

	where := []string{}
	args := []any{}

	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		where = append(where, fmt.Sprintf("s.id = $%d", len(args)))
	}
	if len(filter.ClassIDs) > 0 {
		args = append(args, pq.Array(filter.ClassIDs))
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM enrollments e WHERE e.student_id = s.id AND e.class_id = ANY($%d))", len(args)))
	}
	if len(filter.GradeIDs) > 0 {
		args = append(args, pq.Array(filter.GradeIDs))
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM enrollments e WHERE e.student_id = s.id AND e.grade_id = ANY($%d))", len(args)))
	}

	query := `SELECT s.id, s.name FROM students s`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY s.id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var students []*models.Student
	byID := make(map[int64]*models.Student)

	for rows.Next() {
		var st models.Student
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		students = append(students, &st)
		byID[st.ID] = &st
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(students) == 0 {
		return students, nil
	}

	ids := make([]int64, 0, len(students))
	for _, st := range students {
		ids = append(ids, st.ID)
	}

	enrRows, err := s.db.QueryContext(ctx, `
		SELECT e.student_id, e.class_id, c.name, e.grade_id, g.name, e.school_year
		FROM enrollments e
		JOIN classes c ON c.id = e.class_id
		JOIN grades g ON g.id = e.grade_id
		WHERE e.student_id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer enrRows.Close()

	for enrRows.Next() {
		var enr models.Enrollment
		if err := enrRows.Scan(&enr.StudentID, &enr.ClassID, &enr.ClassName, &enr.GradeID, &enr.GradeName, &enr.SchoolYear); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if st, ok := byID[enr.StudentID]; ok {
			st.Enrollments = append(st.Enrollments, enr)
		}
	}

	if err := enrRows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return students, nil
}

func (s *Storage) ListAttendanceRecords(ctx context.Context, studentIDs []int64, from, to time.Time) ([]*models.AttendanceRecord, error) {
	const op = "storage.postgres.ListAttendanceRecords"

	rows, err := s.db.QueryContext(ctx, `
		SELECT ar.id, ar.student_id, st.name, ar.class_id, c.name, ar.attendance_date, ar.status, ar.leave_type_id, lt.name, ar.note
		FROM attendance_records ar
		JOIN students st ON st.id = ar.student_id
		LEFT JOIN classes c ON c.id = ar.class_id
		LEFT JOIN leave_types lt ON lt.id = ar.leave_type_id
		WHERE ar.student_id = ANY($1) AND ar.attendance_date BETWEEN $2 AND $3`,
		pq.Array(studentIDs), from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var records []*models.AttendanceRecord

	for rows.Next() {
		var rec models.AttendanceRecord
		var className sql.NullString
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.StudentName, &rec.ClassID, &className,
			&rec.Date, &rec.Status, &rec.LeaveTypeID, &rec.LeaveTypeName, &rec.Note); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		rec.ClassName = className.String
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return records, nil
}

// ListLeaveRequests returns leave requests, optionally restricted to a set of
// students, an overlap window (inclusive on both ends) and a status set.
func (s *Storage) ListLeaveRequests(ctx context.Context, studentIDs []int64, from, to *time.Time, statuses []models.LeaveRequestStatus) ([]*models.LeaveRequest, error) {
	const op = "storage.postgres.ListLeaveRequests"

	where := []string{}
	args := []any{}

	if len(studentIDs) > 0 {
		args = append(args, pq.Array(studentIDs))
		where = append(where, fmt.Sprintf("lr.student_id = ANY($%d)", len(args)))
	}
	if from != nil && to != nil {
		args = append(args, *to)
		where = append(where, fmt.Sprintf("lr.start_date <= $%d", len(args)))
		args = append(args, *from)
		where = append(where, fmt.Sprintf("lr.end_date >= $%d", len(args)))
	}
	if len(statuses) > 0 {
		strs := make([]string, len(statuses))
		for i, st := range statuses {
			strs[i] = string(st)
		}
		args = append(args, pq.Array(strs))
		where = append(where, fmt.Sprintf("lr.status = ANY($%d)", len(args)))
	}

	query := `
		SELECT lr.id, lr.student_id, st.name, lr.leave_type_id, COALESCE(lt.name, ''),
		       lr.start_date, lr.end_date, lr.is_full_day, lr.start_time, lr.end_time,
		       lr.status, lr.reason, lr.created_at
		FROM leave_requests lr
		JOIN students st ON st.id = lr.student_id
		LEFT JOIN leave_types lt ON lt.id = lr.leave_type_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY lr.created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var leaves []*models.LeaveRequest

	for rows.Next() {
		var lr models.LeaveRequest
		var isFullDay bool
		var startTime, endTime sql.NullTime
		if err := rows.Scan(&lr.ID, &lr.StudentID, &lr.StudentName, &lr.LeaveTypeID, &lr.LeaveTypeName,
			&lr.StartDate, &lr.EndDate, &isFullDay, &startTime, &endTime,
			&lr.Status, &lr.Reason, &lr.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		// Partial-day requests missing either time contribute no hours, so
		// they keep a nil span.
		if isFullDay {
			lr.Span = models.FullDay{}
		} else if startTime.Valid && endTime.Valid {
			lr.Span = models.PartialDay{StartTime: startTime.Time, EndTime: endTime.Time}
		}

		leaves = append(leaves, &lr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return leaves, nil
}

func (s *Storage) ListHolidays(ctx context.Context, from, to time.Time) ([]*models.Holiday, error) {
	const op = "storage.postgres.ListHolidays"

	rows, err := s.db.QueryContext(ctx, `
		SELECT h.date, h.season_id FROM holidays h WHERE h.date BETWEEN $1 AND $2`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var holidays []*models.Holiday

	for rows.Next() {
		var h models.Holiday
		if err := rows.Scan(&h.Date, &h.SeasonID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		holidays = append(holidays, &h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return holidays, nil
}
