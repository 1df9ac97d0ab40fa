package models

import "time"

type AttendanceStatus string

const (
	StatusPresent    AttendanceStatus = "present"
	StatusAbsent     AttendanceStatus = "absent"
	StatusLate       AttendanceStatus = "late"
	StatusLeaveEarly AttendanceStatus = "leave_early"
	StatusOnLeave    AttendanceStatus = "on_leave"
)

type LeaveRequestStatus string

const (
	LeavePending  LeaveRequestStatus = "pending"
	LeaveApproved LeaveRequestStatus = "approved"
	LeaveRejected LeaveRequestStatus = "rejected"
)

type Student struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Enrollments []Enrollment
}

// Enrollment ties a student to a class and grade for one school year.
// A student has at most one enrollment per school year.
type Enrollment struct {
	StudentID  int64  `db:"student_id"`
	ClassID    int64  `db:"class_id"`
	ClassName  string `db:"class_name"`
	GradeID    int64  `db:"grade_id"`
	GradeName  string `db:"grade_name"`
	SchoolYear int    `db:"school_year"`
}

type LeaveType struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// AttendanceRecord is a per-day attendance override entered by a teacher.
// At most one record exists per (student, date).
type AttendanceRecord struct {
	ID            int64            `db:"id"`
	StudentID     int64            `db:"student_id"`
	StudentName   string           `db:"student_name"`
	ClassID       int64            `db:"class_id"`
	ClassName     string           `db:"class_name"`
	Date          time.Time        `db:"attendance_date"`
	Status        AttendanceStatus `db:"status"`
	LeaveTypeID   *int64           `db:"leave_type_id"`
	LeaveTypeName *string          `db:"leave_type_name"`
	Note          *string          `db:"note"`
}

// LeaveSpan describes how much of each covered day a leave request consumes.
type LeaveSpan interface {
	isLeaveSpan()
}

// FullDay covers the whole school day for every date in the request range.
type FullDay struct{}

// PartialDay covers the same time-of-day window on every date in the range.
type PartialDay struct {
	StartTime time.Time
	EndTime   time.Time
}

func (FullDay) isLeaveSpan()    {}
func (PartialDay) isLeaveSpan() {}

// Hours returns the covered part of a single day in fractional hours.
func (p PartialDay) Hours() float64 {
	return p.EndTime.Sub(p.StartTime).Hours()
}

// LeaveRequest is an interval-based leave application.
// StartDate and EndDate are inclusive, StartDate <= EndDate.
// LeaveTypeName is empty when the referenced leave type no longer exists.
type LeaveRequest struct {
	ID            int64     `db:"id"`
	StudentID     int64     `db:"student_id"`
	StudentName   string    `db:"student_name"`
	LeaveTypeID   int64     `db:"leave_type_id"`
	LeaveTypeName string    `db:"leave_type_name"`
	StartDate     time.Time `db:"start_date"`
	EndDate       time.Time `db:"end_date"`
	Span          LeaveSpan
	Status        LeaveRequestStatus `db:"status"`
	Reason        *string            `db:"reason"`
	CreatedAt     time.Time          `db:"created_at"`
}

type Holiday struct {
	Date     time.Time `db:"date"`
	SeasonID int64     `db:"season_id"`
}
