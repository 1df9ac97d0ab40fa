package api

// Queries. Dates use the YYYY-MM-DD layout; empty windows fall back to
// service defaults (today for the attendance report, the current month for
// statistics).

type ReportQuery struct {
	StartDate string
	EndDate   string
	ClassIDs  []int64
	Grades    []int64
	Statuses  []string
}

type StatisticsReportQuery struct {
	StartDate string
	EndDate   string
	StudentID *int64
	Grades    []int64
}

type AttendanceStatsQuery struct {
	StartDate string
	EndDate   string
	ClassID   *int64
	StudentID *int64
}

type PendingLeavesQuery struct {
	AgeFilter string // "", "within_3_days" or "over_3_days"
	ClassIDs  []int64
	Grades    []int64
}

type UnresolvedAbsencesQuery struct {
	StartDate string
	EndDate   string
	ClassIDs  []int64
	Grades    []int64
}

// ReportRow is one (student, day) line of the attendance report. Field names
// and status strings are part of the consumer contract.
type ReportRow struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"`
	Grade         string  `json:"grade"`
	ClassName     string  `json:"className"`
	StudentName   string  `json:"studentName"`
	Status        string  `json:"status"`
	LeaveTypeName *string `json:"leaveTypeName"`
	LeaveStatus   *string `json:"leaveStatus"`
	Note          *string `json:"note"`
}

type LeaveBucket struct {
	Days  int     `json:"days"`
	Hours float64 `json:"hours"`
}

type LeaveStatusBuckets struct {
	Approved LeaveBucket `json:"approved"`
	Pending  LeaveBucket `json:"pending"`
	Rejected LeaveBucket `json:"rejected"`
	Total    LeaveBucket `json:"total"`
}

// StatisticsReportRow is the per-student leave ledger over the window.
type StatisticsReportRow struct {
	StudentID       int64                         `json:"studentId"`
	StudentName     string                        `json:"studentName"`
	Grade           string                        `json:"grade"`
	ClassName       string                        `json:"className"`
	LeaveTypeCounts map[string]LeaveStatusBuckets `json:"leaveTypeCounts"`
	LateDays        int                           `json:"lateDays"`
	LeaveEarlyDays  int                           `json:"leaveEarlyDays"`
	AbsentDays      int                           `json:"absentDays"`
	TotalDays       int                           `json:"totalDays"`
	AttendanceRate  float64                       `json:"attendanceRate"`
}

type AttendanceStatistics struct {
	TotalDays      int     `json:"totalDays"`
	PresentDays    int     `json:"presentDays"`
	AbsentDays     int     `json:"absentDays"`
	LateDays       int     `json:"lateDays"`
	LeaveEarlyDays int     `json:"leaveEarlyDays"`
	OnLeaveDays    int     `json:"onLeaveDays"`
	AttendanceRate float64 `json:"attendanceRate"`
}

type ClassAttendanceStatistics struct {
	AttendanceStatistics
	ClassID   int64  `json:"classId"`
	ClassName string `json:"className"`
	GradeID   int64  `json:"gradeId"`
	GradeName string `json:"gradeName"`
}

type StudentAttendanceStatistics struct {
	AttendanceStatistics
	StudentID   int64  `json:"studentId"`
	StudentName string `json:"studentName"`
	ClassID     int64  `json:"classId"`
	ClassName   string `json:"className"`
}

type DateAttendanceStatistics struct {
	Date            string  `json:"date"`
	TotalStudents   int     `json:"totalStudents"`
	PresentCount    int     `json:"presentCount"`
	AbsentCount     int     `json:"absentCount"`
	LateCount       int     `json:"lateCount"`
	LeaveEarlyCount int     `json:"leaveEarlyCount"`
	OnLeaveCount    int     `json:"onLeaveCount"`
	AttendanceRate  float64 `json:"attendanceRate"`
}

type PendingLeaveRow struct {
	ID            int64   `json:"id"`
	StudentID     int64   `json:"studentId"`
	StudentName   string  `json:"studentName"`
	LeaveTypeName string  `json:"leaveTypeName"`
	StartDate     string  `json:"startDate"`
	EndDate       string  `json:"endDate"`
	IsFullDay     bool    `json:"isFullDay"`
	Reason        *string `json:"reason"`
	CreatedAt     string  `json:"createdAt"`
}

type UnresolvedAbsenceRow struct {
	ID          int64   `json:"id"`
	Date        string  `json:"date"`
	StudentID   int64   `json:"studentId"`
	StudentName string  `json:"studentName"`
	ClassID     int64   `json:"classId"`
	ClassName   string  `json:"className"`
	Note        *string `json:"note"`
}

// RollCallRow is one student's resolved status on the daily class roll-call
// view.
type RollCallRow struct {
	StudentID   int64  `json:"studentId"`
	StudentName string `json:"studentName"`
	Status      string `json:"status"`
}
