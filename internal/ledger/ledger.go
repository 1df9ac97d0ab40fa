// Package ledger accumulates per-leave-type day/hour totals for a student
// over a date window, bucketed by request status, with calendar-aware day
// counting and hour-to-day carry conversion.
package ledger

import (
	"time"

	"attendance-service/internal/calendar"
	"attendance-service/internal/models"
)

// StandardDayHours is the fixed hour-to-day equivalence used by the carry
// conversion.
const StandardDayHours = 8

// Bucket accumulates whole days plus a fractional-hour remainder. After
// normalization Hours is always below StandardDayHours.
type Bucket struct {
	Days  int     `json:"days"`
	Hours float64 `json:"hours"`
}

// carry converts accumulated hours into whole days. Idempotent, applied per
// bucket rather than across buckets.
func (b *Bucket) carry() {
	additionalDays := int(b.Hours / StandardDayHours)
	if additionalDays > 0 {
		b.Days += additionalDays
		b.Hours -= float64(additionalDays) * StandardDayHours
	}
}

// StatusBuckets groups one leave type's totals by request status.
// Total mirrors every addition made to the three status buckets.
type StatusBuckets struct {
	Approved Bucket `json:"approved"`
	Pending  Bucket `json:"pending"`
	Rejected Bucket `json:"rejected"`
	Total    Bucket `json:"total"`
}

func (sb *StatusBuckets) forStatus(status models.LeaveRequestStatus) *Bucket {
	switch status {
	case models.LeaveApproved:
		return &sb.Approved
	case models.LeavePending:
		return &sb.Pending
	case models.LeaveRejected:
		return &sb.Rejected
	}
	return nil
}

func (sb *StatusBuckets) normalize() {
	sb.Approved.carry()
	sb.Pending.carry()
	sb.Rejected.carry()
	sb.Total.carry()
}

// StudentTotals is the full ledger for one student over one window.
// The raw counters are taken from attendance overrides on school days only;
// TotalDays is the school-day count of the window and serves as the
// statistics denominator.
type StudentTotals struct {
	ByLeaveType    map[string]*StatusBuckets
	LateDays       int
	LeaveEarlyDays int
	AbsentDays     int
	TotalDays      int
}

func (t *StudentTotals) buckets(leaveTypeName string) *StatusBuckets {
	sb, ok := t.ByLeaveType[leaveTypeName]
	if !ok {
		sb = &StatusBuckets{}
		t.ByLeaveType[leaveTypeName] = sb
	}
	return sb
}

// Aggregate builds the leave ledger for one student from pre-fetched leave
// requests and attendance overrides. Requests of every status contribute to
// their own bucket and to Total. Requests whose leave type cannot be resolved
// are skipped rather than failing the computation.
func Aggregate(start, end time.Time, leaves []*models.LeaveRequest, overrides []*models.AttendanceRecord, holidays calendar.HolidaySet) *StudentTotals {
	totals := &StudentTotals{ByLeaveType: make(map[string]*StatusBuckets)}

	start = calendar.Normalize(start)
	end = calendar.Normalize(end)
	if end.Before(start) {
		return totals
	}

	totals.TotalDays = calendar.SchoolDays(start, end, holidays)

	for _, lr := range leaves {
		if lr.LeaveTypeName == "" {
			continue
		}

		from := calendar.Normalize(lr.StartDate)
		if from.Before(start) {
			from = start
		}
		to := calendar.Normalize(lr.EndDate)
		if to.After(end) {
			to = end
		}
		if to.Before(from) {
			continue
		}

		leaveDays := calendar.SchoolDays(from, to, holidays)

		sb := totals.buckets(lr.LeaveTypeName)
		bucket := sb.forStatus(lr.Status)
		if bucket == nil {
			continue
		}

		switch span := lr.Span.(type) {
		case models.FullDay:
			bucket.Days += leaveDays
			sb.Total.Days += leaveDays
		case models.PartialDay:
			hours := span.Hours() * float64(leaveDays)
			bucket.Hours += hours
			sb.Total.Hours += hours
		}

		sb.normalize()
	}

	for _, rec := range overrides {
		date := calendar.Normalize(rec.Date)
		if date.Before(start) || date.After(end) {
			continue
		}

		if rec.Status == models.StatusOnLeave {
			// A teacher-entered leave day is already final: it counts as
			// approved no matter what any formal request says, and it is not
			// subject to the school-day exclusion below.
			if rec.LeaveTypeName == nil || *rec.LeaveTypeName == "" {
				continue
			}
			sb := totals.buckets(*rec.LeaveTypeName)
			sb.Approved.Days++
			sb.Total.Days++
			continue
		}

		if !calendar.IsSchoolDay(date, holidays) {
			continue
		}

		switch rec.Status {
		case models.StatusLate:
			totals.LateDays++
		case models.StatusLeaveEarly:
			totals.LeaveEarlyDays++
		case models.StatusAbsent:
			totals.AbsentDays++
		}
	}

	return totals
}
