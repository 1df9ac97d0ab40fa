// Package resolver derives the authoritative per-student, per-day attendance
// disposition from attendance overrides and leave requests. It is the single
// place where the override/leave precedence rules live; the report and
// statistics assemblers must not reimplement them.
package resolver

import (
	"fmt"
	"sort"
	"time"

	"attendance-service/internal/calendar"
	"attendance-service/internal/models"
)

// Disposition is the reconciled status of one student on one day.
// SourceID identifies the winning record: "att-<id>" for an attendance
// override, "leave-<id>" for a leave request, or a "virtual-" placeholder
// when the student is present with no backing record. The format is part of
// the API contract and keeps row identity stable across repeated calls.
type Disposition struct {
	Status        models.AttendanceStatus
	LeaveTypeName string
	LeaveStatus   models.LeaveRequestStatus
	Note          string
	SourceID      string
}

// Index holds pre-fetched attendance and leave snapshots keyed for O(1)
// per-day lookups. Build it once per request, outside any per-day loop.
type Index struct {
	overrides map[string]*models.AttendanceRecord
	leaves    map[int64][]*models.LeaveRequest
}

func NewIndex(records []*models.AttendanceRecord, leaves []*models.LeaveRequest) *Index {
	ix := &Index{
		overrides: make(map[string]*models.AttendanceRecord, len(records)),
		leaves:    make(map[int64][]*models.LeaveRequest),
	}

	for _, rec := range records {
		ix.overrides[overrideKey(rec.StudentID, rec.Date)] = rec
	}

	for _, lr := range leaves {
		ix.leaves[lr.StudentID] = append(ix.leaves[lr.StudentID], lr)
	}

	// Most recently created first. Overlapping requests for the same date are
	// not prevented upstream; the newest submission wins deterministically.
	for _, list := range ix.leaves {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		})
	}

	return ix
}

// Resolve reconciles the signals for (studentID, date), in order of
// precedence: default present, then an attendance override, then an
// approved-or-pending leave request covering the date.
func (ix *Index) Resolve(studentID int64, date time.Time) Disposition {
	date = calendar.Normalize(date)

	d := Disposition{
		Status:   models.StatusPresent,
		SourceID: fmt.Sprintf("virtual-%d-%d", studentID, date.UnixMilli()),
	}

	if rec, ok := ix.overrides[overrideKey(studentID, date)]; ok {
		d.Status = rec.Status
		d.SourceID = fmt.Sprintf("att-%d", rec.ID)
		if rec.Note != nil {
			d.Note = *rec.Note
		}
		if rec.LeaveTypeName != nil {
			d.LeaveTypeName = *rec.LeaveTypeName
		}
	}

	if lr := ix.coveringLeave(studentID, date); lr != nil {
		d.Status = models.StatusOnLeave
		d.LeaveTypeName = lr.LeaveTypeName
		d.LeaveStatus = lr.Status
		d.SourceID = fmt.Sprintf("leave-%d", lr.ID)
	}

	return d
}

// coveringLeave returns the winning approved-or-pending leave request whose
// inclusive date range contains date, or nil. Lists are sorted newest first,
// so the first hit is the winner.
func (ix *Index) coveringLeave(studentID int64, date time.Time) *models.LeaveRequest {
	for _, lr := range ix.leaves[studentID] {
		if lr.Status != models.LeaveApproved && lr.Status != models.LeavePending {
			continue
		}

		start := calendar.Normalize(lr.StartDate)
		end := calendar.Normalize(lr.EndDate)
		if !date.Before(start) && !date.After(end) {
			return lr
		}
	}

	return nil
}

func overrideKey(studentID int64, date time.Time) string {
	return fmt.Sprintf("%d|%s", studentID, calendar.Normalize(date).Format(calendar.DateFormat))
}
