package service

import (
	"context"
	"fmt"

	"attendance-service/api"
	"attendance-service/internal/models"
)

// ClassRollCall resolves the disposition of every student of a class for a
// single date, in the shape the daily roll-call view consumes. An empty date
// defaults to today.
func (s *Service) ClassRollCall(ctx context.Context, classID int64, dateStr string) ([]api.RollCallRow, error) {
	const op = "service.ClassRollCall"

	date, _, err := parseWindow(dateStr, "", today(), today())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	snap, err := s.loadSnapshot(ctx,
		StudentFilter{ClassIDs: []int64{classID}},
		date, date,
		[]models.LeaveRequestStatus{models.LeaveApproved, models.LeavePending},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows := make([]api.RollCallRow, 0, len(snap.students))
	for _, st := range snap.students {
		d := snap.ix.Resolve(st.ID, date)
		rows = append(rows, api.RollCallRow{
			StudentID:   st.ID,
			StudentName: st.Name,
			Status:      string(d.Status),
		})
	}

	return rows, nil
}
