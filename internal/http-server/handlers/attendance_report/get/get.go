package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"attendance-service/api"
	"attendance-service/pkg/response"
	"attendance-service/pkg/sl"
)

type AttendanceReporter interface {
	AttendanceReport(ctx context.Context, q *api.ReportQuery) ([]api.ReportRow, error)
}

type Response struct {
	response.Response
	Report []api.ReportRow `json:"report"`
}

func New(log *slog.Logger, reporter AttendanceReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.attendance_report.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		query := r.URL.Query()

		classIDs, err := parseIDList(query.Get("class_ids"))
		if err != nil {
			log.Error("Invalid class_ids", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid class_ids"))
			return
		}

		grades, err := parseIDList(query.Get("grades"))
		if err != nil {
			log.Error("Invalid grades", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid grades"))
			return
		}

		req := &api.ReportQuery{
			StartDate: query.Get("start_date"),
			EndDate:   query.Get("end_date"),
			ClassIDs:  classIDs,
			Grades:    grades,
			Statuses:  splitList(query.Get("statuses")),
		}

		report, err := reporter.AttendanceReport(r.Context(), req)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("Bad request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid date range"))
			return
		}

		if err != nil {
			log.Error("Failed to build attendance report", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to build attendance report"))
			return
		}

		log.Info("Attendance report built", slog.Int("rows", len(report)))

		render.JSON(w, r, Response{
			Report: report,
		})
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	return items
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, item := range splitList(raw) {
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}
