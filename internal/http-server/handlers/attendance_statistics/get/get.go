package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"attendance-service/api"
	"attendance-service/pkg/response"
	"attendance-service/pkg/sl"
)

type StatisticsProvider interface {
	AttendanceStatistics(ctx context.Context, q *api.AttendanceStatsQuery) (*api.AttendanceStatistics, error)
	AttendanceStatisticsByClass(ctx context.Context, q *api.AttendanceStatsQuery) ([]api.ClassAttendanceStatistics, error)
	AttendanceStatisticsByStudent(ctx context.Context, q *api.AttendanceStatsQuery) ([]api.StudentAttendanceStatistics, error)
	AttendanceStatisticsByDate(ctx context.Context, q *api.AttendanceStatsQuery) ([]api.DateAttendanceStatistics, error)
}

type Response struct {
	response.Response
	Summary   *api.AttendanceStatistics         `json:"summary,omitempty"`
	ByClass   []api.ClassAttendanceStatistics   `json:"byClass,omitempty"`
	ByStudent []api.StudentAttendanceStatistics `json:"byStudent,omitempty"`
	ByDate    []api.DateAttendanceStatistics    `json:"byDate,omitempty"`
}

// New serves both the plain summary and the grouped variants; the grouping
// dimension comes from the optional {dimension} URL parameter.
func New(log *slog.Logger, provider StatisticsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.attendance_statistics.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		query := r.URL.Query()

		req := &api.AttendanceStatsQuery{
			StartDate: query.Get("start_date"),
			EndDate:   query.Get("end_date"),
		}

		if raw := query.Get("class_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				log.Error("Invalid class_id", sl.Err(err))
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid class_id"))
				return
			}
			req.ClassID = &id
		}

		if raw := query.Get("student_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				log.Error("Invalid student_id", sl.Err(err))
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid student_id"))
				return
			}
			req.StudentID = &id
		}

		var resp Response
		var err error

		dimension := chi.URLParam(r, "dimension")
		switch dimension {
		case "":
			resp.Summary, err = provider.AttendanceStatistics(r.Context(), req)
		case "class":
			resp.ByClass, err = provider.AttendanceStatisticsByClass(r.Context(), req)
		case "student":
			resp.ByStudent, err = provider.AttendanceStatisticsByStudent(r.Context(), req)
		case "date":
			resp.ByDate, err = provider.AttendanceStatisticsByDate(r.Context(), req)
		default:
			log.Error("Unknown dimension", slog.String("dimension", dimension))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "unknown statistics dimension"))
			return
		}

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("Bad request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid date range"))
			return
		}

		if err != nil {
			log.Error("Failed to compute statistics", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to compute statistics"))
			return
		}

		log.Info("Statistics computed", slog.String("dimension", dimension))

		render.JSON(w, r, resp)
	}
}
