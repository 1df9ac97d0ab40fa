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

type LeaveStatisticsReporter interface {
	LeaveStatisticsReport(ctx context.Context, q *api.StatisticsReportQuery) ([]api.StatisticsReportRow, error)
}

type Response struct {
	response.Response
	Report []api.StatisticsReportRow `json:"report"`
}

func New(log *slog.Logger, reporter LeaveStatisticsReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.leave_statistics.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		query := r.URL.Query()

		req := &api.StatisticsReportQuery{
			StartDate: query.Get("start_date"),
			EndDate:   query.Get("end_date"),
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

		for _, item := range strings.Split(query.Get("grades"), ",") {
			if item = strings.TrimSpace(item); item == "" {
				continue
			}
			id, err := strconv.ParseInt(item, 10, 64)
			if err != nil {
				log.Error("Invalid grades", sl.Err(err))
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid grades"))
				return
			}
			req.Grades = append(req.Grades, id)
		}

		report, err := reporter.LeaveStatisticsReport(r.Context(), req)

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("Bad request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid date range"))
			return
		}

		if err != nil {
			log.Error("Failed to build statistics report", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to build statistics report"))
			return
		}

		log.Info("Statistics report built", slog.Int("rows", len(report)))

		render.JSON(w, r, Response{
			Report: report,
		})
	}
}
