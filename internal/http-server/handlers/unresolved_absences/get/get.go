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

type AbsencesReporter interface {
	UnresolvedAbsencesReport(ctx context.Context, q *api.UnresolvedAbsencesQuery) ([]api.UnresolvedAbsenceRow, error)
}

type Response struct {
	response.Response
	Absences []api.UnresolvedAbsenceRow `json:"absences"`
}

func New(log *slog.Logger, reporter AbsencesReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.unresolved_absences.get.New"

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

		absences, err := reporter.UnresolvedAbsencesReport(r.Context(), &api.UnresolvedAbsencesQuery{
			StartDate: query.Get("start_date"),
			EndDate:   query.Get("end_date"),
			ClassIDs:  classIDs,
			Grades:    grades,
		})

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("Bad request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid date range"))
			return
		}

		if err != nil {
			log.Error("Failed to list unresolved absences", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list unresolved absences"))
			return
		}

		log.Info("Unresolved absences listed", slog.Int("count", len(absences)))

		render.JSON(w, r, Response{
			Absences: absences,
		})
	}
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}
		id, err := strconv.ParseInt(item, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}
