package get

import (
	"context"
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

type PendingLeavesReporter interface {
	PendingLeavesReport(ctx context.Context, q *api.PendingLeavesQuery) ([]api.PendingLeaveRow, error)
}

type Response struct {
	response.Response
	Leaves []api.PendingLeaveRow `json:"leaves"`
}

func New(log *slog.Logger, reporter PendingLeavesReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.pending_leaves.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		query := r.URL.Query()

		ageFilter := query.Get("age_filter")
		switch ageFilter {
		case "", "within_3_days", "over_3_days":
		default:
			log.Error("Invalid age_filter", slog.String("age_filter", ageFilter))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid age_filter"))
			return
		}

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

		leaves, err := reporter.PendingLeavesReport(r.Context(), &api.PendingLeavesQuery{
			AgeFilter: ageFilter,
			ClassIDs:  classIDs,
			Grades:    grades,
		})

		if err != nil {
			log.Error("Failed to list pending leaves", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list pending leaves"))
			return
		}

		log.Info("Pending leaves listed", slog.Int("count", len(leaves)))

		render.JSON(w, r, Response{
			Leaves: leaves,
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
