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

type RollCallProvider interface {
	ClassRollCall(ctx context.Context, classID int64, date string) ([]api.RollCallRow, error)
}

type Response struct {
	response.Response
	Students []api.RollCallRow `json:"students"`
}

func New(log *slog.Logger, provider RollCallProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.roll_call.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		classID, err := strconv.ParseInt(chi.URLParam(r, "classId"), 10, 64)
		if err != nil {
			log.Error("Invalid classId", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid classId"))
			return
		}

		students, err := provider.ClassRollCall(r.Context(), classID, r.URL.Query().Get("date"))

		if errors.Is(err, response.ErrBadRequest) {
			log.Error("Bad request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "invalid date"))
			return
		}

		if err != nil {
			log.Error("Failed to build roll call", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to build roll call"))
			return
		}

		log.Info("Roll call built", slog.Int("count", len(students)))

		render.JSON(w, r, Response{
			Students: students,
		})
	}
}
