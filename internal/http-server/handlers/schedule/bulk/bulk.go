package bulk

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"clinic-scheduler/api"
	"clinic-scheduler/pkg/response"
	"clinic-scheduler/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ScheduleGenerator interface {
	GenerateSchedule(ctx context.Context, req *api.BulkScheduleRequest) ([]api.GeneratedSlot, error)
}

type Request struct {
	api.BulkScheduleRequest
}

type Response struct {
	response.Response
	Slots []api.GeneratedSlot `json:"slots"`
}

func New(log *slog.Logger, generator ScheduleGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.schedule.bulk.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.Any("request", req))

		if req.StartDate == "" {
			log.Error("start_date is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "start_date is required"))
			return
		}

		if len(req.Preferences) == 0 {
			log.Error("preferences is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "preferences is required"))
			return
		}

		slots, err := generator.GenerateSchedule(r.Context(), &req.BulkScheduleRequest)

		if errors.Is(err, response.ErrValidation) {
			log.Error("invalid request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), "invalid scheduling request"))
			return
		}

		if errors.Is(err, response.ErrUnsatisfiable) {
			log.Error("request cannot be satisfied", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(string(response.UNSATISFIABLE), "cannot satisfy request, relax preferences or exclusions"))
			return
		}

		if err != nil {
			log.Error("Failed to generate schedule", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to generate schedule"))
			return
		}

		log.Info("Schedule generated", slog.Int("slots", len(slots)))

		render.JSON(w, r, Response{
			Slots: slots,
		})
	}
}
