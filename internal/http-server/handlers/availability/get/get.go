package get

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

type AvailabilityGetter interface {
	GetAvailability(ctx context.Context, dateKey string) (*api.AvailabilityResponse, error)
}

type Response struct {
	response.Response
	Availability *api.AvailabilityResponse `json:"availability,omitempty"`
}

func New(log *slog.Logger, getter AvailabilityGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		dateKey := r.URL.Query().Get("date")
		if dateKey == "" {
			log.Error("date is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "date is required"))
			return
		}

		availability, err := getter.GetAvailability(r.Context(), dateKey)

		if errors.Is(err, response.ErrDateInPast) {
			log.Error("date is in the past")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.DATE_IN_PAST), "date is in the past"))
			return
		}

		if errors.Is(err, response.ErrValidation) {
			log.Error("invalid date", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), "invalid date"))
			return
		}

		if err != nil {
			log.Error("Failed to get availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get availability"))
			return
		}

		log.Info("Availability retrieved", slog.String("date", availability.Date), slog.Int("slots", len(availability.Slots)))

		render.JSON(w, r, Response{
			Availability: availability,
		})
	}
}
