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
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type BlackoutGetter interface {
	GetBlackout(ctx context.Context, id string) (*api.BlackoutResponse, error)
	ListBlackouts(ctx context.Context, fromKey *string) ([]*api.BlackoutResponse, error)
}

type Response struct {
	response.Response
	Blackouts []api.BlackoutResponse `json:"blackouts,omitempty"`
	Blackout  *api.BlackoutResponse  `json:"blackout,omitempty"`
}

func New(log *slog.Logger, getter BlackoutGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.blackouts.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id := chi.URLParam(r, "id")

		if id != "" {
			blackout, err := getter.GetBlackout(r.Context(), id)

			if errors.Is(err, response.ErrNotFound) {
				log.Error("resource not found")
				w.WriteHeader(http.StatusNotFound)
				render.JSON(w, r, response.Error(string(response.NOT_FOUND), "resource not found"))
				return
			}

			if err != nil {
				log.Error("Failed to get blackout", sl.Err(err))
				w.WriteHeader(http.StatusInternalServerError)
				render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get blackout"))
				return
			}

			log.Info("Blackout retrieved", slog.Any("blackout", blackout))
			render.JSON(w, r, Response{Blackout: blackout})
			return
		}

		var fromKey *string
		if v := r.URL.Query().Get("from"); v != "" {
			fromKey = &v
		}

		blackouts, err := getter.ListBlackouts(r.Context(), fromKey)

		if errors.Is(err, response.ErrValidation) {
			log.Error("invalid from date", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), "invalid from date"))
			return
		}

		if err != nil {
			log.Error("Failed to list blackouts", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list blackouts"))
			return
		}

		log.Info("Blackouts retrieved", slog.Int("count", len(blackouts)))

		blackoutsResponse := make([]api.BlackoutResponse, len(blackouts))
		for i, b := range blackouts {
			blackoutsResponse[i] = *b
		}
		render.JSON(w, r, Response{
			Blackouts: blackoutsResponse,
		})
	}
}
