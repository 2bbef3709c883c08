package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"clinic-scheduler/api"
	"clinic-scheduler/pkg/response"
	"clinic-scheduler/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ConflictChecker interface {
	CheckConflicts(ctx context.Context, dateKeys, times []string) ([]api.ConflictInfo, error)
}

type Response struct {
	response.Response
	Conflicts []api.ConflictInfo `json:"conflicts"`
}

func New(log *slog.Logger, checker ConflictChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.conflicts.get.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		dates := splitCSV(r.URL.Query().Get("dates"))
		times := splitCSV(r.URL.Query().Get("times"))

		conflicts, err := checker.CheckConflicts(r.Context(), dates, times)

		if errors.Is(err, response.ErrValidation) {
			log.Error("invalid query params", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), "invalid dates or times"))
			return
		}

		if err != nil {
			log.Error("Failed to check conflicts", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to check conflicts"))
			return
		}

		log.Info("Conflicts checked", slog.Int("count", len(conflicts)))

		render.JSON(w, r, Response{
			Conflicts: conflicts,
		})
	}
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
