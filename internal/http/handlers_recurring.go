package http

import (
	"errors"
	"net/http"
	"strings"

	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

// handleListRecurring lists the active series of a user with the next
// occurrence the engine would produce.
func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	userID, err := ParseUserID(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	statuses, err := s.transactions.Series(r.Context(), userID, s.today())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "List series error",
			applog.FieldError, err,
			applog.FieldUserID, userID)
		InternalServerError("failed to list recurring transactions").Write(w)
		return
	}

	views := make([]seriesView, 0, len(statuses))
	for _, st := range statuses {
		views = append(views, newSeriesView(st))
	}
	NewJSONResponse().Body(map[string]any{
		"series": views,
		"count":  len(views),
	}).Write(w)
}

func (s *Server) handleStopSeries(w http.ResponseWriter, r *http.Request) {
	seriesID := strings.TrimSpace(r.PathValue("series"))
	if seriesID == "" {
		BadRequestError("missing series id").Write(w)
		return
	}
	userID, err := ParseUserID(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	err = s.transactions.StopSeries(r.Context(), seriesID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		NotFoundError("recurring series not found").Write(w)
		return
	}
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Stop series error",
			applog.FieldError, err,
			applog.FieldSeriesID, seriesID)
		InternalServerError("failed to stop recurring series").Write(w)
		return
	}

	NewJSONResponse().Body(map[string]string{"series_id": seriesID, "status": "stopped"}).Write(w)
}
