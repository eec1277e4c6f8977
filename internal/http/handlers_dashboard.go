package http

import (
	"net/http"
	"strings"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

type dashboardView struct {
	Period    string        `json:"period"`
	Summary   summaryView   `json:"summary"`
	Recurring runReportView `json:"recurring"`
}

// handleDashboard brings the user's recurring series up to date and then
// returns the summary for the requested period. A failed recurring run is
// logged and the summary is still served.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	query := r.URL.Query()
	userID, err := ParseUserID(query)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	period := strings.ToLower(strings.TrimSpace(query.Get("period")))
	if period == "" {
		period = core.PeriodThisMonth
	}

	today := s.today()
	from, to, err := core.PeriodRange(period, today)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	view := dashboardView{Period: period}

	if s.processor != nil {
		report, err := s.processor.ProcessDue(ctx, today, userID)
		if err != nil {
			logger.ErrorContext(ctx, "Recurring processing failed",
				applog.FieldError, err,
				applog.FieldUserID, userID,
				applog.FieldDate, today.String())
		}
		if len(report.Materialized) > 0 {
			s.invalidateSummaries(userID)
		}
		view.Recurring = newRunReportView(report)
	} else {
		view.Recurring = newRunReportView(services.RunReport{Date: today})
	}

	sum, err := s.summary(ctx, userID, from, to)
	if err != nil {
		logger.ErrorContext(ctx, "Summary error",
			applog.FieldError, err,
			applog.FieldUserID, userID,
			"period", period)
		InternalServerError("failed to compute summary").Write(w)
		return
	}
	view.Summary = newSummaryView(sum)

	NewJSONResponse().Body(view).Write(w)
}
