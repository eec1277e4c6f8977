package http

import (
	"errors"
	"net/http"
	"strconv"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

var validationErrors = []error{
	core.ErrInvalidDay,
	core.ErrInvalidMonth,
	core.ErrInvalidAmount,
	core.ErrEmptyDescription,
	core.ErrInvalidType,
	core.ErrInvalidFrequency,
	core.ErrEndBeforeStart,
	core.ErrDescriptionTooLong,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

// handleListTransactions returns the transactions of a user in an optional
// date range, newest first.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID, err := ParseUserID(query)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	from, err := ParseDateQuery(query, "from")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	to, err := ParseDateQuery(query, "to")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from.Time) {
		BadRequestError("to must not be before from").Write(w)
		return
	}

	txs, err := s.transactions.ListTransactions(r.Context(), userID, from, to)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "List transactions error",
			applog.FieldError, err,
			applog.FieldUserID, userID)
		InternalServerError("failed to list transactions").Write(w)
		return
	}

	NewJSONResponse().Body(map[string]any{
		"transactions": newTransactionViews(txs),
		"count":        len(txs),
	}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	t, err := parser.Transaction()
	if err != nil {
		UnprocessableEntityError("invalid transaction", err).Write(w)
		return
	}

	created, err := s.transactions.CreateTransaction(r.Context(), t)
	if err != nil {
		if isValidationError(err) {
			UnprocessableEntityError("invalid transaction", err).Write(w)
			return
		}
		logger.ErrorContext(r.Context(), "Transaction create error",
			applog.FieldError, err,
			applog.FieldUserID, t.UserID,
			applog.FieldAmount, t.Amount.String())
		InternalServerError("failed to save transaction").Write(w)
		return
	}
	s.invalidateSummaries(created.UserID)

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+strconv.FormatInt(created.ID, 10)).
		Body(newTransactionView(created)).
		Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		BadRequestError("invalid transaction id").Write(w)
		return
	}
	userID, err := ParseUserID(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	t, err := s.transactions.GetTransaction(r.Context(), id, userID)
	if errors.Is(err, storage.ErrNotFound) {
		NotFoundError("transaction not found").Write(w)
		return
	}
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Get transaction error",
			applog.FieldError, err,
			applog.FieldTransaction, id)
		InternalServerError("failed to load transaction").Write(w)
		return
	}
	NewJSONResponse().Body(newTransactionView(t)).Write(w)
}

// handleDeleteTransaction removes a transaction. Deleting the latest
// occurrence of a series ends it.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		BadRequestError("invalid transaction id").Write(w)
		return
	}
	userID, err := ParseUserID(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	err = s.transactions.DeleteTransaction(r.Context(), id, userID)
	if errors.Is(err, storage.ErrNotFound) {
		NotFoundError("transaction not found").Write(w)
		return
	}
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Delete transaction error",
			applog.FieldError, err,
			applog.FieldTransaction, id)
		InternalServerError("failed to delete transaction").Write(w)
		return
	}
	s.invalidateSummaries(userID)

	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
