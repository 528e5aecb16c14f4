package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"studentspend/internal/core"
	applog "studentspend/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

// Not found messages per resource.
const (
	msgLoginNotFound   = "Registration number not found"
	msgStudentNotFound = "Student not found"
	msgExpenseNotFound = "Expense not found"
)

var validationErrors = []error{
	core.ErrInvalidRegNo,
	core.ErrEmptyRegNo,
	core.ErrInvalidCategory,
	core.ErrEmptyName,
	core.ErrInvalidTotal,
	core.ErrNoParticipants,
	core.ErrInvalidDate,
	core.ErrEmptyContactBody,
}

// fail maps err onto the API error contract: 400 for bad input, 404 for a
// missing student or expense, 500 with the raw message otherwise.
func fail(w http.ResponseWriter, r *http.Request, err error, studentMsg string) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		writeError(w, r, http.StatusBadRequest, reqErr.msg)
	case errors.Is(err, core.ErrStudentNotFound):
		writeError(w, r, http.StatusNotFound, studentMsg)
	case errors.Is(err, core.ErrExpenseNotFound):
		writeError(w, r, http.StatusNotFound, msgExpenseNotFound)
	case isValidation(err):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldPath, r.URL.Path, applog.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, err.Error())
	}
}

func isValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
