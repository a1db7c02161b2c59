package handler

// RESPONSE HELPERS:
// Every JSON body leaves through writeJSON, and every error is translated
// to HTTP in exactly one place, writeError.
//
// ERROR SHAPES:
//   400 / 403 / 422 / 500 → {"detail": "..."}
//   not found or unauthorized → 200 {"success": false, "message": "..."}
//
// The second one is not an HTTP error on purpose: a wrong id and someone
// else's id must look identical to the caller.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/castiq/internal/apperror"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse is returned by delete, and by delete/edit when nothing matched.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// The body is encoded before any header goes out, so a value that can't be
// encoded becomes a 500 instead of a success status with an empty body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	var body []byte
	if data != nil {
		var err error
		body, err = json.Marshal(data)
		if err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
			status = http.StatusInternalServerError
			body = []byte(`{"detail":"An internal error occurred"}`)
		}
		body = append(body, '\n')
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		w.Write(body)
	}
}

// writeError maps a domain error to its HTTP response.
//
// errors.As/Is walk the whole chain, so service wrappers like
// fmt.Errorf("logging catch: %w", err) don't hide the AppError.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			writeJSON(w, http.StatusOK, MessageResponse{Success: false, Message: appErr.Message})
			return
		case errors.Is(err, apperror.ErrValidation):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: appErr.Message})
			return
		case errors.Is(err, apperror.ErrMalformed):
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: appErr.Message})
			return
		case errors.Is(err, apperror.ErrForbidden):
			writeJSON(w, http.StatusForbidden, ErrorResponse{Detail: appErr.Message})
			return
		case errors.Is(err, apperror.ErrStore):
			// The store's own text is part of the API contract.
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Detail: appErr.Message})
			return
		}
	}

	// Unknown error: don't leak internals.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Detail: "An internal error occurred"})
}
