package handler

// RESPONSE HELPERS:
// These functions standardise how handlers send JSON bodies and how domain
// errors map to HTTP status codes.
//
// ERROR BODY SHAPES:
// Flow errors (bad email, wrong/expired code, sign-up on an active account)
// come back as {"error": "..."} with 400 — the shape API clients branch on.
// The authenticated probe reports failures as {"message": "..."} with 403,
// matching its success shape. Both shapes are produced here so individual
// handlers never hand-roll status mapping.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/passcode-login/internal/apperror"
)

// errorResponse is the standard failure body for the flow endpoints.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"` // set for field-level validation errors
}

// messageResponse is the body shape of the authenticated probe, both on
// success and on 403.
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be written before the body; once Encode writes,
// the headers are on the wire.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent — all we can do is log it.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status and body.
//
// The service layer returns apperror sentinels; this is the single place
// they become status codes:
//
//	ErrValidation    → 400 {"error": ...}   (includes expired-adjacent flow errors)
//	ErrExpired       → 400 {"error": ...}
//	ErrAlreadyActive → 400 {"error": ...}
//	ErrNotFound      → 404 {"error": ...}
//	ErrForbidden     → 403 {"message": ...}
//	ErrDispatch      → 502 {"error": ...}
//	anything else    → 500, generic body (never leak internals)
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(err, apperror.ErrValidation),
			errors.Is(err, apperror.ErrExpired),
			errors.Is(err, apperror.ErrAlreadyActive):
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error: appErr.Message,
				Field: appErr.Field,
			})
		case errors.Is(err, apperror.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: appErr.Message})
		case errors.Is(err, apperror.ErrForbidden):
			writeJSON(w, http.StatusForbidden, messageResponse{Message: appErr.Message})
		case errors.Is(err, apperror.ErrDispatch):
			writeJSON(w, http.StatusBadGateway, errorResponse{Error: appErr.Message})
		default:
			writeJSON(w, http.StatusInternalServerError, errorResponse{
				Error: "An internal error occurred",
			})
		}
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error: "An internal error occurred",
	})
}
