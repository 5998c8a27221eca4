package handler

// Every error response from the API has the same shape:
//
//	{"error": "not_connected", "message": "you must connect Facebook before posting"}
//
// Upstream rejections add "detail" with the provider's raw body so the
// caller can see why Facebook refused a post.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/caption-studio/internal/apperror"
	"github.com/sakif/caption-studio/internal/auth"
)

// ErrorResponse is the standard error body returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`            // machine-readable kind, e.g. "not_found"
	Message string `json:"message"`          // human-readable description
	Field   string `json:"field,omitempty"`  // offending input field, for validation errors
	Detail  string `json:"detail,omitempty"` // raw upstream response, when there is one
}

// writeJSON sends data as JSON. Headers and status must go out before the
// body, so the order below matters.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; logging is all that is left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorKinds maps each domain sentinel to its HTTP status and wire name.
// Order matters only in that the first match wins.
var errorKinds = []struct {
	target error
	status int
	kind   string
}{
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperror.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{apperror.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperror.ErrConflict, http.StatusConflict, "conflict"},
	{apperror.ErrNotConnected, http.StatusConflict, "not_connected"},
	{apperror.ErrCredentialExpired, http.StatusConflict, "credential_expired"},
	{apperror.ErrPlatformNotLinked, http.StatusUnprocessableEntity, "platform_not_linked"},
	{apperror.ErrPublishFailed, http.StatusBadGateway, "publish_failed"},
	{apperror.ErrCredentialExchange, http.StatusBadGateway, "credential_exchange_failed"},
	{apperror.ErrUpstream, http.StatusBadGateway, "upstream_error"},
}

// errorStatus resolves err to a status code and wire name. Anything that is
// not an *apperror.AppError is an internal error.
func errorStatus(err error) (int, string) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "internal_error"
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.status, k.kind
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError maps a domain error to an HTTP response. The service layer
// knows nothing about status codes; this is the only place they are chosen.
//
// Unknown errors are reported as a generic 500 and never echoed, since the
// raw text may contain SQL or file paths.
func writeError(w http.ResponseWriter, err error) {
	status, kind := errorStatus(err)

	var appErr *apperror.AppError
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		slog.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	writeJSON(w, status, ErrorResponse{
		Error:   kind,
		Message: appErr.Message,
		Field:   appErr.Field,
		Detail:  appErr.Detail,
	})
}

// decodeJSON reads a JSON request body into dst. Bodies are capped at 1MB
// and a malformed body is a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON request body")
	}
	return nil
}

// requireUser returns the authenticated user id. Routes behind
// auth.RequireAuth always have one; the 401 covers misconfigured routing.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
	}
	return userID, ok
}
