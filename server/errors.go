package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gatedfm/core/errs"
	"gatedfm/logger"
)

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrRangeNotSatisfiable):
		return http.StatusRequestedRangeNotSatisfiable
	case errors.Is(err, errs.ErrBackendDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, errs.ErrSourceUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, errs.ErrInternalCache),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes a JSON error body and returns the status used. Internal
// details stay in the logs.
func writeError(w http.ResponseWriter, err error) int {
	code := statusFor(err)
	w.Header().Set("Cache-Control", "no-store")
	if code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="gatedfm"`)
	}
	writeJSON(w, code, map[string]string{"error": http.StatusText(code)})
	return code
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

func logFailure(r *http.Request, code int, err error) {
	switch {
	case code >= 500 && !errors.Is(err, context.Canceled):
		logger.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", code),
			logger.ErrorField(err))
	default:
		logger.Debug("request rejected",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", code),
			logger.ErrorField(err))
	}
}
