// Package errs declares the error taxonomy shared by the delivery pipeline.
// Components wrap these sentinels with fmt.Errorf("...: %w", err) and the
// HTTP layer maps them to status codes with errors.Is.
package errs

import "errors"

var (
	// ErrNotFound: unknown product or track index out of range.
	ErrNotFound = errors.New("not found")

	// ErrForbidden: the track is explicitly blocked.
	ErrForbidden = errors.New("forbidden")

	// ErrSourceUnavailable: the remote object could not be fetched after
	// bounded retries, or no object storage backend is configured.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrBackendDisabled is returned (wrapped in ErrSourceUnavailable) when a
	// remote asset is requested but no backend was configured at startup.
	ErrBackendDisabled = errors.New("object storage backend not configured")

	// ErrRangeNotSatisfiable: the client range lies outside the effective window.
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")

	// ErrInternalCache: local disk failure while writing or reading the cache.
	ErrInternalCache = errors.New("internal cache error")

	// ErrUnauthorized: a bearer token was supplied but is invalid.
	ErrUnauthorized = errors.New("unauthorized")
)
