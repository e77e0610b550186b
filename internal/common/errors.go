// Package common defines shared constants and sentinel errors used across
// the admin panel layers. Callers should use errors.Is to match these values;
// producers wrap them with fmt.Errorf("...: %w", ...) to attach detail.
package common

import "errors"

var (
	// Configuration errors. Fatal at startup.
	ErrConfig = errors.New("configuration error")

	// Blob-store level errors.
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")

	// Record store errors.
	ErrLoad            = errors.New("load error")
	ErrSave            = errors.New("save error")
	ErrDuplicateKey    = errors.New("duplicate client_id")
	ErrNothingSelected = errors.New("nothing selected")

	// Boundary coercion of submitted values.
	ErrValidation = errors.New("validation error")

	// Auth errors (wrong shared secret, missing or forged session).
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")

	// Notification failures are logged with this sentinel and never returned
	// to the caller of a record operation.
	ErrNotify = errors.New("notify error")
)
