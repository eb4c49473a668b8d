// Package common defines shared constants and sentinel errors used across
// DraftKeeper layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// ErrTxUnsupported is returned by a repository manager when the backend
	// cannot start a transaction (standalone document store, disabled tx mode).
	ErrTxUnsupported = errors.New("transactions unsupported")

	// Service-level errors.
	ErrorValidation  = errors.New("validation error")
	ErrorPersistence = errors.New("persistence error")

	// Envelope cipher errors.
	ErrorCrypto = errors.New("crypto error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
