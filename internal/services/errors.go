package services

import "errors"

// Sentinel errors returned by the service layer. Not-found conditions use
// store.ErrNotFound and blob store failures use storage.ErrStore; handlers
// map each kind to one HTTP status.
var (
	// ErrValidation indicates malformed or missing input. Never retried.
	ErrValidation = errors.New("invalid input")

	// ErrForbidden indicates the authorization policy denied the
	// operation. It carries no resource detail.
	ErrForbidden = errors.New("forbidden")

	// ErrStorageNotLinked indicates the uploader has not linked the
	// external blob store.
	ErrStorageNotLinked = errors.New("storage not linked")
)
