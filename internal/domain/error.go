package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrMalformedPayload = errors.New("malformed web app payload")
	ErrLocked           = errors.New("resource is locked")
)
