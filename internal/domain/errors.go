package domain

import "errors"

var (
	// ErrConflict means the route is already claimed by another employee that day.
	ErrConflict      = errors.New("conflict")
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrMalformedData = errors.New("malformed data")
)
