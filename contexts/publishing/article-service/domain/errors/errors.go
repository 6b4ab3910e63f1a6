package errors

import "errors"

var (
	ErrNotFound   = errors.New("resource not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("invalid request")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage failure")
)
