package errors

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionRequired    = errors.New("session required")
	ErrNotFound           = errors.New("resource not found")
	ErrValidation         = errors.New("invalid request")
	ErrConflict           = errors.New("conflict")
	ErrStorage            = errors.New("storage failure")
)
