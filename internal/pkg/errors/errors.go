package errors

import "errors"

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalid     = errors.New("invalid")
	ErrInternal    = errors.New("internal")
	ErrUnavailable = errors.New("unavailable")
)
