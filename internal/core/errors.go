package core

import "errors"

// Error classes returned by every service. Callers match them with errors.Is; the API layer maps
// each class to a stable code and HTTP status.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotFound           = errors.New("not found")
	ErrPreconditionFailed = errors.New("failed precondition")
	ErrUpstream           = errors.New("upstream service error")
)
