package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrProviderFailure  = errors.New("provider failure")
)
