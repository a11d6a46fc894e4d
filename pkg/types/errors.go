package types

import "errors"

// Domain errors for type validation
var (
	ErrEmptyPath       = errors.New("file path cannot be empty")
	ErrInvalidRefKind  = errors.New("invalid reference kind")
	ErrInvalidPosition = errors.New("invalid source position")
)
