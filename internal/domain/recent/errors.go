package recent

import "errors"

var (
	// ErrInvalidInput indicates invalid recently viewed item input.
	ErrInvalidInput = errors.New("invalid recently viewed item")
	// ErrInvalidType indicates an unknown item type.
	ErrInvalidType = errors.New("unknown recently viewed item type")
)
