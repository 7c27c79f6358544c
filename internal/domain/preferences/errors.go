package preferences

import "errors"

var (
	// ErrUnknownPreference indicates the preference key does not exist.
	ErrUnknownPreference = errors.New("unknown preference")
	// ErrInvalidValue indicates a preference value of the wrong shape or outside its allowed set.
	ErrInvalidValue = errors.New("invalid preference value")
	// ErrInvalidInput indicates invalid preference input.
	ErrInvalidInput = errors.New("invalid preference input")
)
