package history

import "errors"

var (
	// ErrActionNotFound indicates the action id is not in the history.
	ErrActionNotFound = errors.New("action not found")
	// ErrInvalidInput indicates invalid action input.
	ErrInvalidInput = errors.New("invalid action input")
)
