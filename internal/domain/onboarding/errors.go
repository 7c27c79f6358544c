package onboarding

import "errors"

var ErrInvalidInput = errors.New("invalid input")
