package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/healthspectrum/internal/domain/history"
	"github.com/rpggio/healthspectrum/internal/domain/onboarding"
	"github.com/rpggio/healthspectrum/internal/domain/preferences"
	"github.com/rpggio/healthspectrum/internal/domain/recent"
)

var (
	// ErrInvalidParams indicates tool arguments that could not be decoded.
	ErrInvalidParams = errors.New("invalid params")
	// ErrUnknownMethod indicates a method outside the tool catalog.
	ErrUnknownMethod = errors.New("unknown method")
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Details
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrUnknownMethod):
		return &APIError{Code: "UNKNOWN_METHOD", Message: err.Error(), RecoveryHint: "Call tools/list for the available tools"}
	case errors.Is(err, ErrInvalidParams):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Check argument names and types against the tool schema"}
	case errors.Is(err, history.ErrActionNotFound):
		return &APIError{Code: "ACTION_NOT_FOUND", Message: "action not found", RecoveryHint: "Call list_actions for current action ids"}
	case errors.Is(err, recent.ErrInvalidType):
		return &APIError{Code: "INVALID_ITEM_TYPE", Message: err.Error(), RecoveryHint: "Use appointment, medication, record, doctor, or other"}
	case errors.Is(err, preferences.ErrUnknownPreference):
		return &APIError{Code: "UNKNOWN_PREFERENCE", Message: err.Error(), RecoveryHint: "Call get_preferences for valid keys"}
	case errors.Is(err, preferences.ErrInvalidValue):
		return &APIError{Code: "INVALID_VALUE", Message: err.Error(), RecoveryHint: "Check the value's type and allowed values"}
	case errors.Is(err, recent.ErrInvalidInput),
		errors.Is(err, history.ErrInvalidInput),
		errors.Is(err, preferences.ErrInvalidInput),
		errors.Is(err, onboarding.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Provide all required fields"}
	default:
		return nil
	}
}
