package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes returned in API responses and attached to AppError values.
const (
	CodeFetchError     = "FETCH_ERROR"
	CodeValidation     = "VALIDATION_ERROR"
	CodeQuotaExceeded  = "QUOTA_EXCEEDED"
	CodeSelfAction     = "SELF_ACTION"
	CodeNotFound       = "NOT_FOUND"
	CodeForbidden      = "FORBIDDEN"
	CodeConflict       = "CONFLICT"
	CodeTransportError = "TRANSPORT_ERROR"
	CodeInternal       = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

// NewSelfActionError reports an action a user attempted on their own idea
// (e.g. liking it) that is only meaningful on someone else's.
func NewSelfActionError(message string) *AppError {
	return &AppError{
		Code:    CodeSelfAction,
		Message: message,
	}
}

// NewQuotaExceededError reports an exhausted daily like quota.
func NewQuotaExceededError(message string) *AppError {
	return &AppError{
		Code:    CodeQuotaExceeded,
		Message: message,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

// NewFetchError wraps a failed bulk load of board state.
func NewFetchError(err error) *AppError {
	return &AppError{
		Code:    CodeFetchError,
		Message: "Failed to load board state",
		Err:     err,
	}
}

// NewTransportError wraps an event-channel connection failure.
func NewTransportError(err error) *AppError {
	return &AppError{
		Code:    CodeTransportError,
		Message: "Event channel unavailable",
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// StatusForCode maps an error code to its HTTP status.
func StatusForCode(code string) int {
	switch code {
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeSelfAction, CodeQuotaExceeded, CodeForbidden:
		return fiber.StatusForbidden
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}

// RespondWithAppError writes err with the status derived from its code.
func RespondWithAppError(c *fiber.Ctx, err error) error {
	if appErr, ok := err.(*AppError); ok {
		return RespondWithError(c, StatusForCode(appErr.Code), appErr)
	}
	return RespondWithError(c, fiber.StatusInternalServerError, err)
}
