package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	ErrCodeNotFound                  = "NOT_FOUND"
	ErrCodeValidation                = "VALIDATION_ERROR"
	ErrCodeInternal                  = "INTERNAL_ERROR"
	ErrCodeBadRequest                = "BAD_REQUEST"
	ErrCodeUnauthorized              = "UNAUTHORIZED"
	ErrCodeNoEligibleScreenshots     = "NO_ELIGIBLE_SCREENSHOTS"
	ErrCodeInvalidPosition           = "INVALID_POSITION"
	ErrCodePositionAlreadyCorrect    = "POSITION_ALREADY_CORRECT"
	ErrCodeSessionCompleted          = "SESSION_COMPLETED"
	ErrCodeSessionNotFound           = "SESSION_NOT_FOUND"
	ErrCodePowerUpUnavailable        = "POWERUP_UNAVAILABLE"
	ErrCodeCriteriaEvaluationFailure = "CRITERIA_EVALUATION_FAILURE"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "SESSION_COMPLETED")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so the sentinels below can
// be used with errors.Is regardless of message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound               = &AppError{Code: ErrCodeNotFound}
	ErrValidation             = &AppError{Code: ErrCodeValidation}
	ErrInternal               = &AppError{Code: ErrCodeInternal}
	ErrNoEligibleScreenshots  = &AppError{Code: ErrCodeNoEligibleScreenshots}
	ErrInvalidPosition        = &AppError{Code: ErrCodeInvalidPosition}
	ErrPositionAlreadyCorrect = &AppError{Code: ErrCodePositionAlreadyCorrect}
	ErrSessionCompleted       = &AppError{Code: ErrCodeSessionCompleted}
	ErrSessionNotFound        = &AppError{Code: ErrCodeSessionNotFound}
	ErrPowerUpUnavailable     = &AppError{Code: ErrCodePowerUpUnavailable}
	ErrCriteriaEvaluation     = &AppError{Code: ErrCodeCriteriaEvaluationFailure}
)

// Code extracts the AppError code from err, or "" when err is not an AppError.
func Code(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  http.StatusNotFound,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  http.StatusBadRequest,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewUnauthorizedError is returned when the caller carries no user identity.
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

// NewNoEligibleScreenshotsError is returned by the challenge generator when the
// catalog has nothing to draw from.
func NewNoEligibleScreenshotsError(minQuality int) *AppError {
	return &AppError{
		Code:    ErrCodeNoEligibleScreenshots,
		Message: fmt.Sprintf("no active screenshots with quality >= %d", minQuality),
		Status:  http.StatusServiceUnavailable,
	}
}

// NewInvalidPositionError reports a position outside 1..max.
func NewInvalidPositionError(position, max int) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidPosition,
		Message: fmt.Sprintf("position %d is out of range 1..%d", position, max),
		Status:  http.StatusBadRequest,
	}
}

// NewPositionAlreadyCorrectError reports an attempt to act on a solved
// position. errors.Is matches both this code and ErrInvalidPosition.
func NewPositionAlreadyCorrectError(position int) *AppError {
	return &AppError{
		Code:    ErrCodePositionAlreadyCorrect,
		Message: fmt.Sprintf("position %d is already correct", position),
		Status:  http.StatusConflict,
		Err:     ErrInvalidPosition,
	}
}

// NewSessionCompletedError reports a mutation attempted on a terminal session.
func NewSessionCompletedError(sessionID int64) *AppError {
	return &AppError{
		Code:    ErrCodeSessionCompleted,
		Message: fmt.Sprintf("session %d is already completed", sessionID),
		Status:  http.StatusConflict,
	}
}

// NewSessionNotFoundError reports a missing session or one owned by another user.
func NewSessionNotFoundError(sessionID int64) *AppError {
	return &AppError{
		Code:    ErrCodeSessionNotFound,
		Message: fmt.Sprintf("session not found: %d", sessionID),
		Status:  http.StatusNotFound,
	}
}

// NewPowerUpUnavailableError reports a power-up the player has not earned or already spent.
func NewPowerUpUnavailableError(powerUpType string) *AppError {
	return &AppError{
		Code:    ErrCodePowerUpUnavailable,
		Message: fmt.Sprintf("no unused %s power-up available", powerUpType),
		Status:  http.StatusConflict,
	}
}

// NewCriteriaEvaluationError wraps a failure evaluating a single achievement.
func NewCriteriaEvaluationError(achievementKey string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeCriteriaEvaluationFailure,
		Message: fmt.Sprintf("evaluating %s", achievementKey),
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}
