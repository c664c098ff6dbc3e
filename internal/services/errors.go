package services

import (
	"errors"

	apperrors "github.com/gaonpathshala/exam-portal/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrUnauthorized = errors.New("invalid credentials")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("resource conflict")

	// Authentication
	ErrAccountNotProvisioned = errors.New("account has no password set, contact the administrator")
	ErrVerificationFailed    = errors.New("details not found")
	ErrSessionNotFound       = errors.New("session not found")
	ErrAdminNotFound         = errors.New("admin not found")

	// Students
	ErrStudentNotFound = errors.New("student not found")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrDuplicatePhone  = errors.New("phone number already registered")
	ErrRegNoExhausted  = errors.New("could not allocate a registration number")

	// Exams
	ErrExamNotFound       = errors.New("exam not found")
	ErrExamHidden         = errors.New("exam is not available")
	ErrExamExpired        = errors.New("exam has expired")
	ErrExamNotStarted     = errors.New("exam has not started yet")
	ErrInvalidSecurityKey = errors.New("invalid security key")

	// Results
	ErrResultNotFound = errors.New("result not found")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// ===== ERROR HELPERS =====

func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrStudentNotFound) ||
		errors.Is(err, ErrExamNotFound) ||
		errors.Is(err, ErrResultNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrAdminNotFound) ||
		errors.Is(err, ErrVerificationFailed)
}

// IsUnauthorized covers bad credentials; forbidden access is reported by IsForbidden.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrAccountNotProvisioned)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrExamHidden) ||
		errors.Is(err, ErrExamExpired) ||
		errors.Is(err, ErrExamNotStarted) ||
		errors.Is(err, ErrInvalidSecurityKey)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	var ves apperrors.ValidationErrors
	if errors.As(err, &ves) {
		return true
	}
	var ve *apperrors.ValidationError
	return errors.As(err, &ve)
}

// IsConflict checks if error represents a uniqueness conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrDuplicateEmail) ||
		errors.Is(err, ErrDuplicatePhone)
}
