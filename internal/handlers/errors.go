package handlers

import (
	"errors"
	"net/http"

	"github.com/gaonpathshala/exam-portal/internal/services"
	"github.com/gin-gonic/gin"
)

func (h *BaseHandler) respondBadRequest(c *gin.Context, message string, details interface{}) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Message: message, Details: details})
}

// handleServiceError maps service errors onto HTTP responses. Anything it does
// not recognise is logged and reported as a generic 500.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
			Code:    "VALIDATION_ERROR",
		})
		return
	}
	var validationError *services.ValidationError
	if errors.As(err, &validationError) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: services.ValidationErrors{*validationError},
			Code:    "VALIDATION_ERROR",
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrVerificationFailed):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Details not found", Code: "VERIFICATION_FAILED"})
	case errors.Is(err, services.ErrAccountNotProvisioned):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Account has no password set", Code: "ACCOUNT_NOT_PROVISIONED"})
	case services.IsUnauthorized(err):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid credentials", Code: "UNAUTHORIZED"})
	case errors.Is(err, services.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Email already registered", Code: "DUPLICATE"})
	case errors.Is(err, services.ErrDuplicatePhone):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Phone already registered", Code: "DUPLICATE"})
	case services.IsConflict(err):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Resource already exists", Code: "DUPLICATE"})
	case services.IsNotFound(err):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: notFoundMessage(err), Code: "NOT_FOUND"})
	case errors.Is(err, services.ErrExamExpired):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Exam has expired", Code: "EXAM_EXPIRED"})
	case errors.Is(err, services.ErrExamHidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Exam is not available", Code: "EXAM_HIDDEN"})
	case errors.Is(err, services.ErrExamNotStarted):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Exam has not started yet", Code: "EXAM_NOT_STARTED"})
	case errors.Is(err, services.ErrInvalidSecurityKey):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Invalid security key", Code: "INVALID_SECURITY_KEY"})
	case services.IsForbidden(err):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Access denied", Code: "FORBIDDEN"})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrStudentNotFound):
		return "Student not found"
	case errors.Is(err, services.ErrExamNotFound):
		return "Exam not found"
	case errors.Is(err, services.ErrResultNotFound):
		return "Result not found"
	case errors.Is(err, services.ErrSessionNotFound):
		return "Session not found"
	case errors.Is(err, services.ErrAdminNotFound):
		return "Admin not found"
	}
	return "Resource not found"
}
