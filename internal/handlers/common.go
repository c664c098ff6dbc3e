package handlers

import (
	"github.com/gaonpathshala/exam-portal/internal/auth"
	"github.com/gaonpathshala/exam-portal/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// MessageResponse is returned by operations that have nothing else to report.
type MessageResponse struct {
	Message string `json:"message"`
}

// ListResponse wraps a page of items with the unpaginated total.
type ListResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs an incoming request with the caller attached.
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	h.log(c).Info(message, h.fields(c, additionalFields...)...)
}

// LogError logs error details with context information
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	h.log(c).LogError(err, message, h.fields(c, additionalFields...)...)
}

func (h *BaseHandler) LogWarn(c *gin.Context, message string, additionalFields ...interface{}) {
	h.log(c).Warn(message, h.fields(c, additionalFields...)...)
}

// log prefers the request-scoped logger, which already carries request_id, method and path.
func (h *BaseHandler) log(c *gin.Context) utils.Logger {
	return utils.GetLoggerFromContext(c, h.logger)
}

func (h *BaseHandler) fields(c *gin.Context, extra ...interface{}) []interface{} {
	var fields []interface{}
	if p := auth.PrincipalFrom(c); p != nil {
		fields = append(fields, "role", p.Role, "session_id", p.SessionID)
	}
	return append(fields, extra...)
}

// bindJSON decodes the body, answering 400 itself on failure.
func (h *BaseHandler) bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		h.LogWarn(c, "Invalid request payload", "error", err.Error())
		h.respondBadRequest(c, "Invalid request payload", err.Error())
		return false
	}
	return true
}
