package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ServiceLogger writes one structured line per service operation, levelled by outcome.
type ServiceLogger struct {
	logger *slog.Logger
}

func NewServiceLogger(logger *slog.Logger, service string) *ServiceLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServiceLogger{logger: logger.With("service", service)}
}

func (l *ServiceLogger) Logger() *slog.Logger { return l.logger }

// LogOperation records the outcome of operation on resourceID.
func (l *ServiceLogger) LogOperation(ctx context.Context, operation string, resourceID interface{}, started time.Time, err error) {
	level := slog.LevelInfo
	status := "success"

	if err != nil {
		level = slog.LevelError
		status = "error"

		switch {
		case IsValidation(err):
			level, status = slog.LevelWarn, "validation_error"
		case IsUnauthorized(err) || IsForbidden(err):
			level, status = slog.LevelWarn, "denied"
		case IsNotFound(err):
			level, status = slog.LevelInfo, "not_found"
		case IsConflict(err):
			level, status = slog.LevelInfo, "conflict"
		}
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.Any("resource_id", resourceID),
		slog.String("status", status),
		slog.Duration("duration", time.Since(started)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		if ves, ok := err.(ValidationErrors); ok {
			attrs = append(attrs, slog.Int("validation_errors_count", len(ves)))
		}
	}

	l.logger.LogAttrs(ctx, level, fmt.Sprintf("%s %s", operation, status), attrs...)
}

// LogSecurityEvent records authentication outcomes. Never pass secrets in attrs.
func (l *ServiceLogger) LogSecurityEvent(ctx context.Context, event string, success bool, attrs ...any) {
	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}
	l.logger.Log(ctx, level, "security event", append([]any{"event", event, "success", success}, attrs...)...)
}
