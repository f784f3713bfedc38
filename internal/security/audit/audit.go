package audit

import (
	"context"
	"log/slog"
	"time"
)

type contextKey struct{}

// RequestIDKey carries the request id through context for audit records.
var RequestIDKey = contextKey{}

type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (al *Logger) LogAction(ctx context.Context, userID, action, resource, resourceID, status string) {
	requestID := ""
	if reqID := ctx.Value(RequestIDKey); reqID != nil {
		requestID = reqID.(string)
	}

	al.logger.Info("audit",
		slog.String("action", action),
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.String("user_id", userID),
		slog.String("status", status),
		slog.String("request_id", requestID),
		slog.Time("timestamp", time.Now()),
	)
}

func (al *Logger) LogAuth(ctx context.Context, userID, action, status string) {
	al.LogAction(ctx, userID, action, "session", "", status)
}

func (al *Logger) LogTaskMutation(ctx context.Context, userID, action, taskID, status string) {
	al.LogAction(ctx, userID, action, "task", taskID, status)
}
