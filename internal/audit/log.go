package audit

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"ideabridge.org/internal/auth"
	"ideabridge.org/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request id attached by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// LogEvent writes an audit entry enriched with request and principal context.
func LogEvent(ctx context.Context, event string, fields ...zap.Field) error {
	event = strings.TrimSpace(event)
	if event == "" {
		return errors.New("event name is required")
	}
	base := make([]zap.Field, 0, len(fields)+4)
	base = append(base, zap.String("type", "audit"), zap.String("event", event))
	if rid := RequestIDFromContext(ctx); rid != "" {
		base = append(base, zap.String("request_id", rid))
	}
	if p, ok := auth.PrincipalFromContext(ctx); ok {
		base = append(base, zap.Int64("user_id", p.UserID), zap.String("role", string(p.Role)))
	}
	if len(fields) > 0 {
		base = append(base, zap.Namespace("fields"))
		base = append(base, fields...)
	}
	obs.Logger().Info("audit", base...)
	return nil
}
