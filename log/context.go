package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// ContextWithRequestID 把请求ID写入 context
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext 取出请求ID，没有则返回空串
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// FromContext 返回带请求ID的组件 logger
func FromContext(ctx context.Context, component string) zerolog.Logger {
	l := WithComponent(component)
	if rid := RequestIDFromContext(ctx); rid != "" {
		return l.With().Str("request_id", rid).Logger()
	}
	return l
}
