// Package middleware holds the huma middlewares shared by all routes.
package middleware

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dmitrijs2005/draftkeeper/internal/logging"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// Logger logs every request once it has been served.
type Logger struct {
	log logging.Logger
}

func NewLogger(log logging.Logger) *Logger {
	return &Logger{log: log.With("component", "http_logger")}
}

// Middleware tags the request with an id (taken from X-Request-ID when the
// client sent one), echoes it back and logs the outcome.
func (l *Logger) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()

		id := ctx.Header(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx.SetHeader(RequestIDHeader, id)

		ctx = huma.WithContext(ctx, logging.WithRequestID(ctx.Context(), id))
		next(ctx)

		l.log.Info(ctx.Context(), "HTTP request",
			"method", ctx.Method(),
			"path", ctx.URL().Path,
			"status", ctx.Status(),
			"duration", time.Since(start),
			"remote_addr", ctx.RemoteAddr(),
		)
	}
}

// RequestID returns the id assigned by the Logger middleware.
func RequestID(ctx context.Context) string {
	return logging.RequestID(ctx)
}
