package logger

import (
	"net/http"

	"go.uber.org/zap"
)

// ForRequest derives the per-request logger handed to Request.Log.
func ForRequest(base *zap.Logger, r *http.Request, requestID string) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return base.With(
		zap.String("requestId", requestID),
		zap.String("httpMethod", r.Method),
		zap.String("uri", r.URL.Path),
		zap.String("remoteAddr", r.RemoteAddr),
	)
}
