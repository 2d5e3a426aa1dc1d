package logger

import (
	"bytes"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/joeydtaylor/steeze-fast/pkg/middleware/auth"
	"go.uber.org/zap"
)

// Middleware writes one access log line per request once the response is done.
type Middleware struct {
	access *zap.Logger
	route  atomic.Pointer[func(*http.Request) string]
}

// NewMiddleware logs access lines to l.
func NewMiddleware(l *zap.Logger) *Middleware {
	if l == nil {
		l = zap.NewNop()
	}
	return &Middleware{access: l}
}

// LabelRoutes adds a "route" field to every access line, read from fn after
// the request was served.
func (m *Middleware) LabelRoutes(fn func(*http.Request) string) {
	if fn != nil {
		m.route.Store(&fn)
	}
}

func (m *Middleware) Middleware(ca *auth.Middleware) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)
			body := peekBody(r)
			start := time.Now()
			defer func() { m.write(r, ww, start, body, ca) }()
			next.ServeHTTP(ww, r)
		})
	}
}

// peekBody copies up to maxLoggedBody bytes of an allowlisted body and puts
// them back in front of the rest, so handlers still read the whole body.
func peekBody(r *http.Request) []byte {
	if !peekable(r) {
		return nil
	}
	b, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
	r.Body = readCloser{io.MultiReader(bytes.NewReader(b), r.Body), r.Body}
	if err != nil || len(b) > maxLoggedBody {
		return nil
	}
	return b
}

func (m *Middleware) write(r *http.Request, ww chimd.WrapResponseWriter, start time.Time, body []byte, ca *auth.Middleware) {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	var user auth.User
	authenticated := false
	if ca != nil {
		user = ca.GetUser(r.Context())
		authenticated = ca.IsAuthenticated(r.Context())
	}

	fields := []zap.Field{
		zap.String("dateTime", start.UTC().Format(time.RFC1123)),
		zap.String("requestId", chimd.GetReqID(r.Context())),
		zap.String("httpScheme", scheme),
		zap.Bool("isAuthenticated", authenticated),
		zap.String("username", user.Username),
		zap.String("role", user.Role.Name),
		zap.String("httpProto", r.Proto),
		zap.String("httpMethod", r.Method),
		zap.String("remoteAddr", r.RemoteAddr),
		zap.String("uri", r.URL.Path),
		zap.Duration("lat", time.Since(start)),
		zap.Int("responseSize", ww.BytesWritten()),
		zap.Int("status", ww.Status()),
	}
	if fn := m.route.Load(); fn != nil {
		fields = append(fields, zap.String("route", (*fn)(r)))
	}
	if len(body) > 0 {
		fields = append(fields, zap.ByteString("requestData", body))
	}
	m.access.Info("request", fields...)
}

type readCloser struct {
	io.Reader
	io.Closer
}
