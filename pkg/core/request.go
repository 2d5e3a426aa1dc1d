package core

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestIDHeader is read for an inbound request id and echoed on replies.
const RequestIDHeader = "X-Request-Id"

// Request is the handler-facing view of one in-flight request.
type Request struct {
	ID     string
	Params map[string]string
	Raw    *http.Request
	Body   any
	Query  url.Values
	Log    *zap.Logger

	decorations *decorations
}

func (r *Request) Method() string { return r.Raw.Method }

func (r *Request) URL() *url.URL { return r.Raw.URL }

func (r *Request) Header() http.Header { return r.Raw.Header }

func (r *Request) Context() context.Context { return r.Raw.Context() }

// Locals returns the value bag shared with the raw-phase hooks of this request.
func (r *Request) Locals() *Locals { return LocalsFrom(r.Raw) }

// Decorator returns a value set with DecorateRequest.
func (r *Request) Decorator(name string) (any, bool) { return r.decorations.get(name) }

// Locals is a per-request value bag. The onRequest and preRouting hooks only
// see the raw request, so this is where they leave values for later phases.
type Locals struct {
	mu    sync.RWMutex
	m     map[string]any
	route string
}

func (l *Locals) Set(key string, v any) {
	l.mu.Lock()
	if l.m == nil {
		l.m = map[string]any{}
	}
	l.m[key] = v
	l.mu.Unlock()
}

func (l *Locals) Get(key string) (any, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.m[key]
	return v, ok
}

func (l *Locals) setRoute(pattern string) {
	l.mu.Lock()
	l.route = pattern
	l.mu.Unlock()
}

// MatchedRoute is the url pattern r was routed to. It is empty before routing
// and for requests no route matched.
func MatchedRoute(r *http.Request) string {
	l := LocalsFrom(r)
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.route
}

type localsKey struct{}

func withLocals(r *http.Request) (*http.Request, *Locals) {
	if l, ok := r.Context().Value(localsKey{}).(*Locals); ok {
		return r, l
	}
	l := &Locals{}
	return r.WithContext(context.WithValue(r.Context(), localsKey{}, l)), l
}

// LocalsFrom returns the bag attached to r by the dispatch pipeline. Requests
// that never went through it get an empty, detached bag.
func LocalsFrom(r *http.Request) *Locals {
	if l, ok := r.Context().Value(localsKey{}).(*Locals); ok {
		return l
	}
	return &Locals{}
}

func requestID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(RequestIDHeader)); id != "" {
		return id
	}
	if id := chimd.GetReqID(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}
