// Package middleware runs a chain of standard net/http middleware in front of
// the routing stage of the dispatch pipeline.
package middleware

import (
	"fmt"
	"net/http"
	"sync"
)

// Done is invoked once the whole chain passed the request through, with the
// (possibly replaced) writer and request. err is non-nil when a middleware panicked.
type Done func(w http.ResponseWriter, r *http.Request, err error)

// Runner holds the middleware stack shared by every scope of an instance.
type Runner struct {
	mu    sync.RWMutex
	stack []func(http.Handler) http.Handler
}

// NewRunner returns an empty runner.
func NewRunner() *Runner { return &Runner{} }

// Use appends middleware; the first one added is the outermost.
func (m *Runner) Use(mw ...func(http.Handler) http.Handler) {
	m.mu.Lock()
	for _, fn := range mw {
		if fn != nil {
			m.stack = append(m.stack, fn)
		}
	}
	m.mu.Unlock()
}

// Len reports the number of registered middleware.
func (m *Runner) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.stack)
}

// Run pushes the request through the stack. done is called at most once, inside
// the innermost middleware, so wrapping middleware observe the whole response.
// It is never called when a middleware answers the request without calling next.
func (m *Runner) Run(w http.ResponseWriter, r *http.Request, done Done) {
	finished := false
	finish := func(w http.ResponseWriter, r *http.Request, err error) {
		if finished {
			return
		}
		finished = true
		done(w, r, err)
	}

	m.mu.RLock()
	stack := m.stack
	m.mu.RUnlock()

	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		finish(w, r, nil)
	})
	for i := len(stack) - 1; i >= 0; i-- {
		h = stack[i](h)
	}

	defer func() {
		if rec := recover(); rec != nil {
			// panics raised past the chain belong to the caller
			if rec == http.ErrAbortHandler || finished {
				panic(rec)
			}
			finish(w, r, fmt.Errorf("middleware panic: %v", rec))
		}
	}()
	h.ServeHTTP(w, r)
}
