package auth

import (
	"net/http"
	"strings"
)

// Middleware puts the request's User on its context. Requests without a
// valid identity pass through anonymous and the route guards decide.
func (m *Middleware) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, ok := m.identify(r); ok {
				r = r.WithContext(WithUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) identify(r *http.Request) (User, bool) {
	// never enable in prod
	if m.devBypass {
		if u, ok := devUser(r); ok {
			return u, true
		}
	}
	raw := m.assertionFrom(r)
	if raw == "" {
		return User{}, false
	}
	u, err := m.validateAssertion(raw)
	return u, err == nil
}

// assertionFrom prefers a bearer token over the assertion cookie.
func (m *Middleware) assertionFrom(r *http.Request) string {
	if h, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(h)
	}
	if c, _ := r.Cookie(m.assertCookieName); c != nil {
		return c.Value
	}
	return ""
}
